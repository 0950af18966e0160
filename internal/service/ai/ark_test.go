package ai

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

type fakeChatModel struct {
	inputs [][]*schema.Message
	reply  string
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func TestArkConverseSendsMultimodalTurns(t *testing.T) {
	fake := &fakeChatModel{reply: "you got this"}
	a, err := newArk(context.Background(), fake)
	require.NoError(t, err)

	history := []chat.Message{
		{Role: chat.RoleUser, Text: "hi"},
		{Role: chat.RoleModel, Text: "hey"},
		{Role: chat.RoleUser, Text: "notes", Attachment: &chat.Attachment{Name: "n.pdf", MIMEType: "application/pdf", Data: "JVBE"}},
	}
	reply, err := a.Converse(context.Background(), history, "what is this", &chat.Attachment{Name: "a.png", MIMEType: "image/png", Data: "aGk="})
	require.NoError(t, err)
	assert.Equal(t, "you got this", reply)

	require.Len(t, fake.inputs, 1)
	msgs := fake.inputs[0]
	require.Len(t, msgs, 5)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, SystemInstruction, msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, schema.Assistant, msgs[2].Role)

	assert.Equal(t, "[Attached file: n.pdf (application/pdf)]", msgs[3].MultiContent[1].Text)

	last := msgs[4]
	require.Len(t, last.MultiContent, 2)
	assert.Equal(t, "what is this", last.MultiContent[0].Text)
	assert.Equal(t, schema.ChatMessagePartTypeImageURL, last.MultiContent[1].Type)
	assert.Equal(t, "data:image/png;base64,aGk=", last.MultiContent[1].ImageURL.URL)
}

func TestArkTitleChainRendersTemplate(t *testing.T) {
	fake := &fakeChatModel{reply: "Evening Check In"}
	a, err := newArk(context.Background(), fake)
	require.NoError(t, err)

	title, err := a.TitleFor(context.Background(), "feeling {weird} tonight")
	require.NoError(t, err)
	assert.Equal(t, "Evening Check In", title)

	require.Len(t, fake.inputs, 1)
	assert.Contains(t, fake.inputs[0][0].Content, `"feeling {weird} tonight"`)
}

func TestArkSearchChainWritesLocation(t *testing.T) {
	fake := &fakeChatModel{reply: "[]"}
	a, err := newArk(context.Background(), fake)
	require.NoError(t, err)

	raw, err := a.NearbyTherapists(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	msgs := fake.inputs[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, TherapistSearchInstruction, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "Latitude: 40.712800")
	assert.Contains(t, msgs[1].Content, "Longitude: -74.006000")
}
