package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

func TestBuildTurnsPlaceholders(t *testing.T) {
	img := &chat.Attachment{Name: "a.png", MIMEType: "image/png", Data: "aGk="}
	history := []chat.Message{
		{Role: chat.RoleUser, Text: "hi"},
		{Role: chat.RoleModel, Text: "   "},
		{Role: chat.RoleUser, Attachment: img},
	}

	turns := BuildTurns(history, "", img)
	require.Len(t, turns, 4)

	assert.Equal(t, Turn{Role: chat.RoleUser, Text: "hi"}, turns[0])
	assert.Equal(t, Turn{Role: chat.RoleModel, Text: EmptyTurnText}, turns[1])
	assert.Equal(t, "", turns[2].Text)
	assert.Same(t, img, turns[2].Attachment)
	assert.Equal(t, AttachmentOnlyText, turns[3].Text)
	assert.Equal(t, chat.RoleUser, turns[3].Role)
}

func TestBuildTurnsNeverEmpty(t *testing.T) {
	turns := BuildTurns(nil, "  ", nil)
	require.Len(t, turns, 1)
	assert.Equal(t, EmptyMessageText, turns[0].Text)

	turns = BuildTurns(nil, "Hello", nil)
	assert.Equal(t, "Hello", turns[0].Text)
}
