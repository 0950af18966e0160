package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// Ark drives a Volcengine Ark chat model through eino.
type Ark struct {
	chatModel   model.BaseChatModel
	titleChain  compose.Runnable[map[string]any, *schema.Message]
	searchChain compose.Runnable[map[string]any, *schema.Message]
}

// NewArk creates the Ark provider from cfg.
func NewArk(ctx context.Context, cfg config.AIConfig) (*Ark, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return newArk(ctx, chatModel)
}

func newArk(ctx context.Context, chatModel model.BaseChatModel) (*Ark, error) {
	titleChain, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.UserMessage(titleTemplate),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile title chain: %w", err)
	}

	searchChain, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile search chain: %w", err)
	}

	return &Ark{
		chatModel:   chatModel,
		titleChain:  titleChain,
		searchChain: searchChain,
	}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, tpl prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// Converse implements Client. Multimodal turns are sent directly to the
// model since a chat template cannot carry image parts.
func (a *Ark) Converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error) {
	messages := make([]*schema.Message, 0, len(history)+2)
	messages = append(messages, schema.SystemMessage(SystemInstruction))
	messages = append(messages, arkMessages(BuildTurns(history, text, attachment))...)

	resp, err := a.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to run AI model: %w", err)
	}
	return messageText(resp)
}

// TitleFor implements Client.
func (a *Ark) TitleFor(ctx context.Context, firstMessage string) (string, error) {
	resp, err := a.titleChain.Invoke(ctx, map[string]any{"message": firstMessage})
	if err != nil {
		return "", fmt.Errorf("failed to run title chain: %w", err)
	}
	return messageText(resp)
}

// NearbyTherapists implements Client. Ark has no maps grounding, so the
// location is written into the query.
func (a *Ark) NearbyTherapists(ctx context.Context, lat, lng float64) (string, error) {
	resp, err := a.searchChain.Invoke(ctx, map[string]any{
		"system": TherapistSearchInstruction,
		"query":  therapistQueryWithLocation(lat, lng),
	})
	if err != nil {
		return "", fmt.Errorf("failed to run search chain: %w", err)
	}
	return messageText(resp)
}

func arkMessages(turns []Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		role := schema.User
		if turn.Role == chat.RoleModel {
			role = schema.Assistant
		}

		if turn.Attachment == nil {
			messages = append(messages, &schema.Message{Role: role, Content: turn.Text})
			continue
		}

		parts := make([]schema.ChatMessagePart, 0, 2)
		if turn.Text != "" {
			parts = append(parts, schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: turn.Text})
		}
		if turn.Attachment.IsImage() {
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL: dataURL(turn.Attachment),
				},
			})
		} else {
			// 非图片附件只能以文字说明
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeText,
				Text: fmt.Sprintf("[Attached file: %s (%s)]", turn.Attachment.Name, turn.Attachment.MIMEType),
			})
		}
		messages = append(messages, &schema.Message{Role: role, MultiContent: parts})
	}
	return messages
}

func dataURL(att *chat.Attachment) string {
	return "data:" + att.MIMEType + ";base64," + att.Data
}

func messageText(msg *schema.Message) (string, error) {
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyResponse
	}
	return msg.Content, nil
}
