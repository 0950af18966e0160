package chat

import (
	"github.com/zhouzirui/mindbloom/backend/internal/analysis/voice"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// MessageView 是消息的展示形态，语音模板只在发送时存在，展示时还原成原始转写
type MessageView struct {
	chat.Message
	DisplayText string `json:"displayText"`
}

// NewMessageView builds the display form of msg.
func NewMessageView(msg chat.Message) MessageView {
	display := msg.Text
	if msg.Role == chat.RoleUser {
		display = voice.ExtractDisplayText(msg.Text)
	}
	return MessageView{Message: msg, DisplayText: display}
}

// SessionView is a session with display-ready messages.
type SessionView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []MessageView `json:"messages"`
	CreatedAt string        `json:"createdAt"`
	Current   bool          `json:"current"`
}

func newMessageViews(messages []chat.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, NewMessageView(msg))
	}
	return views
}
