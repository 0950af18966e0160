package ai

import (
	"strings"

	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// Placeholder texts that keep every turn non-empty.
const (
	EmptyTurnText      = "..."
	AttachmentOnlyText = "Analyze this file for me please."
	EmptyMessageText   = "Hello!"
)

// Turn is one provider-neutral conversation turn.
type Turn struct {
	Role       chat.Role
	Text       string
	Attachment *chat.Attachment
}

// BuildTurns converts the stored history plus the new message into ordered
// turns. History turns without content carry EmptyTurnText; the new turn
// falls back to AttachmentOnlyText or EmptyMessageText.
func BuildTurns(history []chat.Message, text string, attachment *chat.Attachment) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	for _, msg := range history {
		turn := Turn{Role: msg.Role, Attachment: msg.Attachment}
		if strings.TrimSpace(msg.Text) != "" {
			turn.Text = msg.Text
		}
		if turn.Text == "" && turn.Attachment == nil {
			turn.Text = EmptyTurnText
		}
		turns = append(turns, turn)
	}

	current := Turn{Role: chat.RoleUser, Attachment: attachment}
	switch {
	case strings.TrimSpace(text) != "":
		current.Text = text
	case attachment != nil:
		current.Text = AttachmentOnlyText
	default:
		current.Text = EmptyMessageText
	}
	return append(turns, current)
}
