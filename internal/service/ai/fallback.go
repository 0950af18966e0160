package ai

import (
	"strings"
	"unicode/utf8"
)

// Canned replies shown instead of a failed model answer.
const (
	FallbackReplyText      = "I'm having a little trouble connecting right now bestie. Let's try again in a moment."
	FallbackImageReplyText = "I had a small issue looking at that image, bestie. Could you try sending it again or describing it? I'm here for you! ✨"
)

const (
	maxTitleRunes      = 40
	fallbackTitleRunes = 30
)

// FallbackReply picks the canned reply for err.
func FallbackReply(err error) string {
	if err != nil && strings.Contains(err.Error(), "image") {
		return FallbackImageReplyText
	}
	return FallbackReplyText
}

// FallbackTitle derives a title from the first message: its first 30 runes,
// with "..." appended when truncated.
func FallbackTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= fallbackTitleRunes {
		return firstMessage
	}
	return string(runes[:fallbackTitleRunes]) + "..."
}

// NormalizeTitle trims a generated title and falls back when it is empty or
// longer than 40 runes.
func NormalizeTitle(title, firstMessage string) string {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleRunes {
		return FallbackTitle(firstMessage)
	}
	return title
}
