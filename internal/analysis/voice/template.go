package voice

import (
	"fmt"
	"strings"
)

// Marker identifies a wrapped voice prompt.
const Marker = "[VOICE INPUT CONTEXT]"

const (
	transcriptPrefix = `Transcribed Text: "`
	empathyLine      = "Please respond with extra warmth and empathy, acknowledging the spoken nature of this message."
	transcriptSuffix = "\"\n\n" + empathyLine
)

// Wrap embeds the transcript and its classification into the prompt sent to
// the model. The template never reaches the user: see ExtractDisplayText.
func Wrap(text string, ctx Context) string {
	return fmt.Sprintf("%s \nDetected Intent: %s\nDetected Emotional Tone: %s\n%s%s%s",
		Marker, ctx.Intent, ctx.Tone, transcriptPrefix, text, transcriptSuffix)
}

// WrapTranscript analyzes text and wraps it in one step.
func WrapTranscript(text string) (string, Context) {
	ctx := Analyze(text)
	return Wrap(text, ctx), ctx
}

// ExtractDisplayText returns the original transcript of a wrapped prompt, or
// text unchanged when it is not one.
func ExtractDisplayText(text string) string {
	if !strings.Contains(text, Marker) {
		return text
	}

	_, rest, found := strings.Cut(text, transcriptPrefix)
	if !found {
		return text
	}

	if trimmed, ok := strings.CutSuffix(rest, transcriptSuffix); ok {
		return trimmed
	}
	rest = strings.TrimSuffix(rest, "\n"+empathyLine)
	rest = strings.TrimRight(rest, "\n")
	return strings.TrimSuffix(rest, `"`)
}
