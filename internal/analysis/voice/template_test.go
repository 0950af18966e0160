package voice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapContainsClassification(t *testing.T) {
	wrapped := Wrap("I feel sad", Context{Intent: IntentGeneral, Tone: ToneVulnerable})

	assert.True(t, strings.HasPrefix(wrapped, Marker))
	assert.Contains(t, wrapped, "Detected Intent: general conversation\n")
	assert.Contains(t, wrapped, "Detected Emotional Tone: vulnerable/sad\n")
	assert.Contains(t, wrapped, `Transcribed Text: "I feel sad"`)
	assert.True(t, strings.HasSuffix(wrapped, empathyLine))
}

func TestExtractDisplayTextRoundTrip(t *testing.T) {
	inputs := []string{
		"Hello",
		"",
		`she said "no" and left`,
		"line one\nline two\n",
		"ends with a quote\"",
		"Transcribed Text: \"nested\"",
		"trailing instruction \"\n\n" + empathyLine,
		"多语言 transcript ✨",
	}
	for _, text := range inputs {
		wrapped, _ := WrapTranscript(text)
		assert.Equal(t, text, ExtractDisplayText(wrapped), "round trip for %q", text)
	}
}

func TestExtractDisplayTextPassThrough(t *testing.T) {
	assert.Equal(t, "just a message", ExtractDisplayText("just a message"))
	assert.Equal(t, Marker+" but no transcript", ExtractDisplayText(Marker+" but no transcript"))
}

func TestExtractDisplayTextToleratesMissingInstruction(t *testing.T) {
	text := Marker + " \nDetected Intent: gratitude\nDetected Emotional Tone: neutral\nTranscribed Text: \"thanks\""
	assert.Equal(t, "thanks", ExtractDisplayText(text))
}
