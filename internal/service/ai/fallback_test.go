package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackReply(t *testing.T) {
	assert.Equal(t, FallbackImageReplyText, FallbackReply(errors.New("unsupported image format")))
	assert.Equal(t, FallbackReplyText, FallbackReply(errors.New("deadline exceeded")))
	assert.Equal(t, FallbackReplyText, FallbackReply(nil))
}

func TestNormalizeTitle(t *testing.T) {
	long := strings.Repeat("word ", 10)

	assert.Equal(t, "Morning Anxiety Chat", NormalizeTitle("  Morning Anxiety Chat \n", long))
	assert.Equal(t, "Hello", NormalizeTitle("", "Hello"))
	assert.Equal(t, long[:30]+"...", NormalizeTitle(strings.Repeat("x", 41), long))
	assert.Equal(t, strings.Repeat("x", 40), NormalizeTitle(strings.Repeat("x", 40), long))
}

func TestFallbackTitleCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 31)
	assert.Equal(t, strings.Repeat("é", 30)+"...", FallbackTitle(text))
	assert.Equal(t, strings.Repeat("é", 30), FallbackTitle(strings.Repeat("é", 30)))
}
