package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscriptInterimThenFinal(t *testing.T) {
	var tr Transcript
	tr.Update(0, "I feel", false)
	tr.Update(0, "I feel tired", true)
	tr.Update(0, "ignored", false)
	tr.Update(1, " today", false)

	assert.Equal(t, "I feel tired today", tr.Text())
	assert.False(t, tr.Empty())

	tr.Reset()
	assert.True(t, tr.Empty())
	assert.Equal(t, "", tr.Text())
}

func TestTranscriptFillsGaps(t *testing.T) {
	var tr Transcript
	tr.Update(2, "c", true)
	tr.Update(0, "a", true)
	tr.Update(-1, "x", true)

	assert.Equal(t, "ac", tr.Text())
}

func TestTranscriptRefusesOutOfRangeIndex(t *testing.T) {
	var tr Transcript

	assert.False(t, tr.Update(1<<40, "hi", false))
	assert.False(t, tr.Update(MaxResults, "hi", false))
	assert.False(t, tr.Update(-1, "hi", false))
	assert.True(t, tr.Empty())
	assert.Empty(t, tr.results)

	assert.True(t, tr.Update(MaxResults-1, "last", true))
	assert.Equal(t, "last", tr.Text())
	assert.Len(t, tr.results, MaxResults)
}
