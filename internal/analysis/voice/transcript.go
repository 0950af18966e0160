package voice

import "strings"

// MaxResults bounds the result slots one listening session may hold.
const MaxResults = 1024

// Transcript accumulates continuous speech-recognition results. Each result
// slot is overwritten by later interim hypotheses for the same index until it
// is marked final.
type Transcript struct {
	results []result
}

type result struct {
	text  string
	final bool
}

// Update records the hypothesis for result index and reports whether the
// index was accepted. Indexes outside [0, MaxResults) are refused; updates to
// an already final slot are ignored.
func (t *Transcript) Update(index int, text string, final bool) bool {
	if index < 0 || index >= MaxResults {
		return false
	}
	for len(t.results) <= index {
		t.results = append(t.results, result{})
	}
	if t.results[index].final {
		return true
	}
	t.results[index] = result{text: text, final: final}
	return true
}

// Text is the concatenation of all result slots in index order.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, r := range t.results {
		b.WriteString(r.text)
	}
	return b.String()
}

// Reset drops every result.
func (t *Transcript) Reset() {
	t.results = t.results[:0]
}

// Empty reports whether the transcript holds no text.
func (t *Transcript) Empty() bool {
	return strings.TrimSpace(t.Text()) == ""
}
