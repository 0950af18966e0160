package attachment

import (
	"sync"

	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

// Stager keeps at most one pending attachment per draft.
type Stager struct {
	previews *PreviewRegistry

	mu     sync.Mutex
	drafts map[string]chat.Attachment
}

// NewStager creates a stager revoking previews through previews.
func NewStager(previews *PreviewRegistry) *Stager {
	return &Stager{previews: previews, drafts: make(map[string]chat.Attachment)}
}

// Stage sets the draft's attachment. A previous one is discarded without
// confirmation and its preview revoked. It reports whether one was replaced.
func (s *Stager) Stage(draftID string, att chat.Attachment) bool {
	s.mu.Lock()
	prev, replaced := s.drafts[draftID]
	s.drafts[draftID] = att
	s.mu.Unlock()

	if replaced && prev.PreviewURL != att.PreviewURL {
		s.previews.Revoke(prev.PreviewURL)
	}
	return replaced
}

// Peek returns the staged attachment without removing it.
func (s *Stager) Peek(draftID string) (chat.Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.drafts[draftID]
	return att, ok
}

// Discard removes the staged attachment and revokes its preview.
func (s *Stager) Discard(draftID string) bool {
	s.mu.Lock()
	att, ok := s.drafts[draftID]
	delete(s.drafts, draftID)
	s.mu.Unlock()

	if ok {
		s.previews.Revoke(att.PreviewURL)
	}
	return ok
}

// Detach removes the staged attachment but keeps its preview alive: the sent
// message owns it from now on.
func (s *Stager) Detach(draftID string) (chat.Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.drafts[draftID]
	delete(s.drafts, draftID)
	return att, ok
}
