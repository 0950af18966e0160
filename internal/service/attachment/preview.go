package attachment

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PreviewPath is the URL prefix under which previews are served.
const PreviewPath = "/api/previews/"

type preview struct {
	data     []byte
	mimeType string
}

// PreviewRegistry holds image previews until they are revoked.
type PreviewRegistry struct {
	mu    sync.RWMutex
	items map[string]preview
}

// NewPreviewRegistry creates an empty registry.
func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{items: make(map[string]preview)}
}

// Create stores data and returns its preview URL.
func (r *PreviewRegistry) Create(data []byte, mimeType string) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.items[id] = preview{data: data, mimeType: mimeType}
	r.mu.Unlock()

	return PreviewPath + id
}

// Open returns the preview stored under id.
func (r *PreviewRegistry) Open(id string) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, "", false
	}
	return item.data, item.mimeType, true
}

// Revoke releases the preview behind url. Unknown URLs, including data URLs,
// are ignored.
func (r *PreviewRegistry) Revoke(url string) {
	id, ok := strings.CutPrefix(url, PreviewPath)
	if !ok || id == "" {
		return
	}
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

// Len returns the number of live previews.
func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
