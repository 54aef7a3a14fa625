package auth

import (
	"sync"

	"github.com/rs/xid"

	"github.com/memoriesapp/memories/client/internal/types"
)

// PreviewStore hands out display references for selected images. Every
// reference it creates must eventually be revoked.
type PreviewStore interface {
	Create(img types.ImageFile) string
	Revoke(ref string)
}

// MemoryPreviews keeps previews in memory under "blob:<xid>" references.
type MemoryPreviews struct {
	mu   sync.Mutex
	refs map[string]types.ImageFile
}

func NewMemoryPreviews() *MemoryPreviews {
	return &MemoryPreviews{refs: map[string]types.ImageFile{}}
}

func (m *MemoryPreviews) Create(img types.ImageFile) string {
	ref := "blob:" + xid.New().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[ref] = img
	return ref
}

func (m *MemoryPreviews) Revoke(ref string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, ref)
}

// Get returns the image behind ref while it is live.
func (m *MemoryPreviews) Get(ref string) (types.ImageFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.refs[ref]
	return img, ok
}

// Live counts unrevoked references.
func (m *MemoryPreviews) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refs)
}
