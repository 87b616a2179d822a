package store

import (
	"sync"

	"github.com/sangkips/storefront-api/internal/domain/entity"
)

// UIStore holds minor interface preferences. It has no remote side.
type UIStore struct {
	mu    sync.RWMutex
	flags entity.UIFlags

	notifyMu sync.Mutex
	obs      observers[entity.UIFlags]
}

// NewUIStore creates a new UI store
func NewUIStore(initial entity.UIFlags) *UIStore {
	return &UIStore{flags: initial}
}

func (s *UIStore) Flags() entity.UIFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

func (s *UIStore) Subscribe(fn func(entity.UIFlags)) (unsubscribe func()) {
	return s.obs.subscribe(fn)
}

// DismissAnnouncement hides the announcement bar
func (s *UIStore) DismissAnnouncement() {
	s.update(func(f *entity.UIFlags) { f.AnnouncementDismissed = true })
}

// SetSidebarCollapsed records the sidebar state
func (s *UIStore) SetSidebarCollapsed(collapsed bool) {
	s.update(func(f *entity.UIFlags) { f.SidebarCollapsed = collapsed })
}

// Set replaces all flags
func (s *UIStore) Set(flags entity.UIFlags) {
	s.update(func(f *entity.UIFlags) { *f = flags })
}

func (s *UIStore) update(fn func(*entity.UIFlags)) {
	s.mu.Lock()
	fn(&s.flags)
	flags := s.flags
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	s.obs.notify(flags)
}
