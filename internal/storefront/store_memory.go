package storefront

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps selections for the lifetime of one browsing session
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Selection
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Selection),
		now:     time.Now,
	}
}

func (m *MemoryStore) Record(_ context.Context, productID, variantID string, addons []ChosenAddon) (*Selection, error) {
	sel := NewSelection(uuid.NewString(), productID, variantID, addons, m.now())

	m.mu.Lock()
	m.entries[productID] = sel
	m.mu.Unlock()
	return copySelection(sel), nil
}

func (m *MemoryStore) Get(_ context.Context, productID string) (*Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sel, ok := m.entries[productID]
	if !ok {
		return nil, ErrSelectionNotFound
	}
	return copySelection(sel), nil
}

// All returns selections oldest first
func (m *MemoryStore) All(_ context.Context) ([]*Selection, error) {
	m.mu.Lock()
	out := make([]*Selection, 0, len(m.entries))
	for _, sel := range m.entries {
		out = append(out, copySelection(sel))
	}
	m.mu.Unlock()

	sortSelections(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, productID string) error {
	m.mu.Lock()
	delete(m.entries, productID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, maxAge time.Duration) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for productID, sel := range m.entries {
		if sel.Expired(now, maxAge) {
			delete(m.entries, productID)
			removed++
		}
	}
	return removed, nil
}

func copySelection(s *Selection) *Selection {
	c := *s
	c.ChosenAddons = append([]ChosenAddon(nil), s.ChosenAddons...)
	return &c
}

func sortSelections(s []*Selection) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Timestamp.Equal(s[j].Timestamp) {
			return s[i].ProductID < s[j].ProductID
		}
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}
