package memory

import (
	"sync"

	"github.com/hamed0406/portwatch/internal/domain"
	"github.com/hamed0406/portwatch/internal/repo"
)

// StatusTable keeps one entry per URI in first-seen order.
type StatusTable struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []domain.StatusEntry
}

func NewStatusTable() *StatusTable {
	return &StatusTable{
		index:   make(map[string]int),
		entries: make([]domain.StatusEntry, 0, 16),
	}
}

// Upsert records up for uri and reports the value it replaced, if any.
func (s *StatusTable) Upsert(uri string, up bool) (previous, existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[uri]; ok {
		previous = s.entries[i].Up
		s.entries[i].Up = up
		return previous, true
	}
	s.index[uri] = len(s.entries)
	s.entries = append(s.entries, domain.StatusEntry{URI: uri, Up: up})
	return false, false
}

// Snapshot returns a copy of every entry. It is never nil.
func (s *StatusTable) Snapshot() []domain.StatusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StatusEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

var _ repo.StatusTable = (*StatusTable)(nil)
