package memory

import (
	"sync/atomic"

	"github.com/hamed0406/portwatch/internal/domain"
	"github.com/hamed0406/portwatch/internal/repo"
)

// Registry is an immutable-snapshot target list. Each Replace builds a fresh
// slice and repoints the current reference; slices handed out by Current are
// never written again.
type Registry struct {
	current atomic.Pointer[[]domain.Target]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := []domain.Target{}
	r.current.Store(&empty)
	return r
}

// Load parses raws, keeping the order of the input. Entries without a host
// or a numeric port are returned separately and never probed.
func Load(raws []domain.RawTarget) ([]domain.Target, []repo.Rejected) {
	accepted := make([]domain.Target, 0, len(raws))
	var rejected []repo.Rejected
	for _, raw := range raws {
		t, err := domain.ParseTarget(raw)
		if err != nil {
			rejected = append(rejected, repo.Rejected{URI: raw.URI, Err: err})
			continue
		}
		accepted = append(accepted, t)
	}
	return accepted, rejected
}

func (r *Registry) Replace(raws []domain.RawTarget) ([]domain.Target, []repo.Rejected) {
	accepted, rejected := Load(raws)
	r.current.Store(&accepted)
	return accepted, rejected
}

func (r *Registry) Current() []domain.Target {
	return *r.current.Load()
}

var _ repo.TargetRegistry = (*Registry)(nil)
