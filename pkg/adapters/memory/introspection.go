package memory

import (
	"slices"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	BaseURL        string   `json:"base_url"`
	Resources      int      `json:"resources"`
	Stats          Stats    `json:"stats"`
	TransactionIDs []string `json:"active_transactions,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.txs))
	for id := range r.txs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return RepositoryState{
		BaseURL:        r.base,
		Resources:      len(r.live.nodes) - 1,
		Stats:          r.stats,
		TransactionIDs: ids,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "memory-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
