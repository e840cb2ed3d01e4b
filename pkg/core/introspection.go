package core

import (
	"github.com/aretw0/introspection"
)

// ComposerState exposes internal state for observability.
type ComposerState struct {
	RepositoryType  string     `json:"repository_type"`
	Prefer          string     `json:"prefer"`
	BinaryChecksums bool       `json:"binary_checksums"`
	Transactions    ScopeStats `json:"transactions"`
}

// State implements introspection.Introspectable.
func (c *Composer) State() any {
	repoType := "unknown"
	if c.client != nil {
		repoType = "repository"
		// Try to get component type if the client implements introspection.Component
		if comp, ok := c.client.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	return ComposerState{
		RepositoryType:  repoType,
		Prefer:          c.locator.prefer,
		BinaryChecksums: c.config.BinaryChecksums,
		Transactions:    c.scope.Stats(),
	}
}

// ComponentType implements introspection.Component.
func (c *Composer) ComponentType() string {
	return "composer"
}

var _ introspection.Introspectable = (*Composer)(nil)
var _ introspection.Component = (*Composer)(nil)
