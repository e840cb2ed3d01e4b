package core

import (
	"context"
	"fmt"

	"github.com/aretw0/porkpie/pkg/vocab"
)

// Locator finds the membership containers of a Collection or Object.
//
// Every call fetches the parent graph again; nothing is cached. When several
// containers match, the first one in graph order wins. That order depends on
// the backend and is not guaranteed to be stable.
type Locator struct {
	client RepositoryClient
	prefer string
}

// NewLocator creates a Locator. An empty prefer uses vocab.EmbedResources.
func NewLocator(client RepositoryClient, prefer string) *Locator {
	if prefer == "" {
		prefer = vocab.EmbedResources
	}
	return &Locator{client: client, prefer: prefer}
}

// Locate returns the URI of the first container of type kind under parent
// whose ldp:hasMemberRelation is exactly relation. It returns
// ErrContainerNotFound when none matches.
func (l *Locator) Locate(ctx context.Context, parent, tx, kind, relation string) (string, error) {
	graph, err := l.client.GetGraph(ctx, parent, Headers{HeaderPrefer: l.prefer}, tx)
	if err != nil {
		return "", fmt.Errorf("fetch graph of %s: %w", parent, err)
	}

	for _, res := range graph.AllOfType(kind) {
		if res.Get(vocab.HasMemberRelation) == relation {
			return res.URI(), nil
		}
	}
	return "", ErrContainerNotFound
}

// MembersContainer locates the ldp:IndirectContainer holding pcdm:hasMember proxies.
func (l *Locator) MembersContainer(ctx context.Context, parent, tx string) (string, error) {
	return l.Locate(ctx, parent, tx, vocab.IndirectContainer, vocab.HasMember)
}

// FilesContainer locates the ldp:DirectContainer holding pcdm:hasFile children.
func (l *Locator) FilesContainer(ctx context.Context, parent, tx string) (string, error) {
	return l.Locate(ctx, parent, tx, vocab.DirectContainer, vocab.HasFile)
}
