package core

import "context"

// Headers maps HTTP-style header names to values.
type Headers map[string]string

// Clone returns a copy of h that is safe to modify. A nil map yields an
// empty one.
func (h Headers) Clone() Headers {
	out := make(Headers, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Header names used by the composer.
const (
	HeaderContentType = "Content-Type"
	HeaderPrefer      = "Prefer"
)

// Media types used by the composer.
const (
	MediaTurtle       = "text/turtle"
	MediaSPARQLUpdate = "application/sparql-update"
	MediaOctetStream  = "application/octet-stream"
)

// RepositoryClient is the port to the linked-data repository. Adhering to
// this interface keeps the composer independent of the transport (HTTP,
// in-memory, recorded fixtures).
//
// An empty transaction means "no transaction": each call is applied on its
// own, following the server default.
type RepositoryClient interface {
	// CreateTransaction opens a transaction and returns its token.
	CreateTransaction(ctx context.Context) (string, error)

	// CommitTransaction applies every change made within tx.
	CommitTransaction(ctx context.Context, tx string) error

	// RollbackTransaction discards every change made within tx.
	RollbackTransaction(ctx context.Context, tx string) error

	// CreateResource creates a child of uri (or of the repository root when
	// uri is empty) and returns the new resource URI. Inside a transaction
	// the returned URI embeds the transaction token.
	CreateResource(ctx context.Context, uri string, content []byte, headers Headers, tx string, checksum string) (string, error)

	// ModifyResource applies a SPARQL update to uri.
	ModifyResource(ctx context.Context, uri string, update string, headers Headers, tx string) error

	// GetGraph returns the RDF representation of uri.
	GetGraph(ctx context.Context, uri string, headers Headers, tx string) (Graph, error)
}

// Graph is a parsed RDF representation.
type Graph interface {
	// AllOfType returns the resources typed as typeURI, in document order.
	AllOfType(typeURI string) []GraphResource
}

// GraphResource is a subject node within a Graph.
type GraphResource interface {
	URI() string
	// Get returns the first value of predicate, or "" when absent.
	Get(predicate string) string
}
