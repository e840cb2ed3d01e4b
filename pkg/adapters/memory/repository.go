// Package memory implements core.RepositoryClient as an in-process,
// transactional LDP repository.
//
// It follows the behavior of a Fedora server closely enough to exercise the
// composer end to end: URIs minted inside a transaction embed its token,
// binaries are described through their "/fcr:metadata" resource, and LDP
// Indirect and Direct containers materialize their membership triples on
// read.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/rdf"
	"github.com/aretw0/porkpie/pkg/vocab"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8080/rest"

// Config holds the configuration for the in-memory repository.
type Config struct {
	BaseURL string
	Logger  *slog.Logger
}

// Repository is an in-memory LDP repository. It is safe for concurrent use.
type Repository struct {
	base   string
	logger *slog.Logger

	mu    sync.RWMutex
	live  *state
	txs   map[string]*transaction
	stats Stats
}

// Stats counts the operations the repository served.
type Stats struct {
	Created    int `json:"created"`
	Modified   int `json:"modified"`
	Deleted    int `json:"deleted"`
	Committed  int `json:"committed"`
	RolledBack int `json:"rolled_back"`
	Conflicts  int `json:"conflicts"`
}

// NewRepository creates an empty repository holding only its root container.
func NewRepository(config Config) *Repository {
	base := strings.TrimRight(config.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		base:   base,
		logger: logger,
		live:   newState(base),
		txs:    make(map[string]*transaction),
	}
}

// BaseURL returns the URI of the root container.
func (r *Repository) BaseURL() string {
	return r.base
}

// CreateTransaction opens a transaction over a snapshot of the repository.
func (r *Repository) CreateTransaction(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	token := "tx:" + uuid.NewString()
	r.txs[token] = &transaction{token: token, state: r.live.clone()}
	r.logger.Debug("transaction opened", "tx", token)
	return token, nil
}

// CommitTransaction replays the operations of tx onto the live repository.
// Either all of them apply or none does.
func (r *Repository) CommitTransaction(ctx context.Context, tx string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.transactionLocked(tx)
	if err != nil {
		return err
	}
	delete(r.txs, tx)

	next := r.live.clone()
	for i, o := range t.journal {
		if err := o.apply(next); err != nil {
			r.stats.Conflicts++
			r.logger.Debug("transaction conflict", "tx", tx, "op", i, "error", err)
			return fmt.Errorf("%w: %s: %w", core.ErrTransactionConflict, tx, err)
		}
	}
	r.live = next
	r.stats.Committed++
	r.logger.Debug("transaction committed", "tx", tx, "ops", len(t.journal))
	return nil
}

// RollbackTransaction discards tx.
func (r *Repository) RollbackTransaction(ctx context.Context, tx string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.transactionLocked(tx); err != nil {
		return err
	}
	delete(r.txs, tx)
	r.stats.RolledBack++
	r.logger.Debug("transaction rolled back", "tx", tx)
	return nil
}

// CreateResource creates a child of uri. Turtle content makes an RDF source;
// any other content type makes a binary.
func (r *Repository) CreateResource(ctx context.Context, uri string, content []byte, headers core.Headers, tx string, checksum string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	if checksum != "" && !strings.EqualFold(checksum, core.Checksum(content)) {
		return "", fmt.Errorf("%w: create in %s", core.ErrChecksumMismatch, uri)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, token, err := r.resolveLocked(uri, tx)
	if err != nil {
		return "", err
	}
	parent := r.canonical(uri)
	id := parent + "/" + uuid.NewString()

	n := &node{uri: id, parent: parent, contentType: headers[core.HeaderContentType]}
	switch mediaType(n.contentType) {
	case core.MediaTurtle:
		triples, err := rdf.ParseTurtle(id, string(content))
		if err != nil {
			return "", fmt.Errorf("%w: %w", core.ErrValidation, err)
		}
		n.triples = r.canonicalTriples(triples)
	case "":
		if len(content) > 0 {
			return "", fmt.Errorf("%w: content without %s", core.ErrValidation, core.HeaderContentType)
		}
	case "application/ld+json", "application/n-triples", "application/rdf+xml":
		return "", fmt.Errorf("%w: unsupported RDF serialization %s", core.ErrValidation, n.contentType)
	default:
		n.binary = true
		n.content = append([]byte(nil), content...)
	}

	if err := r.applyLocked(st, token, createOp{node: n}); err != nil {
		return "", err
	}
	r.stats.Created++
	return r.render(id, token), nil
}

// ModifyResource applies a SPARQL INSERT DATA update. Updates sent to
// "<binary>/fcr:metadata" describe the binary.
func (r *Repository) ModifyResource(ctx context.Context, uri string, update string, headers core.Headers, tx string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	if ct := mediaType(headers[core.HeaderContentType]); ct != core.MediaSPARQLUpdate {
		return fmt.Errorf("%w: modify expects %s, got %q", core.ErrValidation, core.MediaSPARQLUpdate, ct)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, token, err := r.resolveLocked(uri, tx)
	if err != nil {
		return err
	}
	target, description := r.target(uri)
	n, ok := st.nodes[target]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, uri)
	}
	if n.binary != description {
		return fmt.Errorf("%w: %s", core.ErrNotFound, uri)
	}

	triples, err := rdf.ParseInsertData(target, update)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	if err := r.applyLocked(st, token, modifyOp{uri: target, triples: r.canonicalTriples(triples)}); err != nil {
		return err
	}
	r.stats.Modified++
	return nil
}

// GetGraph returns the description of uri, including the membership
// triples its containers imply. When the Prefer header asks for embedded
// resources the children of uri are included too.
func (r *Repository) GetGraph(ctx context.Context, uri string, headers core.Headers, tx string) (core.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, token, err := r.resolveLocked(uri, tx)
	if err != nil {
		return nil, err
	}
	target, _ := r.target(uri)
	n, ok := st.nodes[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, uri)
	}

	g := newGraph(func(u string) string { return r.render(u, token) })
	g.describe(st, n)
	if strings.Contains(headers[core.HeaderPrefer], vocab.Fedora+"EmbedResources") {
		for _, child := range n.children {
			g.describe(st, st.nodes[child])
		}
	}
	return g, nil
}

// Content returns the bytes and content type of a binary.
func (r *Repository) Content(ctx context.Context, uri, tx string) ([]byte, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, _, err := r.resolveLocked(uri, tx)
	if err != nil {
		return nil, "", err
	}
	n, ok := st.nodes[r.canonical(uri)]
	if !ok || !n.binary {
		return nil, "", fmt.Errorf("%w: binary %s", core.ErrNotFound, uri)
	}
	return append([]byte(nil), n.content...), n.contentType, nil
}

// DeleteResource removes uri and everything below it.
func (r *Repository) DeleteResource(ctx context.Context, uri, tx string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransport, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	st, token, err := r.resolveLocked(uri, tx)
	if err != nil {
		return err
	}
	id := r.canonical(uri)
	if id == r.base {
		return fmt.Errorf("%w: the root container cannot be deleted", core.ErrValidation)
	}
	if err := r.applyLocked(st, token, deleteOp{uri: id}); err != nil {
		return err
	}
	r.stats.Deleted++
	return nil
}

// Len returns the number of committed resources, root excluded.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live.nodes) - 1
}

// resolveLocked picks the state an operation runs against. A transaction
// token embedded in uri is honored when tx is empty.
func (r *Repository) resolveLocked(uri, tx string) (*state, string, error) {
	if tx == "" {
		tx, _ = core.TransactionToken(uri)
	}
	if tx == "" {
		return r.live, "", nil
	}
	t, err := r.transactionLocked(tx)
	if err != nil {
		return nil, "", err
	}
	return t.state, tx, nil
}

func (r *Repository) transactionLocked(tx string) (*transaction, error) {
	t, ok := r.txs[tx]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", core.ErrNotFound, tx)
	}
	return t, nil
}

// applyLocked runs o against st and journals it when st belongs to a
// transaction.
func (r *Repository) applyLocked(st *state, token string, o op) error {
	if err := o.apply(st); err != nil {
		return err
	}
	if token != "" {
		t := r.txs[token]
		t.journal = append(t.journal, o.clone())
	}
	return nil
}

// canonical maps uri to the form it has outside any transaction.
func (r *Repository) canonical(uri string) string {
	if uri == "" {
		return r.base
	}
	return strings.TrimRight(core.StripTransaction(uri), "/")
}

// target returns the canonical resource uri addresses and whether it
// addresses the description of a binary.
func (r *Repository) target(uri string) (string, bool) {
	c := r.canonical(uri)
	if trimmed, ok := strings.CutSuffix(c, vocab.MetadataSuffix); ok {
		return trimmed, true
	}
	return c, false
}

// render maps a canonical uri into the transaction token, if any.
func (r *Repository) render(uri, token string) string {
	if token == "" || !strings.HasPrefix(uri, r.base) {
		return uri
	}
	return r.base + "/" + token + uri[len(r.base):]
}

func (r *Repository) canonicalTriples(triples []rdf.Triple) []rdf.Triple {
	out := make([]rdf.Triple, len(triples))
	for i, t := range triples {
		t.Subject = r.canonicalTerm(t.Subject)
		t.Object = r.canonicalTerm(t.Object)
		out[i] = t
	}
	return out
}

func (r *Repository) canonicalTerm(t rdf.Term) rdf.Term {
	if t.Kind == rdf.KindIRI && strings.HasPrefix(t.Value, r.base) {
		t.Value = r.canonical(t.Value)
	}
	return t
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

var _ core.RepositoryClient = (*Repository)(nil)
