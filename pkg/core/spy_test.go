package core_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/porkpie/pkg/core"
)

const (
	spyRoot = "http://localhost:8080/rest"
	spyTx   = "tx:0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"
)

type call struct {
	Method   string
	URI      string
	Content  string
	Headers  core.Headers
	Tx       string
	Checksum string
}

// SpyClient implements core.RepositoryClient, recording every call.
// Graphs are served from a fixed table and failures can be injected per method.
type SpyClient struct {
	mu      sync.Mutex
	calls   []call
	minted  int
	graphs  map[string]*spyGraph
	failOn  map[string]error
	failNth map[string]int // fail only the nth call (1-based) of a method
}

func NewSpyClient() *SpyClient {
	return &SpyClient{
		graphs:  make(map[string]*spyGraph),
		failOn:  make(map[string]error),
		failNth: make(map[string]int),
	}
}

// Fail makes every call to method return err.
func (s *SpyClient) Fail(method string, err error) {
	s.failOn[method] = err
}

// FailNth makes only the nth call to method return err.
func (s *SpyClient) FailNth(method string, n int, err error) {
	s.failOn[method] = err
	s.failNth[method] = n
}

func (s *SpyClient) record(c call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	err, ok := s.failOn[c.Method]
	if !ok {
		return nil
	}
	if n, ok := s.failNth[c.Method]; ok && n != s.countLocked(c.Method) {
		return nil
	}
	return err
}

func (s *SpyClient) countLocked(method string) int {
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Calls returns the recorded calls of the given methods (all when none given).
func (s *SpyClient) Calls(methods ...string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(methods) == 0 {
		return append([]call(nil), s.calls...)
	}
	var out []call
	for _, c := range s.calls {
		for _, m := range methods {
			if c.Method == m {
				out = append(out, c)
			}
		}
	}
	return out
}

// Count returns how many times method was called.
func (s *SpyClient) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(method)
}

// Methods returns the sequence of method names called.
func (s *SpyClient) Methods() []string {
	var out []string
	for _, c := range s.Calls() {
		out = append(out, c.Method)
	}
	return out
}

func (s *SpyClient) CreateTransaction(ctx context.Context) (string, error) {
	if err := s.record(call{Method: "CreateTransaction"}); err != nil {
		return "", err
	}
	return spyTx, nil
}

func (s *SpyClient) CommitTransaction(ctx context.Context, tx string) error {
	return s.record(call{Method: "CommitTransaction", Tx: tx})
}

func (s *SpyClient) RollbackTransaction(ctx context.Context, tx string) error {
	return s.record(call{Method: "RollbackTransaction", Tx: tx})
}

func (s *SpyClient) CreateResource(ctx context.Context, uri string, content []byte, headers core.Headers, tx string, checksum string) (string, error) {
	if err := s.record(call{Method: "CreateResource", URI: uri, Content: string(content), Headers: headers, Tx: tx, Checksum: checksum}); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.minted++
	n := s.minted
	s.mu.Unlock()

	parent := uri
	if parent == "" {
		parent = spyRoot
		if tx != "" {
			parent += "/" + tx
		}
	}
	return fmt.Sprintf("%s/r%d", strings.TrimRight(parent, "/"), n), nil
}

func (s *SpyClient) ModifyResource(ctx context.Context, uri string, update string, headers core.Headers, tx string) error {
	return s.record(call{Method: "ModifyResource", URI: uri, Content: update, Headers: headers, Tx: tx})
}

func (s *SpyClient) GetGraph(ctx context.Context, uri string, headers core.Headers, tx string) (core.Graph, error) {
	if err := s.record(call{Method: "GetGraph", URI: uri, Headers: headers, Tx: tx}); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.graphs[uri]; ok {
		return g, nil
	}
	return &spyGraph{}, nil
}

// WithContainer registers a container node in the graph of parent.
func (s *SpyClient) WithContainer(parent, uri, kind, relation string) *SpyClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[parent]
	if !ok {
		g = &spyGraph{}
		s.graphs[parent] = g
	}
	g.nodes = append(g.nodes, spyNode{uri: uri, kind: kind, relation: relation})
	return s
}

type spyNode struct {
	uri      string
	kind     string
	relation string
}

func (n spyNode) URI() string { return n.uri }

func (n spyNode) Get(predicate string) string {
	if predicate == "http://www.w3.org/ns/ldp#hasMemberRelation" {
		return n.relation
	}
	return ""
}

type spyGraph struct {
	nodes []spyNode
}

func (g *spyGraph) AllOfType(typeURI string) []core.GraphResource {
	var out []core.GraphResource
	for _, n := range g.nodes {
		if n.kind == typeURI {
			out = append(out, n)
		}
	}
	return out
}

var _ core.RepositoryClient = (*SpyClient)(nil)
