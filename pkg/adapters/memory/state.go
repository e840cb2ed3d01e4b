package memory

import (
	"fmt"
	"slices"

	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/rdf"
	"github.com/aretw0/porkpie/pkg/vocab"
)

// node is a stored resource, keyed by its canonical URI.
type node struct {
	uri         string
	parent      string
	binary      bool
	contentType string
	content     []byte
	// triples describe the resource. For a binary they are the statements
	// made on its fcr:metadata.
	triples  []rdf.Triple
	children []string
}

func (n *node) clone() *node {
	c := *n
	c.triples = slices.Clone(n.triples)
	c.children = slices.Clone(n.children)
	return &c
}

// state is a full copy of the repository content.
type state struct {
	root  string
	nodes map[string]*node
}

func newState(base string) *state {
	root := &node{uri: base, triples: []rdf.Triple{
		{Subject: rdf.IRI(base), Predicate: rdf.IRI(vocab.Type), Object: rdf.IRI(vocab.BasicContainer)},
	}}
	return &state{root: base, nodes: map[string]*node{base: root}}
}

func (s *state) clone() *state {
	out := &state{root: s.root, nodes: make(map[string]*node, len(s.nodes))}
	for k, n := range s.nodes {
		out.nodes[k] = n.clone()
	}
	return out
}

// transaction holds a private state and the operations that produced it, so
// they can be replayed on the live state at commit.
type transaction struct {
	token   string
	state   *state
	journal []op
}

type op interface {
	apply(st *state) error
	clone() op
}

type createOp struct {
	node *node
}

func (o createOp) apply(st *state) error {
	parent, ok := st.nodes[o.node.parent]
	if !ok {
		return fmt.Errorf("%w: parent %s", core.ErrNotFound, o.node.parent)
	}
	if parent.binary {
		return fmt.Errorf("%w: %s is a binary and cannot have children", core.ErrValidation, parent.uri)
	}
	if _, exists := st.nodes[o.node.uri]; exists {
		return fmt.Errorf("%w: %s already exists", core.ErrValidation, o.node.uri)
	}
	st.nodes[o.node.uri] = o.node.clone()
	parent.children = append(parent.children, o.node.uri)
	return nil
}

func (o createOp) clone() op { return createOp{node: o.node.clone()} }

type modifyOp struct {
	uri     string
	triples []rdf.Triple
}

func (o modifyOp) apply(st *state) error {
	n, ok := st.nodes[o.uri]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, o.uri)
	}
	for _, t := range o.triples {
		if !slices.Contains(n.triples, t) {
			n.triples = append(n.triples, t)
		}
	}
	return nil
}

func (o modifyOp) clone() op { return modifyOp{uri: o.uri, triples: slices.Clone(o.triples)} }

type deleteOp struct {
	uri string
}

func (o deleteOp) apply(st *state) error {
	n, ok := st.nodes[o.uri]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, o.uri)
	}
	if parent, ok := st.nodes[n.parent]; ok {
		parent.children = slices.DeleteFunc(parent.children, func(c string) bool { return c == o.uri })
	}
	st.remove(o.uri)
	return nil
}

func (o deleteOp) clone() op { return o }

// walk visits every node depth first, children in creation order.
func (s *state) walk(fn func(n *node)) {
	var visit func(uri string)
	visit = func(uri string) {
		n, ok := s.nodes[uri]
		if !ok {
			return
		}
		fn(n)
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(s.root)
}

func (s *state) remove(uri string) {
	n, ok := s.nodes[uri]
	if !ok {
		return
	}
	for _, c := range n.children {
		s.remove(c)
	}
	delete(s.nodes, uri)
}
