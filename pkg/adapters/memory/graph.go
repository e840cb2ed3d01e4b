package memory

import (
	"slices"

	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/rdf"
	"github.com/aretw0/porkpie/pkg/vocab"
)

// Graph is the representation returned by GetGraph. Subjects keep the order
// in which they were described.
type Graph struct {
	render    func(string) string
	order     []string
	resources map[string]*Resource
}

func newGraph(render func(string) string) *Graph {
	return &Graph{render: render, resources: make(map[string]*Resource)}
}

// Resource is a subject of a Graph.
type Resource struct {
	uri   string
	props map[string][]string
}

// URI returns the subject URI.
func (r *Resource) URI() string { return r.uri }

// Get returns the first value of predicate.
func (r *Resource) Get(predicate string) string {
	if v := r.props[predicate]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Values returns every value of predicate.
func (r *Resource) Values(predicate string) []string {
	return slices.Clone(r.props[predicate])
}

// AllOfType implements core.Graph.
func (g *Graph) AllOfType(typeURI string) []core.GraphResource {
	var out []core.GraphResource
	for _, s := range g.order {
		res := g.resources[s]
		if slices.Contains(res.props[vocab.Type], typeURI) {
			out = append(out, res)
		}
	}
	return out
}

// Resource returns the subject uri, if described.
func (g *Graph) Resource(uri string) (*Resource, bool) {
	res, ok := g.resources[uri]
	return res, ok
}

// Subjects returns the described subjects in order.
func (g *Graph) Subjects() []string {
	return slices.Clone(g.order)
}

func (g *Graph) add(subject, predicate, object string) {
	res, ok := g.resources[subject]
	if !ok {
		res = &Resource{uri: subject, props: make(map[string][]string)}
		g.resources[subject] = res
		g.order = append(g.order, subject)
	}
	if slices.Contains(res.props[predicate], object) {
		return
	}
	res.props[predicate] = append(res.props[predicate], object)
}

// describe adds the stored triples of n, its server managed triples and the
// membership triples of every container pointing at it.
func (g *Graph) describe(st *state, n *node) {
	subject := g.render(n.uri)
	if n.binary {
		g.add(subject, vocab.Type, vocab.NonRDFSource)
	}
	for _, t := range n.triples {
		g.add(g.term(t.Subject), t.Predicate.Value, g.term(t.Object))
	}
	for _, c := range n.children {
		g.add(subject, vocab.Contains, g.render(c))
	}

	st.walk(func(c *node) {
		if first(c, vocab.MembershipResource) != n.uri {
			return
		}
		relation := first(c, vocab.HasMemberRelation)
		if relation == "" {
			return
		}
		switch {
		case hasType(c, vocab.DirectContainer):
			for _, child := range c.children {
				g.add(subject, relation, g.render(child))
			}
		case hasType(c, vocab.IndirectContainer):
			inserted := first(c, vocab.InsertedContentRelation)
			for _, child := range c.children {
				member, ok := st.nodes[child]
				if !ok {
					continue
				}
				if inserted == "" || inserted == vocab.MemberSubject {
					g.add(subject, relation, g.render(child))
					continue
				}
				for _, t := range member.triples {
					if t.Subject.Value == member.uri && t.Predicate.Value == inserted {
						g.add(subject, relation, g.render(t.Object.Value))
					}
				}
			}
		}
	})
}

// term renders IRIs into the graph's transaction and labels blank nodes.
func (g *Graph) term(t rdf.Term) string {
	switch t.Kind {
	case rdf.KindIRI:
		return g.render(t.Value)
	case rdf.KindBlank:
		return "_:" + t.Value
	}
	return t.Value
}

func first(n *node, predicate string) string {
	for _, t := range n.triples {
		if t.Subject.Value == n.uri && t.Predicate.Value == predicate {
			return t.Object.Value
		}
	}
	return ""
}

func hasType(n *node, typeURI string) bool {
	for _, t := range n.triples {
		if t.Subject.Value == n.uri && t.Predicate.Value == vocab.Type && t.Object.Value == typeURI {
			return true
		}
	}
	return false
}

var _ core.Graph = (*Graph)(nil)
