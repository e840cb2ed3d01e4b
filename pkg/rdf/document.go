package rdf

import (
	"strings"
)

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

type namespace struct {
	label string
	iri   string
}

type namespaces struct {
	list []namespace
}

func (n *namespaces) add(label, iri string) {
	for i, ns := range n.list {
		if ns.label == label {
			n.list[i].iri = iri
			return
		}
	}
	n.list = append(n.list, namespace{label: label, iri: iri})
}

// compact returns a prefixed name for iri when one of the declared
// namespaces matches and the remainder is a safe local name.
func (n *namespaces) compact(iri string) (string, bool) {
	best := -1
	for i, ns := range n.list {
		if strings.HasPrefix(iri, ns.iri) && (best < 0 || len(ns.iri) > len(n.list[best].iri)) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	local := iri[len(n.list[best].iri):]
	if !safeLocal(local) {
		return "", false
	}
	return n.list[best].label + ":" + local, true
}

func (n *namespaces) lookup(label string) (string, bool) {
	for _, ns := range n.list {
		if ns.label == label {
			return ns.iri, true
		}
	}
	return "", false
}

func safeLocal(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9' || r == '-') && i > 0:
		default:
			return false
		}
	}
	return true
}

// Document accumulates prefixes and triples and renders them as Turtle or as
// a SPARQL INSERT DATA update.
type Document struct {
	ns      namespaces
	triples []Triple
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Prefix declares a namespace label. Declaration order is kept in the output.
func (d *Document) Prefix(label, iri string) *Document {
	d.ns.add(label, iri)
	return d
}

// Add appends a statement.
func (d *Document) Add(s, p, o Term) *Document {
	d.triples = append(d.triples, Triple{Subject: s, Predicate: p, Object: o})
	return d
}

// Turtle renders the document, grouping consecutive statements about the same
// subject with ';'.
func (d *Document) Turtle() (string, error) {
	var b strings.Builder
	for _, ns := range d.ns.list {
		if err := ValidateIRI(ns.iri); err != nil {
			return "", err
		}
		b.WriteString("@prefix " + ns.label + ": <" + ns.iri + "> .\n")
	}
	if len(d.ns.list) > 0 {
		b.WriteString("\n")
	}

	for i, t := range d.triples {
		sameAsPrev := i > 0 && d.triples[i-1].Subject == t.Subject
		sameAsNext := i+1 < len(d.triples) && d.triples[i+1].Subject == t.Subject

		if !sameAsPrev {
			s, err := t.Subject.render(&d.ns)
			if err != nil {
				return "", err
			}
			b.WriteString(s + " ")
		} else {
			b.WriteString("    ")
		}

		po, err := d.predicateObject(t)
		if err != nil {
			return "", err
		}
		b.WriteString(po)

		if sameAsNext {
			b.WriteString(" ;\n")
		} else {
			b.WriteString(" .\n")
		}
	}
	return b.String(), nil
}

// InsertData renders the document as a SPARQL 1.1 INSERT DATA update.
func (d *Document) InsertData() (string, error) {
	var b strings.Builder
	for _, ns := range d.ns.list {
		if err := ValidateIRI(ns.iri); err != nil {
			return "", err
		}
		b.WriteString("PREFIX " + ns.label + ": <" + ns.iri + ">\n")
	}
	if len(d.ns.list) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("INSERT DATA {\n")
	for _, t := range d.triples {
		s, err := t.Subject.render(&d.ns)
		if err != nil {
			return "", err
		}
		po, err := d.predicateObject(t)
		if err != nil {
			return "", err
		}
		b.WriteString("  " + s + " " + po + " .\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func (d *Document) predicateObject(t Triple) (string, error) {
	var p string
	if t.Predicate.Kind == KindIRI && t.Predicate.Value == rdfType {
		p = "a"
	} else {
		var err error
		if p, err = t.Predicate.render(&d.ns); err != nil {
			return "", err
		}
	}
	o, err := t.Object.render(&d.ns)
	if err != nil {
		return "", err
	}
	return p + " " + o, nil
}
