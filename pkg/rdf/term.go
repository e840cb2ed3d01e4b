// Package rdf provides a small RDF term model with escaping serializers for
// Turtle documents and SPARQL INSERT DATA updates. Parsing is delegated to
// the rdf-go Turtle decoder.
//
// Every identifier and literal goes through validation or escaping before it
// reaches the output text, so caller supplied values cannot break out of the
// statement they are placed in.
package rdf

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidIRI is returned when an IRI contains characters that are not
	// allowed inside an IRIREF.
	ErrInvalidIRI = errors.New("rdf: invalid IRI")
	// ErrInvalidLiteral is returned for literals that are not valid UTF-8.
	ErrInvalidLiteral = errors.New("rdf: invalid literal")
	// ErrSyntax is returned by the parser on malformed input.
	ErrSyntax = errors.New("rdf: syntax error")
)

// Kind distinguishes IRIs, literals and blank nodes.
type Kind int

const (
	KindIRI Kind = iota
	KindLiteral
	KindBlank
)

// Term is an RDF node. An IRI term with an empty value is the relative
// reference "<>", i.e. the resource the document is sent to.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// Self is the relative "<>" reference.
var Self = Term{Kind: KindIRI}

// IRI returns an IRI term.
func IRI(v string) Term {
	return Term{Kind: KindIRI, Value: v}
}

// Literal returns a plain string literal.
func Literal(v string) Term {
	return Term{Kind: KindLiteral, Value: v}
}

// Blank returns a blank node labelled id.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: id}
}

// IsSelf reports whether t is the relative "<>" reference.
func (t Term) IsSelf() bool {
	return t.Kind == KindIRI && t.Value == ""
}

// String renders the term in N-Triples form without prefix compaction.
func (t Term) String() string {
	s, err := t.render(nil)
	if err != nil {
		return fmt.Sprintf("<!%s>", err)
	}
	return s
}

func (t Term) render(ns *namespaces) (string, error) {
	switch t.Kind {
	case KindIRI:
		return renderIRI(t.Value, ns)
	case KindBlank:
		if !safeLocal(t.Value) {
			return "", fmt.Errorf("%w: blank node label %q", ErrSyntax, t.Value)
		}
		return "_:" + t.Value, nil
	case KindLiteral:
		if !utf8.ValidString(t.Value) {
			return "", fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidLiteral, t.Value)
		}
		out := `"` + EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			if !validLang(t.Lang) {
				return "", fmt.Errorf("%w: language tag %q", ErrSyntax, t.Lang)
			}
			out += "@" + t.Lang
		case t.Datatype != "":
			dt, err := renderIRI(t.Datatype, ns)
			if err != nil {
				return "", err
			}
			out += "^^" + dt
		}
		return out, nil
	}
	return "", fmt.Errorf("%w: unknown term kind %d", ErrSyntax, t.Kind)
}

// Triple is a single statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// ValidateIRI rejects invalid UTF-8 and characters that cannot appear
// inside <...>.
func ValidateIRI(iri string) error {
	if !utf8.ValidString(iri) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidIRI, iri)
	}
	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return fmt.Errorf("%w: %q", ErrInvalidIRI, iri)
		}
	}
	return nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// EscapeLiteral escapes s for use between double quotes in Turtle or SPARQL.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

func renderIRI(iri string, ns *namespaces) (string, error) {
	if err := ValidateIRI(iri); err != nil {
		return "", err
	}
	if ns != nil {
		if pname, ok := ns.compact(iri); ok {
			return pname, nil
		}
	}
	return "<" + iri + ">", nil
}

func validLang(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if !(r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
