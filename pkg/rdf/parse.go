package rdf

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	rdfgo "github.com/geoknoesis/rdf-go"
)

// ParseTurtle decodes a Turtle document. Relative references, "<>" included,
// resolve against base.
func ParseTurtle(base, src string) ([]Triple, error) {
	if err := ValidateIRI(base); err != nil {
		return nil, err
	}
	return decode(base, "@base <"+base+"> .\n"+src)
}

var (
	insertData   = regexp.MustCompile(`(?is)^(.*?)\bINSERT\s+DATA\s*\{`)
	sparqlPrefix = regexp.MustCompile(`(?im)^\s*PREFIX\s+([A-Za-z][\w.-]*)?:\s*(<[^>]*>)\s*$`)
)

// ParseInsertData decodes a SPARQL update made of a prologue and a single
// INSERT DATA block and returns the inserted triples.
func ParseInsertData(base, src string) ([]Triple, error) {
	if err := ValidateIRI(base); err != nil {
		return nil, err
	}
	m := insertData.FindStringSubmatchIndex(src)
	if m == nil {
		return nil, fmt.Errorf("%w: expected INSERT DATA", ErrSyntax)
	}
	prologue := src[m[2]:m[3]]
	rest := src[m[1]:]

	end := strings.LastIndex(rest, "}")
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated INSERT DATA block", ErrSyntax)
	}
	if trailing := strings.TrimSpace(rest[end+1:]); trailing != "" && trailing != ";" {
		return nil, fmt.Errorf("%w: trailing content after INSERT DATA", ErrSyntax)
	}
	body := strings.TrimSpace(rest[:end])
	if body != "" && !strings.HasSuffix(body, ".") {
		body += " ."
	}

	prologue = sparqlPrefix.ReplaceAllString(prologue, "@prefix $1: $2 .")
	return decode(base, "@base <"+base+"> .\n"+prologue+"\n"+body+"\n")
}

func decode(base, src string) ([]Triple, error) {
	dec, err := rdfgo.NewDecoder(strings.NewReader(src), rdfgo.FormatTurtle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	defer dec.Close()

	var out []Triple
	for {
		q, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		s, err := fromTerm(base, q.S)
		if err != nil {
			return nil, err
		}
		p, err := fromTerm(base, q.P)
		if err != nil {
			return nil, err
		}
		o, err := fromTerm(base, q.O)
		if err != nil {
			return nil, err
		}
		out = append(out, Triple{Subject: s, Predicate: p, Object: o})
	}
}

func fromTerm(base string, t rdfgo.Term) (Term, error) {
	switch v := t.(type) {
	case rdfgo.IRI:
		return IRI(resolve(base, v.Value)), nil
	case rdfgo.BlankNode:
		return Blank(v.ID), nil
	case rdfgo.Literal:
		return Term{Kind: KindLiteral, Value: v.Lexical, Datatype: v.Datatype.Value, Lang: v.Lang}, nil
	}
	return Term{}, fmt.Errorf("%w: unsupported term %v", ErrSyntax, t)
}

// resolve makes iri absolute against base when the decoder left it relative.
func resolve(base, iri string) string {
	if iri == "" {
		return base
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	b, err := url.Parse(base)
	if err != nil {
		return iri
	}
	return b.ResolveReference(ref).String()
}
