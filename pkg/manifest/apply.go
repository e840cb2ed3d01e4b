package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"path"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/rdf"
	"github.com/aretw0/porkpie/pkg/vocab"
)

// Composer is the subset of *core.Composer a manifest needs.
type Composer interface {
	CreateCollection(ctx context.Context, req core.CreateRequest) (string, error)
	CreateObject(ctx context.Context, req core.CreateRequest) (string, error)
	AddMember(ctx context.Context, parent, child, tx string) (string, error)
	AddFile(ctx context.Context, req core.FileRequest) (string, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx string) error) error
}

// Step is one repository operation of a plan.
type Step struct {
	Op     string
	ID     string
	Detail string
}

func (s Step) String() string {
	if s.Detail == "" {
		return s.Op + " " + s.ID
	}
	return s.Op + " " + s.ID + " " + s.Detail
}

// ResolvedFile is a source file matched by an object's file pattern.
type ResolvedFile struct {
	ObjectID string
	Path     string
	File     File
}

// Plan lists, in order, the operations Apply performs.
type Plan struct {
	Steps []Step
	Files []ResolvedFile
}

// BuildPlan resolves the file patterns of m against fsys. A pattern that
// matches no file is an error.
func BuildPlan(m *Manifest, fsys fs.FS) (*Plan, error) {
	p := &Plan{}
	for _, c := range m.Collections {
		p.Steps = append(p.Steps, Step{Op: "create-collection", ID: c.ID})
	}
	for _, o := range m.Objects {
		p.Steps = append(p.Steps, Step{Op: "create-object", ID: o.ID})
	}
	for _, o := range m.Objects {
		for _, f := range o.Files {
			matches, err := doublestar.Glob(fsys, f.Path, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("%w: object %q: %w", ErrInvalidManifest, o.ID, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%w: object %q: pattern %q matches no file", ErrInvalidManifest, o.ID, f.Path)
			}
			for _, match := range matches {
				p.Files = append(p.Files, ResolvedFile{ObjectID: o.ID, Path: match, File: f})
				p.Steps = append(p.Steps, Step{Op: "add-file", ID: o.ID, Detail: match + " as " + f.Variant.String()})
			}
		}
	}
	for _, r := range m.resources() {
		for _, member := range r.Members {
			p.Steps = append(p.Steps, Step{Op: "add-member", ID: r.ID, Detail: member})
		}
	}
	return p, nil
}

// Result maps manifest ids to the URIs of the composed resources.
type Result struct {
	Resources map[string]string   `json:"resources"`
	Files     map[string][]string `json:"files"`
	Proxies   int                 `json:"proxies"`
}

// Apply composes m into the repository in one transaction, reading file
// content from fsys. Nothing is left behind when any step fails.
func Apply(ctx context.Context, c Composer, m *Manifest, fsys fs.FS) (*Result, error) {
	plan, err := BuildPlan(m, fsys)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Resources: make(map[string]string),
		Files:     make(map[string][]string),
	}
	err = c.WithTransaction(ctx, func(ctx context.Context, tx string) error {
		create := func(r Resource, modelType string, fn func(context.Context, core.CreateRequest) (string, error)) error {
			req, err := createRequest(r, modelType, tx)
			if err != nil {
				return err
			}
			uri, err := fn(ctx, req)
			if err != nil {
				return fmt.Errorf("create %s: %w", r.ID, err)
			}
			result.Resources[r.ID] = uri
			return nil
		}
		for _, r := range m.Collections {
			if err := create(r, vocab.Collection, c.CreateCollection); err != nil {
				return err
			}
		}
		for _, r := range m.Objects {
			if err := create(r, vocab.Object, c.CreateObject); err != nil {
				return err
			}
		}

		for _, rf := range plan.Files {
			content, err := fs.ReadFile(fsys, rf.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", rf.Path, err)
			}
			mimeType := rf.File.MimeType
			if mimeType == "" {
				mimeType = mime.TypeByExtension(path.Ext(rf.Path))
			}
			uri, err := c.AddFile(ctx, core.FileRequest{
				Parent:      result.Resources[rf.ObjectID],
				Content:     content,
				MimeType:    mimeType,
				Variant:     rf.File.Variant,
				ConformsTo:  rf.File.ConformsTo,
				Transaction: tx,
			})
			if err != nil {
				return fmt.Errorf("attach %s to %s: %w", rf.Path, rf.ObjectID, err)
			}
			result.Files[rf.ObjectID] = append(result.Files[rf.ObjectID], uri)
		}

		for _, r := range m.resources() {
			for _, member := range r.Members {
				if _, err := c.AddMember(ctx, result.Resources[r.ID], result.Resources[member], tx); err != nil {
					return fmt.Errorf("link %s into %s: %w", member, r.ID, err)
				}
				result.Proxies++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for id, uri := range result.Resources {
		result.Resources[id] = core.StripTransaction(uri)
	}
	for id, uris := range result.Files {
		for i, uri := range uris {
			uris[i] = core.StripTransaction(uri)
		}
		result.Files[id] = uris
	}
	return result, nil
}

// createRequest describes r in Turtle when it has a title or description;
// otherwise the composer's default description is used.
func createRequest(r Resource, modelType, tx string) (core.CreateRequest, error) {
	req := core.CreateRequest{Transaction: tx}
	if r.Title == "" && r.Description == "" {
		return req, nil
	}

	doc := rdf.NewDocument().
		Prefix("pcdm", vocab.PCDM).
		Prefix("dc", vocab.DCTerms).
		Add(rdf.Self, rdf.IRI(vocab.Type), rdf.IRI(modelType))
	if r.Title != "" {
		doc.Add(rdf.Self, rdf.IRI(vocab.Title), rdf.Literal(r.Title))
	}
	if r.Description != "" {
		doc.Add(rdf.Self, rdf.IRI(vocab.Description), rdf.Literal(r.Description))
	}
	turtle, err := doc.Turtle()
	if err != nil {
		return req, fmt.Errorf("describe %s: %w", r.ID, err)
	}

	req.Content = []byte(turtle)
	req.Headers = core.Headers{core.HeaderContentType: core.MediaTurtle}
	req.Checksum = core.Checksum(req.Content)
	return req, nil
}
