// Package manifest describes a batch of PCDM resources in YAML and composes
// them into a repository inside a single transaction.
//
// A manifest names collections and objects by local ids, lists the files of
// each object as glob patterns over a source filesystem, and links members
// by id:
//
//	collections:
//	  - id: letters
//	    title: Letters 1890-1910
//	    members: [letter-1]
//	objects:
//	  - id: letter-1
//	    title: Letter to the editor
//	    files:
//	      - path: letter-1/*.tif
//	        variant: preservation_master
//	      - path: letter-1/mods.xml
//	        variant: non_rdf_descriptive_metadata
//	        conforms_to: http://www.loc.gov/mods/v3
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/porkpie/pkg/core"
)

// ErrInvalidManifest is returned for manifests that cannot be applied.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a batch of resources to compose.
type Manifest struct {
	Collections []Resource `yaml:"collections"`
	Objects     []Resource `yaml:"objects"`
}

// Resource is a collection or object entry.
type Resource struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Members     []string `yaml:"members,omitempty"`
	Files       []File   `yaml:"files,omitempty"`
}

// File selects source files to attach to an object.
type File struct {
	// Path is a doublestar pattern over the source filesystem.
	Path       string           `yaml:"path"`
	Variant    core.FileVariant `yaml:"variant"`
	MimeType   string           `yaml:"mime_type,omitempty"`
	ConformsTo string           `yaml:"conforms_to,omitempty"`
}

// Parse decodes and validates a YAML manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Validate checks ids are unique and present, members reference known ids,
// collections carry no files and every file pattern is well formed.
func (m *Manifest) Validate() error {
	ids := make(map[string]bool)
	check := func(kind string, r Resource) error {
		if r.ID == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidManifest, kind)
		}
		if ids[r.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidManifest, r.ID)
		}
		ids[r.ID] = true
		return nil
	}

	for _, c := range m.Collections {
		if err := check("collection", c); err != nil {
			return err
		}
		if len(c.Files) > 0 {
			return fmt.Errorf("%w: collection %q cannot have files", ErrInvalidManifest, c.ID)
		}
	}
	for _, o := range m.Objects {
		if err := check("object", o); err != nil {
			return err
		}
		for _, f := range o.Files {
			if f.Path == "" || !doublestar.ValidatePattern(f.Path) {
				return fmt.Errorf("%w: object %q has invalid file pattern %q", ErrInvalidManifest, o.ID, f.Path)
			}
		}
	}

	for _, r := range m.resources() {
		for _, member := range r.Members {
			if !ids[member] {
				return fmt.Errorf("%w: %q lists unknown member %q", ErrInvalidManifest, r.ID, member)
			}
			if member == r.ID {
				return fmt.Errorf("%w: %q cannot be a member of itself", ErrInvalidManifest, r.ID)
			}
		}
	}
	return nil
}

func (m *Manifest) resources() []Resource {
	out := make([]Resource, 0, len(m.Collections)+len(m.Objects))
	out = append(out, m.Collections...)
	return append(out, m.Objects...)
}
