package core

import (
	"fmt"
	"strings"

	"github.com/aretw0/porkpie/pkg/vocab"
)

// FileVariant tags the role a File plays for its parent Object. It decides
// which use type is asserted on the file's metadata resource.
type FileVariant int

const (
	// VariantNone asserts only pcdm:File.
	VariantNone FileVariant = iota
	VariantPreservationMaster
	VariantThumbnail
	VariantService
	VariantExtractedText
	VariantTranscript
	VariantOriginal
	VariantIntermediate
	VariantNonRdfDescriptiveMetadata
)

var variantNames = map[FileVariant]string{
	VariantNone:                      "none",
	VariantPreservationMaster:        "preservation_master",
	VariantThumbnail:                 "thumbnail",
	VariantService:                   "service",
	VariantExtractedText:             "extracted_text",
	VariantTranscript:                "transcript",
	VariantOriginal:                  "original",
	VariantIntermediate:              "intermediate",
	VariantNonRdfDescriptiveMetadata: "non_rdf_descriptive_metadata",
}

var variantTypes = map[FileVariant]string{
	VariantPreservationMaster: vocab.PreservationMasterFile,
	VariantThumbnail:          vocab.ThumbnailImage,
	VariantService:            vocab.ServiceFile,
	VariantExtractedText:      vocab.ExtractedText,
	VariantTranscript:         vocab.Transcript,
	VariantOriginal:           vocab.OriginalFile,
	VariantIntermediate:       vocab.IntermediateFile,
}

// String returns the snake_case name used in manifests and flags.
func (v FileVariant) String() string {
	if n, ok := variantNames[v]; ok {
		return n
	}
	return fmt.Sprintf("FileVariant(%d)", int(v))
}

// UseType returns the pcdmuse type IRI asserted for v. Variants described
// by a different statement (none, non-RDF descriptive metadata) return "".
func (v FileVariant) UseType() string {
	return variantTypes[v]
}

// ParseFileVariant accepts the names returned by String, case-insensitively
// and with '-' in place of '_'.
func ParseFileVariant(s string) (FileVariant, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if norm == "" {
		return VariantNone, nil
	}
	for v, n := range variantNames {
		if n == norm {
			return v, nil
		}
	}
	return VariantNone, fmt.Errorf("unknown file variant %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v FileVariant) MarshalText() ([]byte, error) {
	if _, ok := variantNames[v]; !ok {
		return nil, fmt.Errorf("unknown file variant %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *FileVariant) UnmarshalText(b []byte) error {
	parsed, err := ParseFileVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
