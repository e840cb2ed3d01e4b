package porkpie

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/aretw0/porkpie/internal/platform"
	"github.com/aretw0/porkpie/pkg/adapters/hotfolder"
	"github.com/aretw0/porkpie/pkg/adapters/memory"
	"github.com/aretw0/porkpie/pkg/core"
	"github.com/aretw0/porkpie/pkg/manifest"
)

// --- Types ---

// Composer is a public alias for the PCDM resource composer.
type Composer = core.Composer

// RepositoryClient is a public alias for the repository port.
type RepositoryClient = core.RepositoryClient

// FileVariant is a public alias for the role of a file within an Object.
type FileVariant = core.FileVariant

// Manifest is a public alias for a batch description.
type Manifest = manifest.Manifest

// --- Configuration ---

// Option defines a functional option for configuring Porkpie.
type Option = platform.Option

// Config is the YAML configuration file of the command line tool.
type Config = platform.Config

// WithLogger sets the logger for the composer and adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithClient injects a repository client.
func WithClient(client RepositoryClient) Option {
	return platform.WithClient(client)
}

// WithAdapter selects the repository adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBaseURL sets the root container URI.
func WithBaseURL(url string) Option {
	return platform.WithBaseURL(url)
}

// WithPrefer overrides the Prefer header of container lookups.
func WithPrefer(prefer string) Option {
	return platform.WithPrefer(prefer)
}

// WithBinaryChecksums computes SHA-1 checksums for file content.
func WithBinaryChecksums(enabled bool) Option {
	return platform.WithBinaryChecksums(enabled)
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return platform.LoadConfig(path)
}

// FindConfig looks upwards from startDir for a configuration file.
func FindConfig(startDir string) (string, error) {
	return platform.FindConfig(startDir)
}

// --- Factory ---

// New creates a Composer.
func New(opts ...Option) (*Composer, error) {
	return platform.New(opts...)
}

// NewMemoryRepository creates an in-memory repository rooted at baseURL.
func NewMemoryRepository(baseURL string, logger *slog.Logger) *memory.Repository {
	return memory.NewRepository(memory.Config{BaseURL: baseURL, Logger: logger})
}

// --- Operations ---

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	return manifest.Load(path)
}

// ApplyManifest composes m in one transaction, reading files from fsys.
func ApplyManifest(ctx context.Context, c *Composer, m *Manifest, fsys fs.FS) (*manifest.Result, error) {
	return manifest.Apply(ctx, c, m, fsys)
}

// NewHotFolder creates a drop folder that attaches new files through c.
func NewHotFolder(c *Composer, config hotfolder.Config) (*hotfolder.Folder, error) {
	return hotfolder.New(c, config)
}

// StripTransaction removes the transaction segment of a URI.
func StripTransaction(uri string) string {
	return core.StripTransaction(uri)
}
