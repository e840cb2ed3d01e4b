package platform

import (
	"log/slog"

	"github.com/aretw0/porkpie/pkg/core"
)

// options holds the internal configuration for a Porkpie composer.
type options struct {
	client          core.RepositoryClient
	logger          *slog.Logger
	adapter         string
	baseURL         string
	prefer          string
	binaryChecksums bool
}

// Option defines a functional option for configuring Porkpie.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "memory",
	}
}

// WithLogger sets the logger shared by the composer and the repository adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClient injects a repository client (e.g. an HTTP client for a live
// Fedora server, or a test double). If provided, the adapter is skipped.
func WithClient(client core.RepositoryClient) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithAdapter selects the repository adapter by name. Defaults to "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithBaseURL sets the root container URI used by the adapter.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithPrefer overrides the Prefer header sent when looking up membership
// containers. The default embeds child resources.
func WithPrefer(prefer string) Option {
	return func(o *options) {
		o.prefer = prefer
	}
}

// WithBinaryChecksums makes the composer send a SHA-1 for every file whose
// caller supplied none.
func WithBinaryChecksums(enabled bool) Option {
	return func(o *options) {
		o.binaryChecksums = enabled
	}
}
