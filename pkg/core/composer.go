package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/porkpie/pkg/vocab"
)

// Config holds the composer settings.
type Config struct {
	Logger *slog.Logger
	// Prefer is sent when fetching a parent graph to find its containers.
	// Empty means vocab.EmbedResources.
	Prefer string
	// BinaryChecksums computes a SHA-1 for file content when the caller
	// supplies none.
	BinaryChecksums bool
}

// Composer assembles PCDM resources out of repository calls. Each composing
// call either completes as a whole or leaves nothing behind.
type Composer struct {
	client  RepositoryClient
	scope   *Scope
	locator *Locator
	logger  *slog.Logger
	config  Config
}

// NewComposer creates a Composer over client.
func NewComposer(client RepositoryClient, config Config) *Composer {
	logger := config.Logger
	if logger == nil {
		logger = discardLogger()
	}
	return &Composer{
		client:  client,
		scope:   NewScope(client, logger),
		locator: NewLocator(client, config.Prefer),
		logger:  logger,
		config:  config,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Locator exposes the container lookup used by the composer.
func (c *Composer) Locator() *Locator {
	return c.locator
}

// CreateRequest describes a Collection or Object to create.
type CreateRequest struct {
	// URI of the container to create the resource in. Empty means the
	// repository root.
	URI     string
	Content []byte
	Headers Headers
	// Transaction to participate in. Empty opens (and closes) a new one.
	Transaction string
	Checksum    string
}

// CreateCollection creates a pcdm:Collection and its members container.
// Empty content is replaced by a minimal Turtle description.
func (c *Composer) CreateCollection(ctx context.Context, req CreateRequest) (string, error) {
	return c.createModel(ctx, "create collection", vocab.Collection, req, false)
}

// CreateObject creates a pcdm:Object with a members container and a files
// container.
func (c *Composer) CreateObject(ctx context.Context, req CreateRequest) (string, error) {
	return c.createModel(ctx, "create object", vocab.Object, req, true)
}

func (c *Composer) createModel(ctx context.Context, op, modelType string, req CreateRequest, withFiles bool) (string, error) {
	return c.scope.Run(ctx, op, req.Transaction, func(ctx context.Context, tx string) (string, error) {
		content, headers, checksum := req.Content, req.Headers.Clone(), req.Checksum
		if len(content) == 0 {
			doc, err := modelDocument(modelType)
			if err != nil {
				return "", fmt.Errorf("%w: %w", ErrValidation, err)
			}
			content = []byte(doc)
			headers[HeaderContentType] = MediaTurtle
			checksum = Checksum(content)
		}

		uri, err := c.client.CreateResource(ctx, req.URI, content, headers, tx, checksum)
		if err != nil {
			return "", fmt.Errorf("create resource: %w", err)
		}
		c.logger.Debug("primary resource created", "op", op, "uri", uri)

		members, err := c.createContainer(ctx, uri, tx, membersContainerDocument)
		if err != nil {
			return "", fmt.Errorf("create members container: %w", err)
		}
		c.logger.Debug("members container created", "op", op, "uri", members)

		if withFiles {
			files, err := c.createContainer(ctx, uri, tx, filesContainerDocument)
			if err != nil {
				return "", fmt.Errorf("create files container: %w", err)
			}
			c.logger.Debug("files container created", "op", op, "uri", files)
		}
		return uri, nil
	})
}

func (c *Composer) createContainer(ctx context.Context, parent, tx string, describe func(string) (string, error)) (string, error) {
	doc, err := describe(parent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	content := []byte(doc)
	return c.client.CreateResource(ctx, parent, content, Headers{HeaderContentType: MediaTurtle}, tx, Checksum(content))
}

// AddMember links child into parent's members container through an ORE
// proxy and returns the proxy URI.
//
// AddMember never opens a transaction: without tx each repository call
// stands on its own. It returns ErrContainerNotFound when parent has no
// members container. Duplicate links are not detected.
func (c *Composer) AddMember(ctx context.Context, parent, child, tx string) (string, error) {
	container, err := c.locator.MembersContainer(ctx, parent, tx)
	if err != nil {
		return "", fmt.Errorf("add member: %w", err)
	}

	doc, err := proxyDocument(parent, child)
	if err != nil {
		return "", fmt.Errorf("add member: %w: %w", ErrValidation, err)
	}
	content := []byte(doc)

	uri, err := c.client.CreateResource(ctx, container, content, Headers{HeaderContentType: MediaTurtle}, tx, Checksum(content))
	if err != nil {
		return "", fmt.Errorf("add member: %w", err)
	}
	c.logger.Debug("member linked", "parent", parent, "child", child, "proxy", uri)
	return uri, nil
}

// FileRequest describes a binary to attach to an Object.
type FileRequest struct {
	Parent   string
	Content  []byte
	MimeType string
	// Variant selects the use type asserted on the file.
	Variant FileVariant
	// ConformsTo, when set, is asserted as a dcterms:conformsTo literal.
	ConformsTo string
	// Update replaces the generated metadata update entirely.
	Update      string
	Checksum    string
	Transaction string
}

// AddFile creates a binary in parent's files container and describes it on
// its metadata resource. It returns ErrContainerNotFound, without creating
// anything, when parent has no files container.
func (c *Composer) AddFile(ctx context.Context, req FileRequest) (string, error) {
	op := "add file"
	if req.Variant != VariantNone {
		op = "add " + req.Variant.String() + " file"
	}

	return c.scope.Run(ctx, op, req.Transaction, func(ctx context.Context, tx string) (string, error) {
		container, err := c.locator.FilesContainer(ctx, req.Parent, tx)
		if err != nil {
			return "", err
		}

		update := req.Update
		if update == "" {
			if update, err = fileUpdate(req.Variant, req.ConformsTo); err != nil {
				return "", fmt.Errorf("%w: %w", ErrValidation, err)
			}
		}

		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = MediaOctetStream
		}
		checksum := req.Checksum
		if checksum == "" && c.config.BinaryChecksums {
			checksum = Checksum(req.Content)
		}

		uri, err := c.client.CreateResource(ctx, container, req.Content, Headers{HeaderContentType: mimeType}, tx, checksum)
		if err != nil {
			return "", fmt.Errorf("create binary: %w", err)
		}
		c.logger.Debug("binary created", "op", op, "uri", uri, "bytes", len(req.Content))

		metadata := uri + vocab.MetadataSuffix
		if err := c.client.ModifyResource(ctx, metadata, update, Headers{HeaderContentType: MediaSPARQLUpdate}, tx); err != nil {
			return "", fmt.Errorf("describe binary: %w", err)
		}
		return uri, nil
	})
}

// AddVariantFile attaches content to parent as a file of the given variant.
func (c *Composer) AddVariantFile(ctx context.Context, variant FileVariant, parent string, content []byte, mimeType, tx string) (string, error) {
	return c.AddFile(ctx, FileRequest{
		Parent:      parent,
		Content:     content,
		MimeType:    mimeType,
		Variant:     variant,
		Transaction: tx,
	})
}

// AddNonRdfDescriptiveMetadata attaches a metadata record (MODS, EAD, ...)
// to parent, asserting the standard it conforms to. An empty standard is
// rejected with ErrValidation before any repository call.
func (c *Composer) AddNonRdfDescriptiveMetadata(ctx context.Context, parent string, content []byte, mimeType, standard, tx string) (string, error) {
	if strings.TrimSpace(standard) == "" {
		return "", fmt.Errorf("add non-RDF descriptive metadata: %w: empty standard", ErrValidation)
	}
	return c.AddFile(ctx, FileRequest{
		Parent:      parent,
		Content:     content,
		MimeType:    mimeType,
		Variant:     VariantNonRdfDescriptiveMetadata,
		ConformsTo:  standard,
		Transaction: tx,
	})
}

// WithTransaction runs fn inside a new transaction, committing when fn
// returns nil and rolling back otherwise. Composing calls made by fn should
// pass tx along so they participate instead of opening their own.
func (c *Composer) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx string) error) error {
	_, err := c.scope.Run(ctx, "transaction", "", func(ctx context.Context, tx string) (string, error) {
		return "", fn(ctx, tx)
	})
	return err
}
