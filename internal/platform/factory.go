package platform

import (
	"github.com/aretw0/porkpie/pkg/core"
)

// New wires a Composer around the repository client the options select.
//
//	c, err := porkpie.New(porkpie.WithBaseURL("http://localhost:8080/rest"))
func New(opts ...Option) (*core.Composer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	client, err := initClient(o)
	if err != nil {
		return nil, err
	}

	return core.NewComposer(client, core.Config{
		Logger:          o.logger,
		Prefer:          o.prefer,
		BinaryChecksums: o.binaryChecksums,
	}), nil
}
