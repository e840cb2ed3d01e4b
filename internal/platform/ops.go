package platform

import (
	"fmt"

	"github.com/aretw0/porkpie/pkg/adapters/memory"
	"github.com/aretw0/porkpie/pkg/core"
)

// Init returns the repository client the options describe: the injected one
// when present, otherwise a new instance of the selected adapter.
func Init(opts ...Option) (core.RepositoryClient, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initClient(o)
}

func initClient(o *options) (core.RepositoryClient, error) {
	if o.client != nil {
		return o.client, nil
	}

	switch o.adapter {
	case "memory":
		return memory.NewRepository(memory.Config{
			BaseURL: o.baseURL,
			Logger:  o.logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}
