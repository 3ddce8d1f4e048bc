// providers.go
//
// Image provider selection for the serve command.
// Responsibilities:
//   - Map IMAGE_PROVIDER (openai | http | placeholder) to a generate.Provider.
//   - Wrap the chosen provider so every call is traced.

package main

import (
	"fmt"

	"github.com/robalobadob/imagematch/internal/config"
	"github.com/robalobadob/imagematch/internal/generate"
	"github.com/robalobadob/imagematch/internal/generate/openai"
	"github.com/robalobadob/imagematch/internal/generate/placeholder"
	"github.com/robalobadob/imagematch/internal/generate/upstream"
)

// newProvider builds the configured image provider, wrapped for tracing.
func newProvider(cfg config.Config) (generate.Provider, string, error) {
	var p generate.Provider
	switch cfg.ImageProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, "", generate.ErrMissingAPIKey
		}
		p = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ImageModel, cfg.ImageSize, cfg.GenerateTimeout)
	case "http":
		p = upstream.New(cfg.UpstreamURL, cfg.GenerateTimeout)
	case "placeholder", "":
		p = placeholder.New()
		cfg.ImageProvider = "placeholder"
	default:
		return nil, "", fmt.Errorf("unknown image provider %q", cfg.ImageProvider)
	}
	return generate.Traced(cfg.ImageProvider, p), cfg.ImageProvider, nil
}
