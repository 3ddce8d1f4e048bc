// internal/generate/provider.go
//
// Image generation abstraction.
// Responsibilities:
//   - Provider: one prompt in, one image reference out.
//   - Traced: record each call as a client span with provider name and outcome.

package generate

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingAPIKey is returned by providers that need credentials but have none.
var ErrMissingAPIKey = errors.New("missing image provider API key")

// Result is what a provider hands back for one prompt.
type Result struct {
	ImageURL      string `json:"imageUrl"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

// Provider turns a prompt into an image reference.
type Provider interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (Result, error)

func (f ProviderFunc) Generate(ctx context.Context, prompt string) (Result, error) { return f(ctx, prompt) }

const tracerName = "github.com/robalobadob/imagematch/internal/generate"

type traced struct {
	name string
	next Provider
}

// Traced wraps p so every call is recorded as a span named after the provider.
func Traced(name string, p Provider) Provider {
	return &traced{name: name, next: p}
}

func (t *traced) Generate(ctx context.Context, prompt string) (Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "generate."+t.name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("generate.provider", t.name),
		attribute.Int("generate.prompt_length", len(prompt)),
	)
	res, err := t.next.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Bool("generate.inline", strings.HasPrefix(res.ImageURL, "data:")))
	return res, nil
}
