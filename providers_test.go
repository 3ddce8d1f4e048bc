package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/robalobadob/imagematch/internal/config"
	"github.com/robalobadob/imagematch/internal/generate"
)

func TestNewProvider(t *testing.T) {
	cases := []struct {
		cfg     config.Config
		name    string
		wantErr bool
	}{
		{config.Config{ImageProvider: "placeholder"}, "placeholder", false},
		{config.Config{}, "placeholder", false},
		{config.Config{ImageProvider: "openai", OpenAIAPIKey: "sk-test"}, "openai", false},
		{config.Config{ImageProvider: "http", UpstreamURL: "http://localhost:9/api/generate"}, "http", false},
		{config.Config{ImageProvider: "openai"}, "", true},
		{config.Config{ImageProvider: "dream"}, "", true},
	}
	for _, tc := range cases {
		p, name, err := newProvider(tc.cfg)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%+v: expected error", tc.cfg)
			}
			continue
		}
		if err != nil || p == nil || name != tc.name {
			t.Fatalf("%+v: got %v %q %v", tc.cfg, p, name, err)
		}
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	_, _, err := newProvider(config.Config{ImageProvider: "openai"})
	if !errors.Is(err, generate.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestPlaceholderEndToEnd(t *testing.T) {
	p, _, err := newProvider(config.Config{})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	res, err := p.Generate(context.Background(), "a red square")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(res.ImageURL, "data:image/svg+xml,") {
		t.Fatalf("imageUrl = %q", res.ImageURL)
	}
}
