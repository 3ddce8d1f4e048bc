// internal/generate/openai/openai.go
//
// OpenAI images API provider.
// Responsibilities:
//   - POST /v1/images/generations with model, size and n=1.
//   - Return the hosted url, or a data: URL when the API answers with b64_json.
//   - Surface the API's error message on non-2xx answers.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/robalobadob/imagematch/internal/generate"
)

type Client struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	http    *http.Client
}

func New(apiKey, baseURL, model, size string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if model == "" {
		model = "dall-e-3"
	}
	if size == "" {
		size = "1024x1024"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Size:    size,
		http:    &http.Client{Timeout: timeout},
	}
}

// Generate calls the images API. Models that answer with base64 payloads are
// returned as data: URLs so callers always get something an <img> can show.
func (c *Client) Generate(ctx context.Context, prompt string) (generate.Result, error) {
	if c.APIKey == "" {
		return generate.Result{}, generate.ErrMissingAPIKey
	}
	payload := map[string]any{
		"model":  c.Model,
		"prompt": prompt,
		"n":      1,
		"size":   c.Size,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/images/generations", bytes.NewReader(b))
	if err != nil {
		return generate.Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return generate.Result{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Data []struct {
			URL           string `json:"url"`
			B64JSON       string `json:"b64_json"`
			RevisedPrompt string `json:"revised_prompt"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return generate.Result{}, fmt.Errorf("openai: %s", out.Error.Message)
		}
		return generate.Result{}, fmt.Errorf("openai status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return generate.Result{}, fmt.Errorf("openai: decode: %w", decodeErr)
	}
	if len(out.Data) == 0 {
		return generate.Result{}, errors.New("openai: no images returned")
	}
	d := out.Data[0]
	switch {
	case d.URL != "":
		return generate.Result{ImageURL: d.URL, RevisedPrompt: d.RevisedPrompt}, nil
	case d.B64JSON != "":
		return generate.Result{ImageURL: "data:image/png;base64," + d.B64JSON, RevisedPrompt: d.RevisedPrompt}, nil
	}
	return generate.Result{}, errors.New("openai: image has neither url nor b64_json")
}
