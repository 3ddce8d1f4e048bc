// internal/play/api.go
//
// Client for the server's non-generation endpoints.
// Responsibilities:
//   - POST /auth/anon for a client token.
//   - GET /api/presets to play with the server's reference set.

package play

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/robalobadob/imagematch/internal/presets"
)

// api talks to the non-generation endpoints of an imagematch server.
type api struct {
	base string
	http *http.Client
}

func newAPI(base string) *api {
	return &api{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: 10 * time.Second}}
}

// anonToken asks the server for an anonymous client token.
func (a *api) anonToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := a.call(ctx, http.MethodPost, "/auth/anon", &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("anon: empty token")
	}
	return out.Token, nil
}

// catalog fetches the server's reference images so every client plays the
// same set, including one replaced via REFERENCE_IMAGES_FILE.
func (a *api) catalog(ctx context.Context) (*presets.Catalog, error) {
	var raw json.RawMessage
	if err := a.call(ctx, http.MethodGet, "/api/presets", &raw); err != nil {
		return nil, err
	}
	return presets.Parse(raw)
}

func (a *api) call(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
