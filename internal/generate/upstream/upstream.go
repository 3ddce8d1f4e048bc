// internal/generate/upstream/upstream.go
//
// Client for the game's own generation contract:
//
//	POST <url>  {"prompt": "..."}
//	2xx         {"imageUrl": "..."}
//	non-2xx     {"error": "..."}
//
// Responsibilities:
//   - Used by the server to delegate to another service with the same contract.
//   - Used by the terminal client to reach the server.
//   - Turn every failure into a StatusError whose Message is fit to show a player;
//     transport details stay in the log and behind Unwrap.

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imagematch/internal/generate"
)

// Messages for failures where the endpoint never answered.
const (
	MsgUnreachable = "Could not reach the image server"
	MsgTimeout     = "Image generation timed out"
)

// StatusError is a failed call. Message is what the endpoint said, or a
// generic fallback when it said nothing usable. Code is 0 when no response
// arrived; Err then holds the transport error.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string { return e.Message }

func (e *StatusError) Unwrap() error { return e.Err }

// transportError hides the request URL and dial details from players.
func transportError(url string, err error) error {
	msg := MsgUnreachable
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		msg = MsgTimeout
	}
	if !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("url", url).Msg("image server request failed")
	}
	return &StatusError{Message: msg, Err: err}
}

type Client struct {
	URL   string
	Token string // optional bearer token
	http  *http.Client
}

func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{URL: strings.TrimRight(url, "/"), http: &http.Client{Timeout: timeout}}
}

func (c *Client) Generate(ctx context.Context, prompt string) (generate.Result, error) {
	b, _ := json.Marshal(map[string]string{"prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return generate.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return generate.Result{}, transportError(c.URL, err)
	}
	defer resp.Body.Close()

	var out struct {
		ImageURL      string `json:"imageUrl"`
		RevisedPrompt string `json:"revisedPrompt"`
		Error         string `json:"error"`
	}
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(out.Error)
		if decodeErr != nil || msg == "" {
			msg = "Failed to generate image"
		}
		return generate.Result{}, &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil || out.ImageURL == "" {
		return generate.Result{}, &StatusError{Code: resp.StatusCode, Message: "Failed to generate image"}
	}
	return generate.Result{ImageURL: out.ImageURL, RevisedPrompt: out.RevisedPrompt}, nil
}
