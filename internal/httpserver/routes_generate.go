// internal/httpserver/routes_generate.go
//
// Generation routes:
//   - POST /api/generate → {"prompt"} in, {"imageUrl"} out; errors as {"error"}
//   - GET  /api/usage    → today's generation count and limit for the caller
//
// A quota slot is reserved before the provider is called and settled after,
// so concurrent requests cannot exceed the daily limit.
// Status mapping: 400 empty prompt or bad body, 429 quota exhausted,
// 502 provider failure (provider message), 504 provider timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imagematch/internal/generate"
	"github.com/robalobadob/imagematch/internal/quota"
)

const maxPromptBody = 16 << 10

type generateReq struct {
	Prompt string `json:"prompt"`
}

type generateRes struct {
	ImageURL      string `json:"imageUrl"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPromptBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	keys := quota.ClientKey(clientID(r.Context()), r.RemoteAddr)
	slot, err := s.reserve(r.Context(), keys)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			writeError(w, http.StatusTooManyRequests, "Daily generation limit reached")
			return
		}
		log.Error().Err(err).Msg("quota reserve")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	start := time.Now()
	res, err := s.gen.Generate(ctx, prompt)
	elapsed := time.Since(start)
	s.settle(r.Context(), slot, err == nil, elapsed)

	if err != nil {
		status, msg := generateFailure(ctx, err)
		log.Warn().Err(err).
			Str("provider", s.provider).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("image generation failed")
		writeError(w, status, msg)
		return
	}

	log.Info().Str("provider", s.provider).Dur("duration", elapsed).Msg("image generated")
	writeJSON(w, http.StatusOK, generateRes{ImageURL: res.ImageURL, RevisedPrompt: res.RevisedPrompt})
}

// generateFailure maps a provider error to an HTTP status and player-facing message.
func generateFailure(ctx context.Context, err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "Image generation timed out"
	}
	if errors.Is(err, generate.ErrMissingAPIKey) {
		return http.StatusInternalServerError, "Image provider is not configured"
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "Failed to generate image"
	}
	return http.StatusBadGateway, msg
}

// reserve claims a generation slot before the provider is called. It returns
// "" when usage tracking is off.
func (s *Server) reserve(ctx context.Context, keys quota.Keys) (string, error) {
	if s.quota == nil {
		return "", nil
	}
	return s.quota.Reserve(ctx, keys, s.provider)
}

// settle records the outcome of a reserved slot; failures here never fail the request.
func (s *Server) settle(ctx context.Context, slot string, ok bool, elapsed time.Duration) {
	if s.quota == nil || slot == "" {
		return
	}
	if err := s.quota.Settle(context.WithoutCancel(ctx), slot, ok, elapsed); err != nil {
		log.Warn().Err(err).Str("slot", slot).Msg("settle generation")
	}
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.quota == nil {
		writeJSON(w, http.StatusOK, quota.Summary{Day: quota.DayKey(time.Now())})
		return
	}
	keys := quota.ClientKey(clientID(r.Context()), r.RemoteAddr)
	sum, err := s.quota.Usage(r.Context(), keys)
	if err != nil {
		log.Error().Err(err).Msg("usage")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
