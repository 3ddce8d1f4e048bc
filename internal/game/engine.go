// internal/game/engine.go
//
// State machine for a single image match session.
// Responsibilities:
//   - Start fresh sessions with a full time budget and a chosen reference image.
//   - Advance the countdown by elapsed seconds and resolve time-up.
//   - Validate and apply prompt edits and submissions.
//   - Resolve generation outcomes (success → result with score, failure → back to playing).
//
// Notes:
//   - Every function is pure: it takes a Session value and returns a new one.
//     Clocks, timers and network calls live in the controller package.
//   - Score is derived only from the time remaining at submission.

package game

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/robalobadob/imagematch/internal/presets"
)

var (
	ErrInvalidPhase = errors.New("invalid phase for action")
	ErrEmptyPrompt  = errors.New("prompt is empty")
)

// DefaultGenerateError is shown when a failed generation carries no message.
const DefaultGenerateError = "Failed to generate image"

// New returns a session in the ready phase with nothing selected.
func New() Session {
	return Session{Phase: PhaseReady, TimeRemaining: RoundSeconds}
}

// Start begins a new game against ref. Every field is reset; this is also
// the "play again" transition, so it is accepted from any phase.
func Start(ref presets.Image) Session {
	return Session{
		ID:            uuid.NewString(),
		Phase:         PhasePlaying,
		TimeRemaining: RoundSeconds,
		Reference:     ref,
	}
}

// Advance applies elapsed seconds of countdown. Outside the playing phase the
// session is returned unchanged. Reaching zero ends the game with score 0.
func Advance(s Session, elapsed int) Session {
	if s.Phase != PhasePlaying || elapsed <= 0 {
		return s
	}
	s.TimeRemaining -= elapsed
	if s.TimeRemaining <= 0 {
		s.TimeRemaining = 0
		s.Phase = PhaseResult
		s.Score = intPtr(0)
	}
	return s
}

// SetPrompt replaces the prompt text. Only allowed while playing.
func SetPrompt(s Session, text string) (Session, error) {
	if s.Phase != PhasePlaying {
		return s, ErrInvalidPhase
	}
	s.Prompt = text
	return s, nil
}

// Submit moves a playing session to generating. The prompt is stored trimmed
// and must be non-empty; the countdown is frozen from here on.
func Submit(s Session) (Session, error) {
	if s.Phase != PhasePlaying || s.TimeRemaining <= 0 {
		return s, ErrInvalidPhase
	}
	p := strings.TrimSpace(s.Prompt)
	if p == "" {
		return s, ErrEmptyPrompt
	}
	s.Prompt = p
	s.Phase = PhaseGenerating
	s.LastError = ""
	return s, nil
}

// Complete records a successful generation and scores the session.
func Complete(s Session, a Artifact) (Session, error) {
	if s.Phase != PhaseGenerating {
		return s, ErrInvalidPhase
	}
	s.Artifact = &a
	s.Score = intPtr(Score(s.TimeRemaining))
	s.Phase = PhaseResult
	return s, nil
}

// Fail returns a generating session to playing with msg as the visible error.
// Time remaining and prompt are kept so the player can retry.
func Fail(s Session, msg string) (Session, error) {
	if s.Phase != PhaseGenerating {
		return s, ErrInvalidPhase
	}
	if strings.TrimSpace(msg) == "" {
		msg = DefaultGenerateError
	}
	s.LastError = msg
	s.Phase = PhasePlaying
	return s, nil
}

// Score converts time remaining into points: floor(remaining / RoundSeconds * 100).
// Integer arithmetic gives the exact floor.
func Score(remaining int) int {
	if remaining <= 0 {
		return 0
	}
	if remaining > RoundSeconds {
		remaining = RoundSeconds
	}
	return remaining * 100 / RoundSeconds
}

func intPtr(v int) *int { return &v }
