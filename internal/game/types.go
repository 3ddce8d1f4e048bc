// internal/game/types.go
//
// Core type definitions for the image match game.
// Defines:
//   - Phase: where a session is in its lifecycle (ready/playing/generating/result).
//   - Artifact: the image reference returned by the generation endpoint.
//   - Session: state for a single game.

package game

import "github.com/robalobadob/imagematch/internal/presets"

// Phase represents the lifecycle position of a session.
// Transitions:
//   - ready      → playing    (start)
//   - playing    → playing    (one second elapses)
//   - playing    → result     (time runs out, score 0)
//   - playing    → generating (prompt submitted)
//   - generating → result     (generation succeeded)
//   - generating → playing    (generation failed, retry allowed)
//   - result     → playing    (play again)
type Phase string

const (
	PhaseReady      Phase = "ready"
	PhasePlaying    Phase = "playing"
	PhaseGenerating Phase = "generating"
	PhaseResult     Phase = "result"
)

// RoundSeconds is the time budget of one session.
const RoundSeconds = 60

// Artifact is the result of a successful generation call.
type Artifact struct {
	ImageURL string `json:"imageUrl"`
}

// Session holds the state of a single game. It is a value type: every
// transition in engine.go returns a new Session and leaves its input untouched.
type Session struct {
	ID            string        `json:"id"`            // Unique per start; empty before the first start.
	Phase         Phase         `json:"phase"`         // Current lifecycle phase.
	TimeRemaining int           `json:"timeRemaining"` // Seconds left, 0..RoundSeconds.
	Prompt        string        `json:"prompt"`        // Player-authored prompt.
	Reference     presets.Image `json:"reference"`     // Image the player is trying to match.
	Artifact      *Artifact     `json:"artifact,omitempty"`
	Score         *int          `json:"score,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
}
