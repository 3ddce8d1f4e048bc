// internal/play/screen.go
//
// Terminal rendering.
// Responsibilities:
//   - Print only what changed between two session snapshots: new reference,
//     countdown (every 10 s, then each of the last 10 s), errors, result screen.
//   - Serialise output from the controller loop and the input loop.

package play

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imagematch/internal/game"
)

// screen prints what changed between two session snapshots. Update is called
// on the controller loop; say is called from the input loop.
type screen struct {
	mu     sync.Mutex
	out    io.Writer
	images imageDir
	prev   game.Session
}

func newScreen(out io.Writer, images imageDir) *screen {
	return &screen{out: out, images: images, prev: game.New()}
}

func (sc *screen) say(format string, args ...any) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	fmt.Fprintf(sc.out, format, args...)
}

func (sc *screen) welcome(dir string, temporary bool) {
	note := "they are kept after you quit"
	if temporary {
		note = "they are removed when you quit"
	}
	sc.say("AI Image Match\nDescribe the reference image as precisely as you can. Faster prompts score more.\n"+
		"Images are saved in %s (%s).\nType :start to begin, :help for commands.\n", dir, note)
}

// Update renders the transition from the previous snapshot to s.
func (sc *screen) Update(s game.Session) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	prev := sc.prev
	sc.prev = s

	newGame := s.ID != prev.ID && s.Phase == game.PhasePlaying
	switch {
	case newGame:
		sc.showReference(s)
	case s.Phase == game.PhasePlaying && s.TimeRemaining != prev.TimeRemaining && announce(s.TimeRemaining):
		fmt.Fprintf(sc.out, "%s left\n", clock(s.TimeRemaining))
	}

	if s.Phase == game.PhaseGenerating && prev.Phase != game.PhaseGenerating {
		fmt.Fprintf(sc.out, "Generating image for %q ...\n", s.Prompt)
	}
	if s.LastError != "" && s.LastError != prev.LastError {
		fmt.Fprintf(sc.out, "Error: %s\nType :retry to try again or enter a new prompt. %s left.\n", s.LastError, clock(s.TimeRemaining))
	}
	if s.Phase == game.PhaseResult && prev.Phase != game.PhaseResult {
		sc.showResult(s)
	}
}

func (sc *screen) showReference(s game.Session) {
	fmt.Fprintf(sc.out, "\nReference image: %s\n", s.Reference.Description)
	if path, err := sc.images.reference(s.Reference); err == nil {
		fmt.Fprintf(sc.out, "  open %s to view it\n", path)
	} else {
		log.Warn().Err(err).Msg("save reference image")
	}
	fmt.Fprintf(sc.out, "You have %s. Type your prompt and press enter.\n", clock(s.TimeRemaining))
}

func (sc *screen) showResult(s game.Session) {
	if s.Artifact == nil {
		fmt.Fprint(sc.out, "\nTime's Up!\nYou ran out of time. Score: 0 points\n")
	} else {
		score := 0
		if s.Score != nil {
			score = *s.Score
		}
		fmt.Fprintf(sc.out, "\nGame Complete!\nScore: %d points\n", score)
		fmt.Fprintf(sc.out, "Your prompt: %q\n", s.Prompt)
		if where, err := sc.images.artifact(s.ID, s.Artifact.ImageURL); err == nil {
			fmt.Fprintf(sc.out, "Generated image: %s\n", where)
		} else {
			log.Warn().Err(err).Msg("save generated image")
		}
	}
	fmt.Fprint(sc.out, "Type :again to play again or :quit to leave.\n")
}

// announce reports whether the countdown value is worth printing.
func announce(sec int) bool {
	return sec <= 10 || sec%10 == 0
}

func clock(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
