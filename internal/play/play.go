// internal/play/play.go
//
// Terminal client for the image match game.
// Responsibilities:
//   - Fetch the reference set and an anonymous token from the server (falls back to the embedded set).
//   - Run one session controller for this player, generating through the server's /api/generate.
//   - Translate input lines into controller commands and render every session change.
//
// The game session exists only in this process.

package play

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/imagematch/internal/controller"
	"github.com/robalobadob/imagematch/internal/countdown"
	"github.com/robalobadob/imagematch/internal/game"
	"github.com/robalobadob/imagematch/internal/generate/upstream"
	"github.com/robalobadob/imagematch/internal/presets"
)

// Options configures Run.
type Options struct {
	ServerURL string
	Timeout   time.Duration // per generation request
	Tick      time.Duration // countdown interval; one second when zero
	Scheduler countdown.Scheduler
	ImageDir  string // where images are written; a temp dir when empty
	// KeepImages leaves a temp ImageDir in place on exit. A caller-supplied
	// ImageDir is never removed.
	KeepImages bool
	In        io.Reader
	Out       io.Writer
}

// Run plays until the player quits, input ends or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	dir := opts.ImageDir
	removeDir := false
	if dir == "" {
		d, err := os.MkdirTemp("", "imagematch-")
		if err != nil {
			return fmt.Errorf("image dir: %w", err)
		}
		dir = d
		removeDir = !opts.KeepImages
	}
	if removeDir {
		defer func() {
			if err := os.RemoveAll(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("remove image dir")
			}
		}()
	}

	a := newAPI(opts.ServerURL)
	cat, err := a.catalog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("fetch presets; using built-in set")
		if cat, err = presets.Load(""); err != nil {
			return err
		}
	}
	gen := upstream.New(strings.TrimRight(opts.ServerURL, "/")+"/api/generate", opts.Timeout)
	if tok, err := a.anonToken(ctx); err == nil {
		gen.Token = tok
	} else {
		log.Warn().Err(err).Msg("anonymous token; playing as guest")
	}

	sc := newScreen(opts.Out, imageDir{dir: dir})
	ctl := controller.New(controller.Options{
		Generator: gen,
		Images:    cat,
		Scheduler: opts.Scheduler,
		Tick:      opts.Tick,
		OnChange:  sc.Update,
	})

	sc.welcome(dir, removeDir)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ctl.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return inputLoop(gctx, ctl, sc, readLines(gctx.Done(), opts.In))
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// readLines feeds input lines to a channel that is closed at EOF or once done
// is closed. A Read already blocked on r still waits for the next line; the
// goroutine exits right after it.
func readLines(done <-chan struct{}, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}

func inputLoop(ctx context.Context, ctl *controller.Controller, sc *screen, lines <-chan string) error {
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		cmd := Parse(line)
		var err error
		switch cmd.Kind {
		case KindNone:
			continue
		case KindQuit:
			sc.say("Bye.\n")
			return nil
		case KindHelp:
			sc.say(helpText)
			continue
		case KindUnknown:
			sc.say("Unknown command %s. Type :help for commands.\n", cmd.Text)
			continue
		case KindStart:
			err = ctl.Start(ctx)
		case KindRetry:
			err = ctl.Submit(ctx)
		case KindPrompt:
			if err = ctl.SetPrompt(ctx, cmd.Text); err == nil {
				err = ctl.Submit(ctx)
			}
		}
		if err != nil {
			if errors.Is(err, controller.ErrStopped) || ctx.Err() != nil {
				return nil
			}
			sc.say("%s\n", rejection(ctx, ctl, err))
		}
	}
}

// rejection explains why a command was refused in terms of the current phase.
func rejection(ctx context.Context, ctl *controller.Controller, err error) string {
	if errors.Is(err, game.ErrEmptyPrompt) {
		return "Please enter a prompt."
	}
	if !errors.Is(err, game.ErrInvalidPhase) {
		return err.Error()
	}
	s, serr := ctl.Snapshot(ctx)
	if serr != nil {
		return err.Error()
	}
	switch s.Phase {
	case game.PhaseReady:
		return "No game running. Type :start to begin."
	case game.PhaseGenerating:
		return "Still generating, please wait."
	case game.PhaseResult:
		return "This game is over. Type :again to play again."
	}
	return err.Error()
}
