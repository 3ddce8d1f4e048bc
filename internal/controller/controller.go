// internal/controller/controller.go
//
// Runtime for one game session controller.
// Responsibilities:
//   - Own the current game.Session and apply every change to it on a single loop goroutine.
//   - Drive the countdown: armed on entering playing, re-armed after each tick, cancelled on leaving playing.
//   - Issue exactly one generation call per submission and fold its outcome back into the session.
//   - Notify an observer after every applied change.
//
// Notes:
//   - User commands, timer ticks and generation results are all events on one queue;
//     each runs to completion before the next is taken.
//   - Results that arrive for a session that is no longer current are discarded.

package controller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/imagematch/internal/countdown"
	"github.com/robalobadob/imagematch/internal/game"
	"github.com/robalobadob/imagematch/internal/generate"
	"github.com/robalobadob/imagematch/internal/presets"
)

// ErrStopped is returned by commands issued after Run has returned.
var ErrStopped = errors.New("controller stopped")

// ImageSource picks the reference image for a new session.
type ImageSource interface {
	Random() presets.Image
}

// Options configures a Controller. Generator and Images are required.
type Options struct {
	Generator generate.Provider
	Images    ImageSource
	Scheduler countdown.Scheduler // defaults to countdown.System
	Tick      time.Duration       // defaults to one second
	// OnChange runs on the loop goroutine after every applied change. It must
	// not call back into the controller.
	OnChange func(game.Session)
}

type (
	tickEvent struct{ epoch uint64 }

	commandEvent struct {
		apply func(ctx context.Context) error
		reply chan error
	}

	resultEvent struct {
		sessionID string
		res       generate.Result
		err       error
	}
)

// Controller serialises all session changes through Run.
type Controller struct {
	gen      generate.Provider
	images   ImageSource
	onChange func(game.Session)
	timer    *countdown.Countdown

	events    chan any
	done      chan struct{}
	session   game.Session
	discarded int // stale generation results dropped
}

// New builds an idle controller in the ready phase. Call Run to start it.
func New(opts Options) *Controller {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	c := &Controller{
		gen:      opts.Generator,
		images:   opts.Images,
		onChange: opts.OnChange,
		events:   make(chan any, 16),
		done:     make(chan struct{}),
		session:  game.New(),
	}
	c.timer = countdown.New(opts.Scheduler, opts.Tick, func(epoch uint64) {
		select {
		case c.events <- tickEvent{epoch: epoch}:
		case <-c.done:
		}
	})
	return c
}

// Run processes events until ctx is cancelled. The countdown is cancelled and
// any in-flight generation call is abandoned when it returns.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.timer.Cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			switch ev := ev.(type) {
			case tickEvent:
				c.handleTick(ev)
			case resultEvent:
				c.handleResult(ev)
			case commandEvent:
				ev.reply <- ev.apply(ctx)
			}
		}
	}
}

// Start begins a new session with a freshly picked reference image. It is
// also "play again"; any previous session is replaced wholesale.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, func(context.Context) error {
		c.apply(game.Start(c.images.Random()))
		log.Debug().Str("session", c.session.ID).Str("reference", c.session.Reference.ID).Msg("session started")
		return nil
	})
}

// SetPrompt replaces the prompt text of a playing session.
func (c *Controller) SetPrompt(ctx context.Context, text string) error {
	return c.do(ctx, func(context.Context) error {
		next, err := game.SetPrompt(c.session, text)
		if err != nil {
			return err
		}
		c.apply(next)
		return nil
	})
}

// Submit sends the current prompt for generation. It fails with
// game.ErrEmptyPrompt or game.ErrInvalidPhase without changing anything.
func (c *Controller) Submit(ctx context.Context) error {
	return c.do(ctx, func(runCtx context.Context) error {
		next, err := game.Submit(c.session)
		if err != nil {
			return err
		}
		c.apply(next)
		go c.generate(runCtx, next.ID, next.Prompt)
		return nil
	})
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot(ctx context.Context) (game.Session, error) {
	var s game.Session
	err := c.do(ctx, func(context.Context) error {
		s = c.session
		return nil
	})
	return s, err
}

func (c *Controller) do(ctx context.Context, fn func(ctx context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case c.events <- commandEvent{apply: fn, reply: reply}:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) generate(ctx context.Context, sessionID, prompt string) {
	res, err := c.gen.Generate(ctx, prompt)
	select {
	case c.events <- resultEvent{sessionID: sessionID, res: res, err: err}:
	case <-c.done:
	}
}

func (c *Controller) handleTick(ev tickEvent) {
	if !c.timer.Valid(ev.epoch) {
		return
	}
	next := game.Advance(c.session, 1)
	c.apply(next)
	if next.Phase == game.PhasePlaying {
		c.timer.Rearm(ev.epoch)
	}
}

func (c *Controller) handleResult(ev resultEvent) {
	if ev.sessionID != c.session.ID || c.session.Phase != game.PhaseGenerating {
		c.discarded++
		log.Warn().Str("session", ev.sessionID).Str("current", c.session.ID).Msg("discarding stale generation result")
		return
	}
	if ev.err != nil {
		log.Warn().Err(ev.err).Str("session", ev.sessionID).Msg("generation failed")
		next, _ := game.Fail(c.session, ev.err.Error())
		c.apply(next)
		return
	}
	next, _ := game.Complete(c.session, game.Artifact{ImageURL: ev.res.ImageURL})
	c.apply(next)
	log.Debug().Str("session", next.ID).Int("score", *next.Score).Msg("session scored")
}

// apply installs next and keeps the countdown in step with the phase.
func (c *Controller) apply(next game.Session) {
	prev := c.session
	c.session = next

	entering := next.Phase == game.PhasePlaying && (prev.Phase != game.PhasePlaying || prev.ID != next.ID)
	switch {
	case entering:
		c.timer.Arm()
	case next.Phase != game.PhasePlaying:
		c.timer.Cancel()
	}

	if c.onChange != nil {
		c.onChange(next)
	}
}
