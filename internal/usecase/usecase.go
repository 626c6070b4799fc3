package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/forPelevin/dips/internal/asset"
	"github.com/forPelevin/dips/internal/ports"
	"github.com/forPelevin/dips/internal/types"
)

// ThumbnailFile is the single cache slot for input previews.
const ThumbnailFile = "input_thumbnail.jpeg"

// SaveOptions is the prompt shown when an output destination is needed.
var SaveOptions = types.SaveOptions{
	Title: "Save Video File",
	Filters: []types.Filter{{
		Name:       "Video Files",
		Extensions: []string{"avi", "mp4", "mov"},
	}},
}

type Deps struct {
	Dialogs ports.Dialogs
	Backend ports.Backend
	DataDir ports.DataDir
	Logger  *slog.Logger
}

// Session holds the input and output selections for one launcher window and
// drives the select/preview/convert workflow. Selections live only as long
// as the session.
type Session struct {
	d Deps

	busy atomic.Bool

	mu         sync.Mutex
	surface    ports.Surface
	input      types.Selection
	output     types.Selection
	phase      types.Phase
	preview    types.Preview
	dispatches int
}

func New(d Deps) *Session {
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return &Session{d: d, phase: types.PhaseNoInput}
}

// Mount attaches the surface that renders session events. Operations fail
// with ErrNotMounted until a surface is mounted.
func (s *Session) Mount(surface ports.Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
}

func (s *Session) Unmount() {
	s.Mount(nil)
}

func (s *Session) State() types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.Snapshot{
		Input:      s.input,
		Output:     s.output,
		Phase:      s.phase,
		Preview:    s.preview,
		Dispatches: s.dispatches,
		Busy:       s.busy.Load(),
	}
}

// SelectInput asks for an input file and renders its thumbnail. A dismissed
// dialog leaves the previous input untouched.
func (s *Session) SelectInput(ctx context.Context) error {
	return s.exclusive(func() error {
		if !s.mounted() {
			return ErrNotMounted
		}

		sel, err := s.d.Dialogs.PickOpenPath(ctx, types.OpenOptions{Directory: false, Multiple: false})
		if err != nil {
			return s.fail("select input", fmt.Errorf("pick input: %w", err))
		}
		in, ok := sel.Path()
		if !ok {
			s.d.Logger.Debug("input pick cancelled")
			return nil
		}

		s.mu.Lock()
		s.input = sel
		s.phase = types.PhaseInputChosen
		s.preview = types.Preview{}
		s.mu.Unlock()
		s.d.Logger.Info("input selected", "path", in)

		dir, err := s.d.DataDir.LocalDataDir()
		if err != nil {
			s.setPhase(types.PhaseThumbnailFailed)
			return s.fail("select input", fmt.Errorf("resolve data dir: %w", err))
		}
		cachePath := filepath.Join(dir, ThumbnailFile)

		s.setPhase(types.PhaseThumbnailRequested)
		if err := s.d.Backend.GenerateThumbnail(ctx, in, cachePath); err != nil {
			s.setPhase(types.PhaseThumbnailFailed)
			return s.fail("select input", fmt.Errorf("%w: thumbnail: %w", ErrBackendFailed, err))
		}

		pv := types.Preview{ImageURL: asset.Locator(cachePath), Path: in}
		s.mu.Lock()
		s.phase = types.PhaseThumbnailShown
		s.preview = pv
		s.mu.Unlock()
		s.publish(types.Event{Kind: types.EventPreview, Op: "select input", Preview: pv})
		return nil
	})
}

// SelectOutput prompts for an output destination. Unlike SelectInput, a
// dismissed or failed prompt clears the current output.
func (s *Session) SelectOutput(ctx context.Context) error {
	return s.exclusive(func() error {
		if !s.mounted() {
			return ErrNotMounted
		}
		_, err := s.promptOutput(ctx)
		return err
	})
}

// EnsureOutput returns the current output, prompting only when none is set.
func (s *Session) EnsureOutput(ctx context.Context) (types.Selection, error) {
	var out types.Selection
	err := s.exclusive(func() error {
		var err error
		out, err = s.ensureOutput(ctx)
		return err
	})
	return out, err
}

// Run dispatches a conversion of the current input into the current output,
// prompting for the output first when it is unset. Each call dispatches once.
func (s *Session) Run(ctx context.Context) error {
	return s.exclusive(func() error {
		if !s.mounted() {
			return ErrNotMounted
		}

		s.mu.Lock()
		in, ok := s.input.Path()
		s.mu.Unlock()
		if !ok {
			return s.fail("run", ErrNoInput)
		}

		sel, err := s.ensureOutput(ctx)
		if err != nil {
			return err
		}
		out, ok := sel.Path()
		if !ok {
			return s.fail("run", ErrNoOutput)
		}

		s.d.Logger.Info("dispatching conversion", "input", in, "output", out)
		if err := s.d.Backend.RunConversion(ctx, in, out); err != nil {
			return s.fail("run", fmt.Errorf("%w: conversion: %w", ErrBackendFailed, err))
		}

		s.mu.Lock()
		s.dispatches++
		s.mu.Unlock()
		s.publish(types.Event{Kind: types.EventDispatched, Op: "run", Input: in, Output: sel})
		return nil
	})
}

func (s *Session) ensureOutput(ctx context.Context) (types.Selection, error) {
	s.mu.Lock()
	cur := s.output
	s.mu.Unlock()
	if cur.IsSelected() {
		return cur, nil
	}
	return s.promptOutput(ctx)
}

func (s *Session) promptOutput(ctx context.Context) (types.Selection, error) {
	sel, err := s.d.Dialogs.PickSavePath(ctx, SaveOptions)
	if err != nil {
		sel = types.Cancelled()
	}

	s.mu.Lock()
	s.output = sel
	s.mu.Unlock()
	s.publish(types.Event{Kind: types.EventOutput, Op: "select output", Output: sel})

	if err != nil {
		return sel, s.fail("select output", fmt.Errorf("pick output: %w", err))
	}
	return sel, nil
}

func (s *Session) exclusive(fn func() error) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.busy.Store(false)
	return fn()
}

func (s *Session) mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface != nil
}

func (s *Session) setPhase(p types.Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

func (s *Session) fail(op string, err error) error {
	s.d.Logger.Error("operation failed", "op", op, "error", err)
	s.publish(types.Event{Kind: types.EventError, Op: op, Message: err.Error()})
	return err
}

func (s *Session) publish(ev types.Event) {
	s.mu.Lock()
	surface := s.surface
	s.mu.Unlock()
	if surface != nil {
		surface.Render(ev)
	}
}
