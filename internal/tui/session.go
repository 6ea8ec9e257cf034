package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/vehicleclass/internal/controller"
	"github.com/dshills/vehicleclass/internal/fields"
	"github.com/dshills/vehicleclass/internal/form"
	"github.com/dshills/vehicleclass/internal/render"
)

type action int

const (
	actionFillAll action = iota
	actionEditField
	actionFuel
	actionSubmit
	actionShowResult
	actionReset
	actionQuit
)

// Session is the interactive form loop. It reads the form through a state
// subscription and changes it only by dispatching commands.
type Session struct {
	ctrl     *controller.Controller
	driver   PromptDriver
	renderer render.Renderer
	logger   *zap.Logger

	mu   sync.Mutex
	snap form.Snapshot
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession wires a prompt driver and a result renderer to ctrl.
func NewSession(ctrl *controller.Controller, driver PromptDriver, renderer render.Renderer, opts ...SessionOption) *Session {
	s := &Session{
		ctrl:     ctrl,
		driver:   driver,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) snapshot() form.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) observe(snap form.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

// Run shows the main menu until the user quits or aborts. An abort is not
// an error.
func (s *Session) Run(ctx context.Context) error {
	if s.driver == nil {
		return errors.New("tui: prompt driver is nil")
	}
	s.observe(s.ctrl.State().Snapshot())
	unsubscribe := s.ctrl.State().Subscribe(s.observe)
	defer unsubscribe()

	for {
		done, err := s.step(ctx)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil || done {
			return err
		}
	}
}

func (s *Session) step(ctx context.Context) (bool, error) {
	snap := s.snapshot()
	actions := menu(snap)
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = a.label(snap)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{
		Message: "Vehicle classification",
		Options: labels,
		Help:    fmt.Sprintf("%d of %d measurements filled", filled(snap), len(fields.Names())),
	})
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(actions) {
		return false, fmt.Errorf("tui: invalid menu selection %d", idx)
	}

	switch actions[idx] {
	case actionFillAll:
		for _, f := range fields.All() {
			if err := s.editField(ctx, f); err != nil {
				return false, err
			}
		}
	case actionEditField:
		return false, s.pickAndEditField(ctx)
	case actionFuel:
		return false, s.editFuel(ctx)
	case actionSubmit:
		return false, s.submit(ctx)
	case actionShowResult:
		return false, s.showResult(ctx)
	case actionReset:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Clear every field and the last result?"})
		if err != nil || !ok {
			return false, err
		}
		s.dispatch(ctx, controller.Reset{})
	case actionQuit:
		return true, nil
	}
	return false, nil
}

// menu lists the actions available for snap. No edit, submit or reset is
// offered while a submission is in flight.
func menu(snap form.Snapshot) []action {
	var out []action
	if !snap.Busy {
		out = append(out, actionFillAll, actionEditField, actionFuel, actionSubmit)
	}
	if snap.Last != nil {
		out = append(out, actionShowResult)
	}
	if !snap.Busy {
		out = append(out, actionReset)
	}
	return append(out, actionQuit)
}

func (a action) label(snap form.Snapshot) string {
	switch a {
	case actionFillAll:
		return "Enter all measurements"
	case actionEditField:
		return "Edit a measurement"
	case actionFuel:
		return "Fuel type: " + snap.Fuel.Label()
	case actionSubmit:
		return "Classify vehicle"
	case actionShowResult:
		return "Show last result"
	case actionReset:
		return "Reset form"
	default:
		return "Quit"
	}
}

func (s *Session) pickAndEditField(ctx context.Context) error {
	snap := s.snapshot()
	all := fields.All()
	opts := make([]string, len(all))
	for i, f := range all {
		v := snap.Value(f.Name)
		if v == "" {
			v = "-"
		}
		opts[i] = fmt.Sprintf("%s: %s", promptLabel(f), v)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Which measurement?", Options: opts, PageSize: len(opts)})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(all) {
		return fmt.Errorf("tui: invalid field selection %d", idx)
	}
	return s.editField(ctx, all[idx])
}

func (s *Session) editField(ctx context.Context, f fields.Field) error {
	if s.snapshot().Busy {
		return nil
	}
	raw, err := s.driver.Input(ctx, InputConfig{
		Message: promptLabel(f),
		Default: s.snapshot().Value(f.Name),
		Help:    fieldHelp(f),
	})
	if err != nil {
		return err
	}
	s.dispatch(ctx, controller.FieldChanged{Name: f.Name, Value: strings.TrimSpace(raw)})
	return nil
}

func (s *Session) editFuel(ctx context.Context) error {
	fuels := fields.Fuels()
	opts := make([]string, len(fuels))
	current := 0
	snap := s.snapshot()
	for i, f := range fuels {
		opts[i] = f.Label()
		if f == snap.Fuel {
			current = i
		}
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: "Fuel type", Options: opts, DefaultIndex: current})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(fuels) {
		return fmt.Errorf("tui: invalid fuel selection %d", idx)
	}
	s.dispatch(ctx, controller.FieldChanged{Name: fields.FuelType, Value: string(fuels[idx])})
	return nil
}

func (s *Session) submit(ctx context.Context) error {
	if err := s.driver.Info(ctx, "Classifying..."); err != nil {
		return err
	}
	s.dispatch(ctx, controller.Submit{})
	if s.snapshot().Last == nil {
		return nil
	}
	return s.showResult(ctx)
}

func (s *Session) showResult(ctx context.Context) error {
	last := s.snapshot().Last
	if last == nil || s.renderer == nil {
		return nil
	}
	out, err := s.renderer.Render(last)
	if err != nil {
		return err
	}
	return s.driver.Info(ctx, strings.TrimRight(string(out), "\n"))
}

// dispatch sends cmd to the controller. Failures reach the user as
// notifications, so they are only logged here.
func (s *Session) dispatch(ctx context.Context, cmd controller.Command) {
	if err := s.ctrl.Dispatch(ctx, cmd); err != nil {
		s.logger.Debug("command not applied", zap.String("command", fmt.Sprintf("%T", cmd)), zap.Error(err))
	}
}

func promptLabel(f fields.Field) string {
	if f.Unit == "" {
		return f.Label
	}
	return fmt.Sprintf("%s (%s)", f.Label, f.Unit)
}

func fieldHelp(f fields.Field) string {
	parts := []string{f.Placeholder}
	if f.Kind == fields.Integer {
		parts = append(parts, "whole number")
	}
	if f.Bounded() {
		parts = append(parts, fmt.Sprintf("%g to %g", f.Minimum, f.Maximum))
	} else {
		parts = append(parts, fmt.Sprintf("at least %g", f.Minimum))
	}
	return strings.Join(parts, "; ")
}

func filled(snap form.Snapshot) int {
	n := 0
	for _, name := range fields.Names() {
		if strings.TrimSpace(snap.Value(name)) != "" {
			n++
		}
	}
	return n
}
