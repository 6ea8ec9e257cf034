package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/echo"
	"github.com/dshills/vehicleclass/internal/form"
	"github.com/dshills/vehicleclass/internal/notify"
	"github.com/dshills/vehicleclass/internal/validate"
)

// ErrBusy is returned when a command is refused because a submission is in
// flight.
var ErrBusy = form.ErrBusy

// Notification texts.
const (
	MsgClassified   = "Vehicle classified successfully!"
	MsgReset        = "Form reset successfully"
	MsgResetBusy    = "Cannot reset while a classification is in progress"
	MsgCrossOrigin  = "CORS Error: Unable to connect to backend. Please check if the API server is running and CORS is properly configured."
	MsgUnreachable  = "Unable to connect to the server. Please check if the backend is running."
	MsgUnexpected   = "An unexpected error occurred"
	msgRejectedNone = "Classification failed"
)

// Classifier is the remote classification call.
type Classifier interface {
	Classify(ctx context.Context, req classify.Request) (*classify.Prediction, error)
}

// Phase is the position of the submit workflow.
type Phase int

const (
	Idle Phase = iota
	Validating
	Submitting
	editing // a field edit or reset is being applied
)

func (p Phase) String() string {
	switch p {
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case editing:
		return "editing"
	default:
		return "idle"
	}
}

// Controller owns the form state and runs the submit and reset workflows.
type Controller struct {
	state      *form.State
	classifier Classifier
	notifier   notify.Notifier
	logger     *zap.Logger

	mu    sync.Mutex
	phase Phase
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Controller driving state. notifier may be nil.
func New(state *form.State, classifier Classifier, notifier notify.Notifier, opts ...Option) *Controller {
	if notifier == nil {
		notifier = notify.Discard
	}
	c := &Controller{
		state:      state,
		classifier: classifier,
		notifier:   notifier,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the form state the controller mutates.
func (c *Controller) State() *form.State { return c.state }

// Phase returns the current workflow phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// claim moves Idle to p. It fails when any other command holds the
// workflow or a submission is in flight.
func (c *Controller) claim(p Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Idle || c.state.Busy() {
		return false
	}
	c.phase = p
	return true
}

// begin moves Idle to Validating.
func (c *Controller) begin() bool { return c.claim(Validating) }

// SetField records raw text for a field. Edits are refused unless the
// controller is idle.
func (c *Controller) SetField(name, raw string) error {
	if !c.claim(editing) {
		return ErrBusy
	}
	defer c.setPhase(Idle)
	if err := c.state.Set(name, raw); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

// Submit validates the form and, when valid, classifies it. A submit while
// another is in flight is dropped and returns ErrBusy without any network
// call. On success the stored prediction is returned.
func (c *Controller) Submit(ctx context.Context) (*classify.Prediction, error) {
	if !c.begin() {
		c.logger.Debug("submit dropped: busy")
		return nil, ErrBusy
	}

	req, err := validate.BuildRequest(c.state.Snapshot())
	if err != nil {
		c.setPhase(Idle)
		var v *validate.Violation
		if errors.As(err, &v) {
			c.logger.Debug("validation failed", zap.String("field", v.Field), zap.String("message", v.Message))
			c.notifier.Notify(notify.Error, v.Message)
		}
		return nil, err
	}

	if !c.state.TryAcquire() {
		c.setPhase(Idle)
		c.logger.Debug("submit dropped: busy")
		return nil, ErrBusy
	}
	c.setPhase(Submitting)

	id := uuid.NewString()
	log := c.logger.With(zap.String("submission_id", id))
	log.Info("submitting classification", zap.String("fuel_type", string(req.FuelType)))

	var stored *classify.Prediction
	defer func() {
		c.state.Release(stored)
		c.setPhase(Idle)
	}()

	pred, err := c.classifier.Classify(ctx, req)
	if err != nil {
		log.Warn("classification failed", zap.Stringer("kind", classify.KindOf(err)), zap.Error(err))
		c.notifier.Notify(notify.Error, FailureMessage(err))
		return nil, err
	}

	if d := echo.Diff(req, pred.InputData); d != "" {
		log.Warn("service echo differs from submitted input", zap.String("diff", d))
	}
	log.Info("classified", zap.String("prediction", pred.Label))

	stored = pred
	c.notifier.Notify(notify.Success, MsgClassified)
	return pred, nil
}

// Reset restores every field to its default and discards the last result.
// It is refused unless the controller is idle.
func (c *Controller) Reset() error {
	if !c.claim(editing) {
		c.notifier.Notify(notify.Error, MsgResetBusy)
		return ErrBusy
	}
	defer c.setPhase(Idle)
	if err := c.state.Reset(); err != nil {
		if errors.Is(err, form.ErrBusy) {
			c.notifier.Notify(notify.Error, MsgResetBusy)
		}
		return err
	}
	c.notifier.Notify(notify.Success, MsgReset)
	return nil
}

// FailureMessage returns the user-facing text for a classification failure.
func FailureMessage(err error) string {
	var ce *classify.Error
	if !errors.As(err, &ce) {
		return MsgUnexpected
	}
	switch ce.Kind {
	case classify.KindServerRejected:
		if ce.Message == "" {
			return msgRejectedNone
		}
		return ce.Message
	case classify.KindCrossOriginBlocked:
		return MsgCrossOrigin
	case classify.KindNetworkUnreachable:
		return MsgUnreachable
	default:
		return MsgUnexpected
	}
}
