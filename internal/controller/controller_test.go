package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/fields"
	"github.com/dshills/vehicleclass/internal/form"
	"github.com/dshills/vehicleclass/internal/notify"
	"github.com/dshills/vehicleclass/internal/validate"
)

// fakeClassifier returns a scripted result and counts calls. When gate is
// non-nil each call blocks until the gate is closed.
type fakeClassifier struct {
	calls   int32
	gate    chan struct{}
	started chan struct{}
	pred    *classify.Prediction
	err     error
	lastReq classify.Request
}

func (f *fakeClassifier) Classify(ctx context.Context, req classify.Request) (*classify.Prediction, error) {
	atomic.AddInt32(&f.calls, 1)
	f.lastReq = req
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.pred, f.err
}

func (f *fakeClassifier) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

func confidence(v float64) *float64 { return &v }

func carPrediction() *classify.Prediction {
	return &classify.Prediction{
		Label:      "Car",
		Confidence: confidence(0.85),
		InputData: classify.Echo{
			Length: 4.5, Height: 1.8, Width: 2, Weight: 1500,
			EnginePower: 150, TopSpeed: 180, AxleCount: 2, Seats: 5, FuelType: "petrol",
		},
		Timestamp: classify.Timestamp{Time: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
}

var validInput = map[string]string{
	fields.Length:      "4.5",
	fields.Height:      "1.8",
	fields.Width:       "2.0",
	fields.Weight:      "1500",
	fields.EnginePower: "150",
	fields.TopSpeed:    "180",
	fields.AxleCount:   "2",
	fields.Seats:       "5",
}

func newController(t *testing.T, fc *fakeClassifier) (*Controller, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	c := New(form.New(), fc, rec)
	for name, v := range validInput {
		if err := c.Dispatch(context.Background(), FieldChanged{Name: name, Value: v}); err != nil {
			t.Fatalf("FieldChanged %s: %v", name, err)
		}
	}
	return c, rec
}

func lastNotification(t *testing.T, rec *notify.Recorder) notify.Entry {
	t.Helper()
	e, ok := rec.Last()
	if !ok {
		t.Fatal("expected a notification")
	}
	return e
}

func TestSubmit_Success(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, rec := newController(t, fc)

	p, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	snap := c.State().Snapshot()
	if snap.Last != p || snap.Last.Label != "Car" {
		t.Errorf("stored prediction = %+v", snap.Last)
	}
	if *snap.Last.Confidence != 0.85 {
		t.Errorf("confidence = %v", *snap.Last.Confidence)
	}
	if snap.Busy || c.Phase() != Idle {
		t.Errorf("busy=%v phase=%s after success", snap.Busy, c.Phase())
	}
	if e := lastNotification(t, rec); e.Kind != notify.Success || e.Message != MsgClassified {
		t.Errorf("notification = %+v", e)
	}
	if fc.lastReq.Seats != 5 || fc.lastReq.FuelType != fields.Petrol {
		t.Errorf("request = %+v", fc.lastReq)
	}
}

func TestSubmit_ValidationViolationNoNetworkCall(t *testing.T) {
	for _, name := range fields.Names() {
		for _, bad := range []string{"", "0", "-3"} {
			fc := &fakeClassifier{pred: carPrediction()}
			c, rec := newController(t, fc)
			if err := c.SetField(name, bad); err != nil {
				t.Fatalf("SetField: %v", err)
			}

			_, err := c.Submit(context.Background())
			var v *validate.Violation
			if !errors.As(err, &v) || v.Field != name {
				t.Errorf("%s=%q: err = %v, want violation on %s", name, bad, err, name)
			}
			if fc.Calls() != 0 {
				t.Errorf("%s=%q: classifier called %d times", name, bad, fc.Calls())
			}
			e := lastNotification(t, rec)
			if e.Kind != notify.Error || e.Message != v.Message {
				t.Errorf("%s=%q: notification = %+v", name, bad, e)
			}
			if c.State().Busy() || c.Phase() != Idle {
				t.Errorf("%s=%q: not idle after violation", name, bad)
			}
		}
	}
}

func TestSubmit_ValidationFailureKeepsPreviousResult(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, _ := newController(t, fc)
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	c.SetField(fields.Seats, "")   //nolint:errcheck
	c.Submit(context.Background()) //nolint:errcheck
	if c.State().Snapshot().Last == nil {
		t.Error("a rejected validation should not discard the previous result")
	}
}

func TestSubmit_FailureKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &classify.Error{Kind: classify.KindServerRejected, Message: "Missing field: seats"}, "Missing field: seats"},
		{"server fallback", &classify.Error{Kind: classify.KindServerRejected}, "Classification failed"},
		{"unreachable", &classify.Error{Kind: classify.KindNetworkUnreachable, Err: context.DeadlineExceeded}, MsgUnreachable},
		{"cors", &classify.Error{Kind: classify.KindCrossOriginBlocked}, MsgCrossOrigin},
		{"unknown", &classify.Error{Kind: classify.KindUnknown}, MsgUnexpected},
		{"foreign error", fmt.Errorf("boom"), MsgUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeClassifier{err: tc.err}
			c, rec := newController(t, fc)

			_, err := c.Submit(context.Background())
			if !errors.Is(err, tc.err) {
				t.Errorf("err = %v, want %v", err, tc.err)
			}
			snap := c.State().Snapshot()
			if snap.Busy {
				t.Error("busy not released after failure")
			}
			if snap.Last != nil {
				t.Error("lastResult set after failure")
			}
			e := lastNotification(t, rec)
			if e.Kind != notify.Error || e.Message != tc.want {
				t.Errorf("notification = %+v, want %q", e, tc.want)
			}
		})
	}
}

func TestSubmit_FailureClearsPreviousResult(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, _ := newController(t, fc)
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	fc.pred, fc.err = nil, &classify.Error{Kind: classify.KindNetworkUnreachable}
	c.Submit(context.Background()) //nolint:errcheck
	if c.State().Snapshot().Last != nil {
		t.Error("lastResult should be cleared at the start of every submission")
	}
}

func TestSubmit_SecondSubmitWhileBusyIsDropped(t *testing.T) {
	fc := &fakeClassifier{
		pred:    carPrediction(),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c, _ := newController(t, fc)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(context.Background())
	}()
	<-fc.started

	if !c.State().Busy() || c.Phase() != Submitting {
		t.Fatalf("expected busy submitting, got busy=%v phase=%s", c.State().Busy(), c.Phase())
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit = %v, want ErrBusy", err)
	}
	if err := c.SetField(fields.Seats, "7"); !errors.Is(err, ErrBusy) {
		t.Errorf("SetField while busy = %v, want ErrBusy", err)
	}

	close(fc.gate)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first Submit: %v", firstErr)
	}
	if fc.Calls() != 1 {
		t.Errorf("classifier called %d times, want 1", fc.Calls())
	}
	if c.State().Busy() {
		t.Error("busy not released")
	}
}

func TestReset_AfterSuccess(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, rec := newController(t, fc)
	c.SetField(fields.FuelType, "electric") //nolint:errcheck
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := c.Dispatch(context.Background(), Reset{}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snap := c.State().Snapshot()
	if snap.Last != nil {
		t.Error("lastResult not cleared by reset")
	}
	if snap.Fuel != fields.Petrol {
		t.Errorf("fuel = %q, want petrol", snap.Fuel)
	}
	for _, name := range fields.Names() {
		if snap.Value(name) != "" {
			t.Errorf("%s = %q after reset", name, snap.Value(name))
		}
	}
	if e := lastNotification(t, rec); e.Kind != notify.Success || e.Message != MsgReset {
		t.Errorf("notification = %+v", e)
	}
}

func TestReset_RejectedWhileBusy(t *testing.T) {
	fc := &fakeClassifier{
		pred:    carPrediction(),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c, rec := newController(t, fc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Submit(context.Background()) //nolint:errcheck
	}()
	<-fc.started

	if err := c.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while busy = %v, want ErrBusy", err)
	}
	if e := lastNotification(t, rec); e.Message != MsgResetBusy {
		t.Errorf("notification = %+v", e)
	}

	close(fc.gate)
	<-done
	if c.State().Snapshot().Last == nil {
		t.Error("in-flight result was lost")
	}
}

func TestDispatch_UnknownFieldAndFuel(t *testing.T) {
	c, _ := newController(t, &fakeClassifier{})
	if err := c.Dispatch(context.Background(), FieldChanged{Name: "wheelbase", Value: "1"}); err == nil {
		t.Error("expected error for unknown field")
	}
	if err := c.Dispatch(context.Background(), FieldChanged{Name: fields.FuelType, Value: "steam"}); err == nil {
		t.Error("expected error for unknown fuel type")
	}
}

func TestSubscribe_SeesBusyTransitions(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, _ := newController(t, fc)
	var busy []bool
	c.State().Subscribe(func(s form.Snapshot) { busy = append(busy, s.Busy) })

	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(busy) != 2 || !busy[0] || busy[1] {
		t.Errorf("busy transitions = %v, want [true false]", busy)
	}
}

func TestCommands_RefusedWhileValidating(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, rec := newController(t, fc)
	c.setPhase(Validating)

	if err := c.SetField(fields.Seats, "9"); !errors.Is(err, ErrBusy) {
		t.Errorf("SetField while validating = %v, want ErrBusy", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrBusy) {
		t.Errorf("Reset while validating = %v, want ErrBusy", err)
	}
	if e := lastNotification(t, rec); e.Message != MsgResetBusy {
		t.Errorf("notification = %+v", e)
	}
	if v := c.State().Snapshot().Value(fields.Seats); v != "5" {
		t.Errorf("seats = %q, refused commands changed the form", v)
	}
}

func TestSubmit_RefusedDuringEdit(t *testing.T) {
	fc := &fakeClassifier{pred: carPrediction()}
	c, _ := newController(t, fc)

	var submitErr error
	unsubscribe := c.State().Subscribe(func(form.Snapshot) {
		_, submitErr = c.Submit(context.Background())
	})
	if err := c.SetField(fields.Seats, "6"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	unsubscribe()

	if !errors.Is(submitErr, ErrBusy) {
		t.Errorf("Submit during edit = %v, want ErrBusy", submitErr)
	}
	if fc.Calls() != 0 {
		t.Errorf("classifier called %d times", fc.Calls())
	}
	if c.Phase() != Idle {
		t.Errorf("phase = %s after edit, want idle", c.Phase())
	}
}
