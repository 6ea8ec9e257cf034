package form

import (
	"fmt"
	"sync"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/fields"
)

// Snapshot is an immutable copy of the form at one instant.
type Snapshot struct {
	Values map[string]string // raw text per numeric field name
	Fuel   fields.Fuel
	Busy   bool
	Last   *classify.Prediction // nil when no result is held
}

// Value returns the raw text for a numeric field.
func (s Snapshot) Value(name string) string { return s.Values[name] }

// Listener is called after every state change with the new snapshot.
type Listener func(Snapshot)

// State holds the raw user input, the busy flag and the last prediction.
// Mutations are serialized; listeners run synchronously after the lock is
// released, in subscription order.
type State struct {
	mu        sync.Mutex
	values    map[string]string
	fuel      fields.Fuel
	busy      bool
	last      *classify.Prediction
	listeners map[int]Listener
	order     []int
	nextID    int
}

// New returns a State with every field empty and fuel set to petrol.
func New() *State {
	s := &State{listeners: make(map[int]Listener)}
	s.resetLocked()
	return s
}

func (s *State) resetLocked() {
	s.values = make(map[string]string, len(fields.Names()))
	for _, name := range fields.Names() {
		s.values[name] = ""
	}
	s.fuel = fields.DefaultFuel
	s.last = nil
}

// Subscribe registers l for change notifications and returns a function
// that removes it.
func (s *State) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{Values: cloneValues(s.values), Fuel: s.fuel, Busy: s.busy, Last: s.last}
}

func cloneValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Busy reports whether a submission is in flight.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Set stores raw text for a numeric field, or the fuel type when name is
// fields.FuelType.
func (s *State) Set(name, raw string) error {
	return s.mutate(func() error {
		if name == fields.FuelType {
			f, err := fields.ParseFuel(raw)
			if err != nil {
				return err
			}
			s.fuel = f
			return nil
		}
		if _, ok := s.values[name]; !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		s.values[name] = raw
		return nil
	})
}

// TryAcquire sets busy and clears the last result if the form is idle. It
// returns false, changing nothing, when a submission is already in flight.
func (s *State) TryAcquire() bool {
	acquired := false
	s.mutate(func() error { //nolint:errcheck
		if s.busy {
			return errUnchanged
		}
		s.busy = true
		s.last = nil
		acquired = true
		return nil
	})
	return acquired
}

// Release clears busy and, when p is non-nil, stores it as the last result.
func (s *State) Release(p *classify.Prediction) {
	s.mutate(func() error { //nolint:errcheck
		s.busy = false
		if p != nil {
			s.last = p
		}
		return nil
	})
}

// Reset restores the defaults and discards the last result. It refuses while
// busy so an in-flight submission's result write is never lost.
func (s *State) Reset() error {
	return s.mutate(func() error {
		if s.busy {
			return ErrBusy
		}
		s.resetLocked()
		return nil
	})
}

// mutate runs fn under the lock and, when fn succeeds, notifies listeners
// with the resulting snapshot.
func (s *State) mutate(fn func() error) error {
	s.mu.Lock()
	if err := fn(); err != nil {
		s.mu.Unlock()
		if err == errUnchanged {
			return nil
		}
		return err
	}
	snap := s.snapshotLocked()
	ls := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.listeners[id])
	}
	s.mu.Unlock()

	// Each listener gets its own Values map.
	for _, l := range ls {
		own := snap
		own.Values = cloneValues(snap.Values)
		l(own)
	}
	return nil
}
