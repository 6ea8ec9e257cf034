package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Kind is the notification level.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notifier receives fire-and-forget user notifications.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, message string)

func (f Func) Notify(kind Kind, message string) { f(kind, message) }

// Writer prints one line per notification, prefixed by its level.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (n *Writer) Notify(kind Kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix := "✔"
	if kind == Error {
		prefix = "✖"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, message)
}

// Log records notifications on a zap logger.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a Notifier writing to l.
func NewLog(l *zap.Logger) *Log { return &Log{logger: l} }

func (n *Log) Notify(kind Kind, message string) {
	if kind == Error {
		n.logger.Warn("notification", zap.String("kind", string(kind)), zap.String("message", message))
		return
	}
	n.logger.Info("notification", zap.String("kind", string(kind)), zap.String("message", message))
}

// Multi fans a notification out to every non-nil notifier.
func Multi(ns ...Notifier) Notifier {
	return Func(func(kind Kind, message string) {
		for _, n := range ns {
			if n != nil {
				n.Notify(kind, message)
			}
		}
	})
}

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string) {})

// Recorder keeps notifications in memory; useful for callers that render
// them later.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Kind    Kind
	Message string
}

func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Kind: kind, Message: message})
}

// Entries returns a copy of the recorded notifications.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}
