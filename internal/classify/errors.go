package classify

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindServerRejected
	KindNetworkUnreachable
	KindCrossOriginBlocked
)

func (k Kind) String() string {
	switch k {
	case KindServerRejected:
		return "server_rejected"
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindCrossOriginBlocked:
		return "cross_origin_blocked"
	default:
		return "unknown"
	}
}

// fallbackRejection is used when a rejecting response carries no error text.
const fallbackRejection = "Classification failed"

// Error is the single error type returned by Client methods.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 when no response was received
	Message string // server-supplied text for KindServerRejected
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServerRejected:
		if e.Status != 0 {
			return fmt.Sprintf("classification rejected (HTTP %d): %s", e.Status, e.Message)
		}
		return "classification rejected: " + e.Message
	case KindNetworkUnreachable:
		return fmt.Sprintf("classification service unreachable: %v", e.Err)
	case KindCrossOriginBlocked:
		return fmt.Sprintf("cross-origin request blocked: %v", e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("classification failed: %v", e.Err)
		}
		return "classification failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

func rejected(status int, message string) *Error {
	if message == "" {
		message = fallbackRejection
	}
	return &Error{Kind: KindServerRejected, Status: status, Message: message}
}

func unknown(format string, args ...any) *Error {
	return &Error{Kind: KindUnknown, Err: fmt.Errorf(format, args...)}
}

// transportError maps an error from http.Client.Do, where no response was
// received. Timeouts count as unreachable; a caller cancellation does not.
func transportError(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnknown, Err: err}
	}
	return &Error{Kind: KindNetworkUnreachable, Err: err}
}
