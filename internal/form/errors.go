package form

import "errors"

// ErrBusy is returned for mutations refused while a submission is in flight.
var ErrBusy = errors.New("a classification is already in progress")

// errUnchanged aborts a mutation without error and without notifying.
var errUnchanged = errors.New("form: unchanged")
