package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownSession is returned for IDs that are not open
	ErrUnknownSession = errors.New("unknown session")
	// ErrStopped is returned once the manager's loop has exited
	ErrStopped = errors.New("session manager stopped")
)

// OpenError reports a log that is missing or unreadable when opened
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ReadError reports an I/O failure while reading appended content
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// OpenErrors collects the failures of one batch open
type OpenErrors []*OpenError

func (e OpenErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d logs could not be opened: %s", len(e), strings.Join(msgs, "; "))
}

func (e OpenErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

// Paths returns the paths that failed to open
func (e OpenErrors) Paths() []string {
	paths := make([]string, len(e))
	for i, err := range e {
		paths[i] = err.Path
	}
	return paths
}
