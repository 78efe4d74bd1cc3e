// Package errors provides error constructors that tag every error with the
// file and line of the call site. Failures in the request/stream/tool path
// surface several layers up, and the tag makes them traceable without
// carrying full stack traces around.
package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// callSite reports the file:line skip+1 frames above this function.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "???:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// New creates a new error carrying the caller's file and line.
func New(format string, a ...any) error {
	return fmt.Errorf("[%s] %s", callSite(1), fmt.Sprintf(format, a...))
}

// Wrap adds a message and the caller's file and line to an existing error.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", callSite(1), msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("[%s] %s: %w", callSite(1), fmt.Sprintf(format, a...), err)
}
