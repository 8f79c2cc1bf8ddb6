package main

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	exitFailed = 1 // validation found errors, or bad usage
	exitInfra  = 2 // the run itself could not complete
)

// exitError is an error that carries the process exit code.
type exitError struct {
	code  int
	msg   string
	cause error
}

func (e *exitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *exitError) Unwrap() error { return e.cause }

func exitErrorf(code int, format string, args ...any) error {
	return &exitError{code: code, msg: fmt.Sprintf(format, args...)}
}

func exitWrap(code int, msg string, cause error) error {
	if cause == nil {
		return &exitError{code: code, msg: msg}
	}
	return &exitError{code: code, msg: msg, cause: cause}
}

// exitCodeOf maps err to a process exit code. Errors without a code, such
// as cobra's argument errors, exit 1.
func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) && ee.code > 0 {
		return ee.code
	}
	return exitFailed
}
