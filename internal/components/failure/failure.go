// Package failure defines the error kinds shared by the collector and the
// analyzer. Every error that leaves a pipeline stage carries exactly one kind
// and the name of the stage that produced it.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is an invalid or expired credential, it is never retried.
	ErrAuth = errors.New("auth error")
	// ErrNetwork is a transport or http failure that persisted through retries.
	ErrNetwork = errors.New("network error")
	// ErrData is missing or malformed input, or a corpus that is empty after cleaning.
	ErrData = errors.New("data error")
	// ErrConfig is a missing or invalid configuration value.
	ErrConfig = errors.New("config error")
)

// Error attaches a kind and a stage to an underlying error.
type Error struct {
	Kind  error
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, stage string, err error) error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func Auth(stage string, err error) error {
	return newError(ErrAuth, stage, err)
}

func Network(stage string, err error) error {
	return newError(ErrNetwork, stage, err)
}

func Data(stage string, err error) error {
	return newError(ErrData, stage, err)
}

func Config(stage string, err error) error {
	return newError(ErrConfig, stage, err)
}

// KindOf returns the kind of the first kinded error in the chain, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// StageOf returns the stage of the first kinded error in the chain.
func StageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
