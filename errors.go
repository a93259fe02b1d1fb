// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures.
type Kind int

const (
	// KindSceneLoad: the scene description is missing or invalid.
	KindSceneLoad Kind = iota + 1

	// KindContext: the surface context could not be created or made current.
	KindContext

	// KindAllocation: a render target could not be allocated.
	KindAllocation

	// KindRender: the scene could not be drawn into the target.
	KindRender

	// KindReadback: the target could not be read back.
	KindReadback

	// KindPersist: the frame could not be written.
	KindPersist
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrSceneLoad  = errors.New("scene load failed")
	ErrContext    = errors.New("surface context failed")
	ErrAllocation = errors.New("target allocation failed")
	ErrRender     = errors.New("scene render failed")
	ErrReadback   = errors.New("readback failed")
	ErrPersist    = errors.New("persist failed")
)

var kindSentinels = map[Kind]error{
	KindSceneLoad:  ErrSceneLoad,
	KindContext:    ErrContext,
	KindAllocation: ErrAllocation,
	KindRender:     ErrRender,
	KindReadback:   ErrReadback,
	KindPersist:    ErrPersist,
}

func (k Kind) String() string {
	switch k {
	case KindSceneLoad:
		return "scene load"
	case KindContext:
		return "context"
	case KindAllocation:
		return "allocation"
	case KindRender:
		return "render"
	case KindReadback:
		return "readback"
	case KindPersist:
		return "persist"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fatal reports whether a failure of this kind at startup must stop the
// process. Every other kind skips the current frame and is retried on the
// next trigger.
func (k Kind) Fatal() bool {
	return k == KindSceneLoad || k == KindContext
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("offscreen: %v: %v", kindSentinels[e.Kind], e.Err)
	}
	return fmt.Sprintf("offscreen: %s: %v: %v", e.Op, kindSentinels[e.Kind], e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && target == s
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
