/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errs defines the error taxonomy shared by the JOSE packages.
//
// Every failure carries one of four codes. Cryptographic failures collapse
// distinct low-level causes (wrong key, tampered ciphertext, bad signature)
// into the single Crypto code so that callers cannot be turned into padding
// or timing oracles.
package errs

import (
	"github.com/pkg/errors"
)

// Code classifies a failure.
type Code int

const (
	// None is the zero value and never attached to a returned error.
	None Code = iota

	// InvalidArgument covers malformed inputs, wrong key types or sizes and
	// malformed serializations.
	InvalidArgument

	// InvalidState covers operations invoked on an object that is not in the
	// required state for them.
	InvalidState

	// NoMemory covers allocation failures during object construction.
	NoMemory

	// Crypto covers any failure surfaced by an underlying primitive,
	// including authentication tag mismatches and signature failures.
	Crypto
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "invalid argument"
	case InvalidState:
		return "invalid state"
	case NoMemory:
		return "no memory"
	case Crypto:
		return "crypto error"
	default:
		return "ok"
	}
}

// Error is a coded error. The wrapped cause chain carries stack provenance
// captured at construction time via pkg/errors.
type Error struct {
	code  Code
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.code.String() + ": " + e.cause.Error()
}

// Code returns the error's code.
func (e *Error) Code() Code {
	return e.code
}

// Unwrap exposes the cause chain to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a coded error from a message, capturing the caller's stack.
func New(code Code, msg string) error {
	return &Error{code: code, cause: errors.New(msg)}
}

// Newf builds a coded error from a format string, capturing the caller's
// stack.
func Newf(code Code, format string, args ...interface{}) error {
	return &Error{code: code, cause: errors.Errorf(format, args...)}
}

// Wrap annotates cause with msg and a code. A nil cause returns nil. If cause
// already carries a code it is preserved unless it is None.
func Wrap(code Code, cause error, msg string) error {
	if cause == nil {
		return nil
	}

	if c := CodeOf(cause); c != None {
		code = c
	}

	return &Error{code: code, cause: errors.WithMessage(cause, msg)}
}

// Wrapf is Wrap with a format string.
func Wrapf(code Code, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}

	if c := CodeOf(cause); c != None {
		code = c
	}

	return &Error{code: code, cause: errors.WithMessagef(cause, format, args...)}
}

// CodeOf extracts the code from err, or None for uncoded errors.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}

	return None
}

// IsInvalidArgument reports whether err carries the InvalidArgument code.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == InvalidArgument
}

// IsCrypto reports whether err carries the Crypto code.
func IsCrypto(err error) bool {
	return CodeOf(err) == Crypto
}

// IsInvalidState reports whether err carries the InvalidState code.
func IsInvalidState(err error) bool {
	return CodeOf(err) == InvalidState
}
