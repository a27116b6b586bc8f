/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cryptoutil provides the secret-buffer hygiene shared by the JOSE
// packages: zeroization before release, constant-time comparison and a single
// CSPRNG entry point.
package cryptoutil

import (
	"crypto/hmac"

	"github.com/google/tink/go/subtle/random"
)

// RandomBytes returns n cryptographically strong random bytes.
func RandomBytes(n int) []byte {
	return random.GetRandomBytes(uint32(n))
}

// Zero overwrites b with zero bytes. Key material must pass through here
// before the last reference to it is dropped.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeEqual compares a and b without leaking where they differ.
// Unequal lengths compare as unequal, not as an error.
func ConstantTimeEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}

// Secret is a byte buffer holding key material that must be scrubbed before
// it is released.
type Secret struct {
	buf []byte
}

// NewSecret copies b into a fresh secret buffer; the caller keeps ownership
// of b.
func NewSecret(b []byte) *Secret {
	s := &Secret{buf: make([]byte, len(b))}
	copy(s.buf, b)

	return s
}

// AdoptSecret takes ownership of b as a secret buffer. The caller must not
// touch b afterwards; no scrubbed copy of it is left behind.
func AdoptSecret(b []byte) *Secret {
	return &Secret{buf: b}
}

// Bytes exposes the underlying buffer. The buffer is only valid until Zero
// is called.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}

	return s.buf
}

// Len returns the buffer length.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}

	return len(s.buf)
}

// Zero scrubs and drops the buffer.
func (s *Secret) Zero() {
	if s == nil {
		return
	}

	Zero(s.buf)
	s.buf = nil
}
