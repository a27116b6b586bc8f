/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"strings"

	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/base64url"
	"github.com/trustbloc/jose-go/util/errs"
)

// JSONWebSignature represents a JWS as defined in
// https://tools.ietf.org/html/rfc7515, restricted to the compact
// serialization. Instances come from Sign or ParseSigned and are immutable;
// the compact form is settled at construction time, so CompactSerialize is a
// cheap accessor. A parsed JWS verifies against the exact wire segments, not
// a re-serialization.
type JSONWebSignature struct {
	header    *Header
	headerB64 string

	payload    []byte
	payloadB64 string

	signature    []byte
	signatureB64 string

	compact string

	sigAlg signatureAlg // nil for a parsed JWS with alg none
}

// Sign signs the payload under the given protected header. The header must
// carry a supported alg attribute; signing with alg none is refused. The
// header is retained, not copied.
func Sign(key *jwk.JWK, protected *Header, payload []byte) (*JSONWebSignature, error) {
	if key == nil {
		return nil, errs.New(errs.InvalidArgument, "sign: key required")
	}

	if protected == nil {
		return nil, errs.New(errs.InvalidArgument, "sign: protected header required")
	}

	alg, ok := protected.Get(HeaderAlgorithm)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "sign: protected header has no alg attribute")
	}

	sigAlg, err := newSignatureAlg(SigAlg(alg))
	if err != nil {
		return nil, err
	}

	headerJSON, err := protected.MarshalJSON()
	if err != nil {
		return nil, err
	}

	s := &JSONWebSignature{
		header:     protected.Retain(),
		headerB64:  base64url.Encode(headerJSON, true),
		payload:    payload,
		payloadB64: base64url.Encode(payload, true),
		sigAlg:     sigAlg,
	}

	digest, err := sigAlg.digest([]byte(s.signingInput()), key)
	if err != nil {
		s.Release()

		return nil, err
	}

	if s.signature, err = sigAlg.sign(digest, key); err != nil {
		s.Release()

		return nil, err
	}

	s.signatureB64 = base64url.Encode(s.signature, true)
	s.compact = s.signingInput() + "." + s.signatureB64

	return s, nil
}

// ParseSigned parses a compact JWS serialization. A JWS with alg none is
// accepted for header and payload introspection, but only with an empty
// signature, and Verify refuses it.
func ParseSigned(compact string) (*JSONWebSignature, error) {
	segments := strings.Split(compact, ".")
	if len(segments) != 3 {
		return nil, errs.Newf(errs.InvalidArgument, "compact JWS must have 3 segments, got %d", len(segments))
	}

	if segments[0] == "" {
		return nil, errs.New(errs.InvalidArgument, "compact JWS header segment must not be empty")
	}

	headerJSON, err := base64url.Decode(segments[0], true)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWS header segment")
	}

	header, err := ParseHeader(headerJSON)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWS header")
	}

	s := &JSONWebSignature{
		header:       header,
		headerB64:    segments[0],
		payloadB64:   segments[1],
		signatureB64: segments[2],
		compact:      compact,
	}

	if s.payload, err = base64url.Decode(segments[1], true); err != nil {
		s.Release()

		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWS payload segment")
	}

	if s.signature, err = base64url.Decode(segments[2], true); err != nil {
		s.Release()

		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWS signature segment")
	}

	alg, ok := header.Get(HeaderAlgorithm)
	if !ok {
		s.Release()

		return nil, errs.New(errs.InvalidArgument, "JWS header has no alg attribute")
	}

	if SigAlg(alg) == None {
		if len(s.signature) != 0 {
			s.Release()

			return nil, errs.New(errs.InvalidArgument, "JWS with alg none must have an empty signature")
		}

		return s, nil
	}

	if s.sigAlg, err = newSignatureAlg(SigAlg(alg)); err != nil {
		s.Release()

		return nil, err
	}

	return s, nil
}

// Verify checks the signature against the given key. A failed check is a
// Crypto error; verifying a JWS parsed with alg none is an InvalidArgument
// error.
func (s *JSONWebSignature) Verify(key *jwk.JWK) error {
	if key == nil {
		return errs.New(errs.InvalidArgument, "verify: key required")
	}

	if s.sigAlg == nil {
		return errs.New(errs.InvalidArgument, "verify: JWS with alg none cannot be verified")
	}

	digest, err := s.sigAlg.digest([]byte(s.signingInput()), key)
	if err != nil {
		return err
	}

	return s.sigAlg.verify(digest, s.signature, key)
}

// CompactSerialize returns the compact serialization settled at construction
// time.
func (s *JSONWebSignature) CompactSerialize() (string, error) {
	if s.compact == "" {
		return "", errs.New(errs.InvalidState, "JWS has no serialization")
	}

	return s.compact, nil
}

// Payload returns the signed payload bytes.
func (s *JSONWebSignature) Payload() []byte {
	return s.payload
}

// Signature returns the raw signature bytes.
func (s *JSONWebSignature) Signature() []byte {
	return s.signature
}

// ProtectedHeaders returns the protected header of the JWS. The returned
// header is owned by the JWS; callers must Retain it to hold it past the
// JWS's Release.
func (s *JSONWebSignature) ProtectedHeaders() *Header {
	return s.header
}

// Release drops the JWS's reference to its header.
func (s *JSONWebSignature) Release() {
	if s == nil {
		return
	}

	s.header.Release()
}

// signingInput is the ASCII signing input of RFC 7515 section 5.1:
// BASE64URL(header) || '.' || BASE64URL(payload).
func (s *JSONWebSignature) signingInput() string {
	return s.headerB64 + "." + s.payloadB64
}
