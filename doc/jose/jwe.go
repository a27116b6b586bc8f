/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/json"
	"strings"

	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/base64url"
	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// JSONWebEncryption represents a JWE as defined in
// https://tools.ietf.org/html/rfc7516. Instances are produced by Encrypt,
// EncryptMulti, ParseEncrypted and ParseEncryptedJSON and are immutable
// afterwards; a parsed JWE keeps the exact base64url segments from the wire
// so the AAD used for decryption matches the sender's bytes.
type JSONWebEncryption struct {
	protected   *Header
	unprotected *Header
	recipients  []*jweRecipient

	header     part // serialized protected header
	iv         part
	ciphertext part
	tag        part

	cek *cryptoutil.Secret // transient, zeroed at the end of Encrypt/Decrypt
}

type jweRecipient struct {
	header       *Header // per-recipient unprotected header, may be nil
	encryptedKey part
	keyMgmt      keyManager
}

// Recipient pairs a key with an optional per-recipient unprotected header for
// EncryptMulti.
type Recipient struct {
	Key    *jwk.JWK
	Header *Header
}

// KeyLocator resolves the decryption key for one recipient of a JWE. It is
// called once per recipient with that recipient's unprotected header (nil for
// serializations without one). Returning nil skips the recipient.
type KeyLocator func(e *JSONWebEncryption, recipientHeader *Header) *jwk.JWK

// part is one base64url segment of a JWE. A parsed part keeps the original
// encoding alongside the decoded bytes.
type part struct {
	raw []byte
	b64 string
}

func newPart(raw []byte) part {
	return part{raw: raw, b64: base64url.Encode(raw, true)}
}

func parsePart(b64 string) (part, error) {
	raw, err := base64url.Decode(b64, true)
	if err != nil {
		return part{}, err
	}

	return part{raw: raw, b64: b64}, nil
}

// rawJSONWebEncryption is the JSON serialization envelope defined in
// https://tools.ietf.org/html/rfc7516#section-7.2, covering both the general
// and the flattened form. EncryptedKey is a pointer so that the empty
// encrypted key of direct encryption survives a round trip.
type rawJSONWebEncryption struct {
	Protected    string          `json:"protected,omitempty"`
	Unprotected  json.RawMessage `json:"unprotected,omitempty"`
	Recipients   []rawRecipient  `json:"recipients,omitempty"`
	Header       json.RawMessage `json:"header,omitempty"`
	EncryptedKey *string         `json:"encrypted_key,omitempty"`
	IV           string          `json:"iv,omitempty"`
	Ciphertext   string          `json:"ciphertext,omitempty"`
	Tag          string          `json:"tag,omitempty"`
}

type rawRecipient struct {
	Header       json.RawMessage `json:"header,omitempty"`
	EncryptedKey *string         `json:"encrypted_key,omitempty"`
}

// ProtectedHeaders returns the integrity-protected header of the JWE. The
// returned header is owned by the JWE; callers must Retain it to hold it past
// the JWE's Release.
func (e *JSONWebEncryption) ProtectedHeaders() *Header {
	return e.protected
}

// UnprotectedHeaders returns the shared unprotected header, or nil.
func (e *JSONWebEncryption) UnprotectedHeaders() *Header {
	return e.unprotected
}

// RecipientCount returns the number of recipients.
func (e *JSONWebEncryption) RecipientCount() int {
	return len(e.recipients)
}

// RecipientHeaders returns the unprotected header of recipient i, or nil.
func (e *JSONWebEncryption) RecipientHeaders(i int) *Header {
	if i < 0 || i >= len(e.recipients) {
		return nil
	}

	return e.recipients[i].header
}

// Release drops the JWE's references to its headers and scrubs any remaining
// key material.
func (e *JSONWebEncryption) Release() {
	if e == nil {
		return
	}

	e.protected.Release()
	e.unprotected.Release()

	for _, rec := range e.recipients {
		rec.header.Release()
	}

	e.scrubCEK()
}

// CompactSerialize serializes the JWE into the compact form defined in
// https://tools.ietf.org/html/rfc7516#section-7.1. The compact form cannot
// represent multiple recipients or unprotected headers.
func (e *JSONWebEncryption) CompactSerialize() (string, error) {
	if len(e.recipients) != 1 {
		return "", errs.New(errs.InvalidArgument, "compact serialization requires exactly one recipient")
	}

	if e.unprotected.Len() > 0 || e.recipients[0].header.Len() > 0 {
		return "", errs.New(errs.InvalidArgument, "compact serialization cannot carry unprotected headers")
	}

	return strings.Join([]string{
		e.header.b64,
		e.recipients[0].encryptedKey.b64,
		e.iv.b64,
		e.ciphertext.b64,
		e.tag.b64,
	}, "."), nil
}

// FullSerialize serializes the JWE into the JSON form defined in
// https://tools.ietf.org/html/rfc7516#section-7.2, using the flattened layout
// for a single recipient and the general layout otherwise.
func (e *JSONWebEncryption) FullSerialize() (string, error) {
	raw := rawJSONWebEncryption{
		Protected:  e.header.b64,
		IV:         e.iv.b64,
		Ciphertext: e.ciphertext.b64,
		Tag:        e.tag.b64,
	}

	if e.unprotected.Len() > 0 {
		unprotected, err := e.unprotected.MarshalJSON()
		if err != nil {
			return "", err
		}

		raw.Unprotected = unprotected
	}

	if len(e.recipients) == 1 {
		rec, err := e.recipients[0].serialize()
		if err != nil {
			return "", err
		}

		raw.Header = rec.Header
		raw.EncryptedKey = rec.EncryptedKey
	} else {
		for _, recipient := range e.recipients {
			rec, err := recipient.serialize()
			if err != nil {
				return "", err
			}

			raw.Recipients = append(raw.Recipients, rec)
		}
	}

	serialized, err := json.Marshal(raw)
	if err != nil {
		return "", errs.Wrap(errs.InvalidState, err, "serialize JWE")
	}

	return string(serialized), nil
}

func (r *jweRecipient) serialize() (rawRecipient, error) {
	encryptedKey := r.encryptedKey.b64

	rec := rawRecipient{EncryptedKey: &encryptedKey}

	if r.header.Len() > 0 {
		header, err := r.header.MarshalJSON()
		if err != nil {
			return rawRecipient{}, err
		}

		rec.Header = header
	}

	return rec, nil
}

// ParseEncrypted parses a compact JWE serialization. The input must consist
// of exactly five base64url segments; only the encrypted key and ciphertext
// segments may be empty.
func ParseEncrypted(compact string) (*JSONWebEncryption, error) {
	segments := strings.Split(compact, ".")
	if len(segments) != 5 {
		return nil, errs.Newf(errs.InvalidArgument, "compact JWE must have 5 segments, got %d", len(segments))
	}

	for i, segment := range segments {
		if segment == "" && i != 1 && i != 3 {
			return nil, errs.Newf(errs.InvalidArgument, "compact JWE segment %d must not be empty", i)
		}
	}

	e := &JSONWebEncryption{}
	recipient := &jweRecipient{}

	var err error

	if e.header, err = parsePart(segments[0]); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE protected header segment")
	}

	if recipient.encryptedKey, err = parsePart(segments[1]); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE encrypted key segment")
	}

	if e.iv, err = parsePart(segments[2]); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE IV segment")
	}

	if e.ciphertext, err = parsePart(segments[3]); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE ciphertext segment")
	}

	if e.tag, err = parsePart(segments[4]); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE tag segment")
	}

	e.recipients = []*jweRecipient{recipient}

	if err = e.validateParsed(); err != nil {
		e.Release()

		return nil, err
	}

	return e, nil
}

// ParseEncryptedJSON parses a JSON JWE serialization, accepting both the
// general form with a recipients array and the flattened single-recipient
// form.
func ParseEncryptedJSON(serialized string) (*JSONWebEncryption, error) {
	var raw rawJSONWebEncryption

	if err := json.Unmarshal([]byte(serialized), &raw); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JSON JWE")
	}

	if raw.Protected == "" || raw.IV == "" || raw.Ciphertext == "" || raw.Tag == "" {
		return nil, errs.New(errs.InvalidArgument, "JSON JWE is missing a required member")
	}

	e := &JSONWebEncryption{}

	var err error

	if e.header, err = parsePart(raw.Protected); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE protected header")
	}

	if e.iv, err = parsePart(raw.IV); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE IV")
	}

	if e.ciphertext, err = parsePart(raw.Ciphertext); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE ciphertext")
	}

	if e.tag, err = parsePart(raw.Tag); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE tag")
	}

	if len(raw.Unprotected) > 0 {
		if e.unprotected, err = ParseHeader(raw.Unprotected); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE shared unprotected header")
		}
	}

	rawRecipients := raw.Recipients
	if rawRecipients == nil {
		// Flattened form: the recipient members live on the top-level object.
		rawRecipients = []rawRecipient{{Header: raw.Header, EncryptedKey: raw.EncryptedKey}}
	} else if len(rawRecipients) == 0 {
		e.Release()

		return nil, errs.New(errs.InvalidArgument, "JSON JWE has an empty recipients array")
	}

	for _, rawRec := range rawRecipients {
		rec, recErr := parseRecipient(rawRec)
		if recErr != nil {
			e.Release()

			return nil, recErr
		}

		e.recipients = append(e.recipients, rec)
	}

	if err = e.validateParsed(); err != nil {
		e.Release()

		return nil, err
	}

	return e, nil
}

func parseRecipient(raw rawRecipient) (*jweRecipient, error) {
	if raw.EncryptedKey == nil {
		return nil, errs.New(errs.InvalidArgument, "JWE recipient is missing the encrypted_key member")
	}

	rec := &jweRecipient{}

	var err error

	if rec.encryptedKey, err = parsePart(*raw.EncryptedKey); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE recipient encrypted key")
	}

	if len(raw.Header) > 0 {
		if rec.header, err = ParseHeader(raw.Header); err != nil {
			return nil, errs.Wrap(errs.InvalidArgument, err, "parse JWE recipient header")
		}
	}

	return rec, nil
}

// validateParsed parses the protected header and binds a key management
// algorithm to every recipient, rejecting serializations this codec cannot
// process. The content encryption algorithm is validated as well so that an
// unsupported enc fails at parse time rather than at decrypt time.
func (e *JSONWebEncryption) validateParsed() error {
	protected, err := ParseHeader(e.header.raw)
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, err, "parse JWE protected header")
	}

	e.protected = protected

	if _, err = e.contentCipher(); err != nil {
		return err
	}

	for _, rec := range e.recipients {
		alg, ok := getFromHeaders(HeaderAlgorithm, rec.header, e.unprotected, e.protected)
		if !ok {
			return errs.New(errs.InvalidArgument, "JWE recipient has no alg header")
		}

		if rec.keyMgmt, err = newKeyManager(KeyAlg(alg)); err != nil {
			return err
		}
	}

	return nil
}

// contentCipher resolves the content encryption algorithm from the protected
// header. The enc attribute must be integrity protected.
func (e *JSONWebEncryption) contentCipher() (contentCipher, error) {
	enc, ok := e.protected.Get(HeaderEncryption)
	if !ok {
		return nil, errs.New(errs.InvalidArgument, "JWE protected header has no enc attribute")
	}

	return newContentCipher(EncAlg(enc))
}

func (e *JSONWebEncryption) scrubCEK() {
	e.cek.Zero()
	e.cek = nil
}
