/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/errs"
)

// Encrypt encrypts plaintext for a single recipient. The protected header
// must carry the enc attribute and, unless supplied per recipient, the alg
// attribute. The header is deep-copied; the caller keeps its reference.
func Encrypt(key *jwk.JWK, protected *Header, plaintext []byte) (*JSONWebEncryption, error) {
	return EncryptMulti([]Recipient{{Key: key}}, protected, nil, plaintext)
}

// EncryptMulti encrypts plaintext for one or more recipients under a single
// content encryption pass. All recipients share the CEK, so with more than
// one recipient every key management algorithm must wrap a CEK rather than
// determine it: dir and ECDH-ES are rejected. Each recipient's alg resolves
// through its own header, then the shared unprotected header, then the
// protected header.
func EncryptMulti(recipients []Recipient, protected, unprotected *Header, plaintext []byte) (*JSONWebEncryption, error) {
	if len(recipients) == 0 {
		return nil, errs.New(errs.InvalidArgument, "encrypt: at least one recipient required")
	}

	if protected == nil {
		return nil, errs.New(errs.InvalidArgument, "encrypt: protected header required")
	}

	e := &JSONWebEncryption{
		protected:   protected.Clone(),
		unprotected: unprotected.Retain(),
	}

	if err := e.encrypt(recipients, plaintext); err != nil {
		e.Release()

		return nil, err
	}

	return e, nil
}

func (e *JSONWebEncryption) encrypt(recipients []Recipient, plaintext []byte) error {
	defer e.scrubCEK()

	cc, err := e.contentCipher()
	if err != nil {
		return err
	}

	multi := len(recipients) > 1

	for _, r := range recipients {
		if r.Key == nil {
			return errs.New(errs.InvalidArgument, "encrypt: recipient key required")
		}

		rec := &jweRecipient{header: r.Header.Retain()}
		e.recipients = append(e.recipients, rec)

		alg, ok := getFromHeaders(HeaderAlgorithm, rec.header, e.unprotected, e.protected)
		if !ok {
			return errs.New(errs.InvalidArgument, "encrypt: no alg header for recipient")
		}

		if rec.keyMgmt, err = newKeyManager(KeyAlg(alg)); err != nil {
			return err
		}

		if multi && rec.keyMgmt.singleRecipient() {
			return errs.Newf(errs.InvalidArgument,
				"encrypt: %s cannot address multiple recipients", alg)
		}

		if err = rec.keyMgmt.wrap(e, rec, r.Key, cc); err != nil {
			return err
		}
	}

	// The protected header serializes after key management so that the epk
	// attribute added by ECDH-ES is integrity protected.
	headerJSON, err := e.protected.MarshalJSON()
	if err != nil {
		return err
	}

	e.header = newPart(headerJSON)

	iv, ciphertext, tag, err := cc.encrypt(e.cek.Bytes(), []byte(e.header.b64), plaintext)
	if err != nil {
		return err
	}

	e.iv = newPart(iv)
	e.ciphertext = newPart(ciphertext)
	e.tag = newPart(tag)

	return nil
}
