/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// Decrypt recovers the plaintext of a single-recipient JWE. Authentication
// failures, wrong keys and tampered segments all surface as the Crypto code
// with no further distinction.
func (e *JSONWebEncryption) Decrypt(key *jwk.JWK) ([]byte, error) {
	if key == nil {
		return nil, errs.New(errs.InvalidArgument, "decrypt: key required")
	}

	if len(e.recipients) != 1 {
		return nil, errs.New(errs.InvalidArgument, "decrypt: multiple recipients, use DecryptMulti")
	}

	cc, err := e.contentCipher()
	if err != nil {
		return nil, err
	}

	rec := e.recipients[0]

	cek, err := rec.keyMgmt.unwrap(e, rec, key, cc)
	if err != nil {
		return nil, err
	}
	defer cek.Zero()

	return e.decryptContent(cc, cek)
}

// DecryptMulti recovers the plaintext of a JWE with any number of
// recipients. The locator is invoked once per recipient and may skip
// recipients by returning nil; every recipient it does resolve must unwrap
// to the same CEK.
func (e *JSONWebEncryption) DecryptMulti(locate KeyLocator) ([]byte, error) {
	if locate == nil {
		return nil, errs.New(errs.InvalidArgument, "decrypt: key locator required")
	}

	cc, err := e.contentCipher()
	if err != nil {
		return nil, err
	}

	var cek *cryptoutil.Secret

	defer func() {
		cek.Zero()
	}()

	for _, rec := range e.recipients {
		key := locate(e, rec.header)
		if key == nil {
			continue
		}

		candidate, unwrapErr := rec.keyMgmt.unwrap(e, rec, key, cc)
		if unwrapErr != nil {
			return nil, unwrapErr
		}

		if cek == nil {
			cek = candidate

			continue
		}

		agreed := equalCEK(cek, candidate)

		candidate.Zero()

		if !agreed {
			return nil, errs.New(errs.Crypto, "decrypt: recipients disagree on the CEK")
		}
	}

	if cek == nil {
		return nil, errs.New(errs.InvalidArgument, "decrypt: key locator resolved no recipient key")
	}

	return e.decryptContent(cc, cek)
}

func (e *JSONWebEncryption) decryptContent(cc contentCipher, cek *cryptoutil.Secret) ([]byte, error) {
	if cek.Len() != cc.keySize() {
		return nil, errs.New(errs.Crypto, "decrypt content")
	}

	return cc.decrypt(cek.Bytes(), []byte(e.header.b64), e.iv.raw, e.ciphertext.raw, e.tag.raw)
}
