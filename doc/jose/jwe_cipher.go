/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/aes"
	"crypto/cipher"

	josecipher "github.com/go-jose/go-jose/v3/cipher"

	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

const (
	gcmIVSize  = 12
	gcmTagSize = 16
	cbcIVSize  = 16
)

// contentCipher encrypts and decrypts the JWE payload under a CEK. The AAD is
// always the ASCII bytes of the base64url-encoded protected header.
type contentCipher interface {
	enc() EncAlg

	// keySize returns the CEK size in bytes.
	keySize() int

	encrypt(cek, aad, plaintext []byte) (iv, ciphertext, tag []byte, err error)
	decrypt(cek, aad, iv, ciphertext, tag []byte) ([]byte, error)
}

func newContentCipher(enc EncAlg) (contentCipher, error) {
	switch enc {
	case A256GCM:
		return gcmCipher{}, nil
	case A128CBCHS256:
		return cbcCipher{name: enc, cekSize: 32}, nil
	case A192CBCHS384:
		return cbcCipher{name: enc, cekSize: 48}, nil
	case A256CBCHS512:
		return cbcCipher{name: enc, cekSize: 64}, nil
	default:
		return nil, errs.Newf(errs.InvalidArgument, "unsupported content encryption algorithm %q", enc)
	}
}

// gcmCipher implements A256GCM with a 96-bit random IV and a 128-bit tag.
type gcmCipher struct{}

func (gcmCipher) enc() EncAlg { return A256GCM }

func (gcmCipher) keySize() int { return 32 }

func (gcmCipher) encrypt(cek, aad, plaintext []byte) ([]byte, []byte, []byte, error) {
	aead, err := newGCM(cek)
	if err != nil {
		return nil, nil, nil, err
	}

	iv := cryptoutil.RandomBytes(gcmIVSize)

	sealed := aead.Seal(nil, iv, plaintext, aad)

	split := len(sealed) - gcmTagSize

	return iv, sealed[:split], sealed[split:], nil
}

func (gcmCipher) decrypt(cek, aad, iv, ciphertext, tag []byte) ([]byte, error) {
	aead, err := newGCM(cek)
	if err != nil {
		return nil, err
	}

	if len(iv) != gcmIVSize || len(tag) != gcmTagSize {
		return nil, errs.New(errs.Crypto, "decrypt content")
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, errs.New(errs.Crypto, "decrypt content")
	}

	return plaintext, nil
}

func newGCM(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "init AES")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "init GCM")
	}

	return aead, nil
}

// cbcCipher implements the AES-CBC + HMAC-SHA2 composites of RFC 7518
// section 5.2. The CEK splits into a MAC half and an encryption half; the
// authentication tag is the leading half of the HMAC over
// AAD || IV || ciphertext || bits(AAD) as a 64-bit big-endian count.
type cbcCipher struct {
	name    EncAlg
	cekSize int
}

func (c cbcCipher) enc() EncAlg { return c.name }

func (c cbcCipher) keySize() int { return c.cekSize }

func (c cbcCipher) encrypt(cek, aad, plaintext []byte) ([]byte, []byte, []byte, error) {
	aead, err := josecipher.NewCBCHMAC(cek, aes.NewCipher)
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.Crypto, err, "init AES-CBC-HMAC")
	}

	iv := cryptoutil.RandomBytes(cbcIVSize)

	sealed := aead.Seal(nil, iv, plaintext, aad)

	// Seal appends the truncated HMAC tag, half the CEK size, after the
	// padded ciphertext.
	split := len(sealed) - c.cekSize/2

	return iv, sealed[:split], sealed[split:], nil
}

func (c cbcCipher) decrypt(cek, aad, iv, ciphertext, tag []byte) ([]byte, error) {
	aead, err := josecipher.NewCBCHMAC(cek, aes.NewCipher)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "init AES-CBC-HMAC")
	}

	if len(iv) != cbcIVSize || len(tag) != c.cekSize/2 {
		return nil, errs.New(errs.Crypto, "decrypt content")
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, errs.New(errs.Crypto, "decrypt content")
	}

	return plaintext, nil
}
