/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha256" // SHA-256 for the *256 algorithms
	_ "crypto/sha512" // SHA-384/SHA-512 for the *384 and *512 algorithms
	"math/big"

	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// signatureAlg implements one JWS signature algorithm as the digest, sign
// and verify triple. The digest step depends on the key for the HMAC family,
// where the digest already is the signature material.
type signatureAlg interface {
	alg() SigAlg
	digest(signingInput []byte, key *jwk.JWK) ([]byte, error)
	sign(digest []byte, key *jwk.JWK) ([]byte, error)
	verify(digest, signature []byte, key *jwk.JWK) error
}

func newSignatureAlg(alg SigAlg) (signatureAlg, error) {
	switch alg {
	case HS256:
		return hmacSigAlg{name: alg, hash: crypto.SHA256}, nil
	case HS384:
		return hmacSigAlg{name: alg, hash: crypto.SHA384}, nil
	case HS512:
		return hmacSigAlg{name: alg, hash: crypto.SHA512}, nil
	case RS256:
		return rsaSigAlg{name: alg, hash: crypto.SHA256}, nil
	case RS384:
		return rsaSigAlg{name: alg, hash: crypto.SHA384}, nil
	case RS512:
		return rsaSigAlg{name: alg, hash: crypto.SHA512}, nil
	case PS256:
		return rsaSigAlg{name: alg, hash: crypto.SHA256, pss: true}, nil
	case PS384:
		return rsaSigAlg{name: alg, hash: crypto.SHA384, pss: true}, nil
	case PS512:
		return rsaSigAlg{name: alg, hash: crypto.SHA512, pss: true}, nil
	case ES256:
		return ecdsaSigAlg{name: alg, hash: crypto.SHA256, crv: jwk.P256}, nil
	case ES384:
		return ecdsaSigAlg{name: alg, hash: crypto.SHA384, crv: jwk.P384}, nil
	case ES512:
		return ecdsaSigAlg{name: alg, hash: crypto.SHA512, crv: jwk.P521}, nil
	case None:
		return nil, errs.New(errs.InvalidArgument, "alg none is not usable for signing or verifying")
	default:
		return nil, errs.Newf(errs.InvalidArgument, "unsupported signature algorithm %q", alg)
	}
}

// hmacSigAlg implements HS256/HS384/HS512. The digest is the HMAC itself and
// signing just hands it back; verification is a constant-time comparison.
type hmacSigAlg struct {
	name SigAlg
	hash crypto.Hash
}

func (a hmacSigAlg) alg() SigAlg { return a.name }

func (a hmacSigAlg) digest(signingInput []byte, key *jwk.JWK) ([]byte, error) {
	if key.Kty() != jwk.KtyOct {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be symmetric", a.name)
	}

	mac := hmac.New(a.hash.New, key.Symmetric())
	mac.Write(signingInput)

	return mac.Sum(nil), nil
}

func (a hmacSigAlg) sign(digest []byte, _ *jwk.JWK) ([]byte, error) {
	signature := make([]byte, len(digest))
	copy(signature, digest)

	return signature, nil
}

func (a hmacSigAlg) verify(digest, signature []byte, _ *jwk.JWK) error {
	if !cryptoutil.ConstantTimeEqual(digest, signature) {
		return errs.Newf(errs.Crypto, "%s: signature mismatch", a.name)
	}

	return nil
}

// rsaSigAlg implements RS256/RS384/RS512 (PKCS#1 v1.5) and PS256/PS384/PS512
// (PSS with the salt length equal to the hash length).
type rsaSigAlg struct {
	name SigAlg
	hash crypto.Hash
	pss  bool
}

func (a rsaSigAlg) alg() SigAlg { return a.name }

func (a rsaSigAlg) digest(signingInput []byte, key *jwk.JWK) ([]byte, error) {
	if key.Kty() != jwk.KtyRSA {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be RSA", a.name)
	}

	return hashInput(a.hash, signingInput), nil
}

func (a rsaSigAlg) sign(digest []byte, key *jwk.JWK) ([]byte, error) {
	priv := key.RSAPrivate()
	if priv == nil {
		return nil, errs.Newf(errs.InvalidArgument, "%s: signing requires a private key", a.name)
	}

	var (
		signature []byte
		err       error
	)

	if a.pss {
		signature, err = rsa.SignPSS(rand.Reader, priv, a.hash, digest,
			&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: a.hash})
	} else {
		signature, err = rsa.SignPKCS1v15(rand.Reader, priv, a.hash, digest)
	}

	if err != nil {
		return nil, errs.Wrapf(errs.Crypto, err, "%s: sign", a.name)
	}

	return signature, nil
}

func (a rsaSigAlg) verify(digest, signature []byte, key *jwk.JWK) error {
	pub := key.RSAPublic()
	if pub == nil {
		return errs.Newf(errs.InvalidArgument, "%s: key must be RSA", a.name)
	}

	var err error

	if a.pss {
		err = rsa.VerifyPSS(pub, a.hash, digest, signature,
			&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: a.hash})
	} else {
		err = rsa.VerifyPKCS1v15(pub, a.hash, digest, signature)
	}

	if err != nil {
		return errs.Newf(errs.Crypto, "%s: signature mismatch", a.name)
	}

	return nil
}

// ecdsaSigAlg implements ES256/ES384/ES512. Signatures are the fixed-width
// r || s concatenation of RFC 7518 section 3.4, with each half padded to the
// curve's coordinate size.
type ecdsaSigAlg struct {
	name SigAlg
	hash crypto.Hash
	crv  jwk.Curve
}

func (a ecdsaSigAlg) alg() SigAlg { return a.name }

func (a ecdsaSigAlg) digest(signingInput []byte, key *jwk.JWK) ([]byte, error) {
	if key.Kty() != jwk.KtyEC {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be EC", a.name)
	}

	if key.Crv() != a.crv {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be on curve %s", a.name, a.crv)
	}

	return hashInput(a.hash, signingInput), nil
}

func (a ecdsaSigAlg) sign(digest []byte, key *jwk.JWK) ([]byte, error) {
	priv := key.ECPrivate()
	if priv == nil {
		return nil, errs.Newf(errs.InvalidArgument, "%s: signing requires a private key", a.name)
	}

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return nil, errs.Wrapf(errs.Crypto, err, "%s: sign", a.name)
	}

	size := a.crv.CoordinateSize()

	signature := make([]byte, 2*size)
	r.FillBytes(signature[:size])
	s.FillBytes(signature[size:])

	return signature, nil
}

func (a ecdsaSigAlg) verify(digest, signature []byte, key *jwk.JWK) error {
	pub := key.ECPublic()
	if pub == nil {
		return errs.Newf(errs.InvalidArgument, "%s: key must be EC", a.name)
	}

	size := a.crv.CoordinateSize()
	if len(signature) != 2*size {
		return errs.Newf(errs.Crypto, "%s: signature mismatch", a.name)
	}

	r := new(big.Int).SetBytes(signature[:size])
	s := new(big.Int).SetBytes(signature[size:])

	if !ecdsa.Verify(pub, digest, r, s) {
		return errs.Newf(errs.Crypto, "%s: signature mismatch", a.name)
	}

	return nil
}

func hashInput(h crypto.Hash, signingInput []byte) []byte {
	hasher := h.New()
	hasher.Write(signingInput)

	return hasher.Sum(nil)
}
