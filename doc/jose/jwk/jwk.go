/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk implements the JSON Web Key model of RFC 7517 for the three
// key kinds the JOSE engines consume: RSA, EC (NIST P curves) and symmetric
// octet strings.
//
// A JWK may hold only the public half of an asymmetric key; operations that
// need the private part fail with InvalidArgument. The JSON wire form is
// produced and consumed through go-jose's JSONWebKey codec.
package jwk

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"

	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// Kty is the JWK key type tag.
type Kty string

// Key types recognized by this model.
const (
	KtyRSA = Kty("RSA")
	KtyEC  = Kty("EC")
	KtyOct = Kty("oct")
)

// Curve names the EC curves supported by the JOSE algorithms.
type Curve string

// Supported curves.
const (
	P256 = Curve("P-256")
	P384 = Curve("P-384")
	P521 = Curve("P-521")
)

// CoordinateSize returns the byte width of one curve coordinate, which is
// also the width of each half of an ECDSA JOSE signature.
func (c Curve) CoordinateSize() int {
	switch c {
	case P256:
		return 32
	case P384:
		return 48
	case P521:
		return 66
	default:
		return 0
	}
}

func (c Curve) elliptic() elliptic.Curve {
	switch c {
	case P256:
		return elliptic.P256()
	case P384:
		return elliptic.P384()
	case P521:
		return elliptic.P521()
	default:
		return nil
	}
}

func curveOf(ec elliptic.Curve) Curve {
	switch ec {
	case elliptic.P256():
		return P256
	case elliptic.P384():
		return P384
	case elliptic.P521():
		return P521
	default:
		return ""
	}
}

// JWK holds typed key material. The zero value is not usable; keys are built
// by the constructors or Import.
type JWK struct {
	kty Kty
	kid string
	crv Curve

	rsaPub  *rsa.PublicKey
	rsaPriv *rsa.PrivateKey
	ecPub   *ecdsa.PublicKey
	ecPriv  *ecdsa.PrivateKey
	oct     []byte

	keysize int // bits
}

// RSASpec carries RSA key material as big-endian byte strings. N and E are
// required; D alone yields a private key without CRT acceleration, D with
// P and Q precomputes the CRT parameters.
type RSASpec struct {
	N, E                []byte
	D, P, Q, DP, DQ, QI []byte
}

// ECSpec carries EC key material as big-endian byte strings on the named
// curve. X and Y are required; D is the optional private scalar.
type ECSpec struct {
	Crv  Curve
	X, Y []byte
	D    []byte
}

// NewRSA generates a fresh RSA key pair of the given modulus size. Only the
// standard public exponent 65537 is supported; publicExponent may be nil to
// select it, any other value is InvalidArgument.
func NewRSA(bits int, publicExponent []byte) (*JWK, error) {
	if bits < 512 {
		return nil, errs.Newf(errs.InvalidArgument, "jwk: rsa modulus of %d bits is too small", bits)
	}

	if len(publicExponent) > 0 {
		e := new(big.Int).SetBytes(publicExponent)
		if e.Cmp(big.NewInt(65537)) != 0 {
			return nil, errs.New(errs.InvalidArgument, "jwk: only public exponent 65537 is supported")
		}
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "jwk: rsa generation failed")
	}

	return &JWK{
		kty:     KtyRSA,
		kid:     uuid.New().String(),
		rsaPub:  &priv.PublicKey,
		rsaPriv: priv,
		keysize: priv.N.BitLen(),
	}, nil
}

// NewRSAFromSpec builds an RSA JWK from explicit key material. The spec's
// byte strings are copied; the caller keeps ownership of its buffers.
func NewRSAFromSpec(spec *RSASpec) (*JWK, error) {
	if spec == nil || len(spec.N) == 0 || len(spec.E) == 0 {
		return nil, errs.New(errs.InvalidArgument, "jwk: rsa spec requires modulus and public exponent")
	}

	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(spec.N),
		E: int(new(big.Int).SetBytes(spec.E).Int64()),
	}

	if pub.E <= 1 {
		return nil, errs.New(errs.InvalidArgument, "jwk: invalid rsa public exponent")
	}

	k := &JWK{
		kty:     KtyRSA,
		rsaPub:  pub,
		keysize: pub.N.BitLen(),
	}

	if len(spec.D) > 0 {
		priv := &rsa.PrivateKey{
			PublicKey: *pub,
			D:         new(big.Int).SetBytes(spec.D),
		}

		if len(spec.P) > 0 && len(spec.Q) > 0 {
			priv.Primes = []*big.Int{
				new(big.Int).SetBytes(spec.P),
				new(big.Int).SetBytes(spec.Q),
			}

			if err := priv.Validate(); err != nil {
				return nil, errs.Wrap(errs.InvalidArgument, err, "jwk: inconsistent rsa key material")
			}

			priv.Precompute()
		}

		k.rsaPriv = priv
	}

	return k, nil
}

// NewEC generates a fresh key pair on the named curve.
func NewEC(crv Curve) (*JWK, error) {
	c := crv.elliptic()
	if c == nil {
		return nil, errs.Newf(errs.InvalidArgument, "jwk: unsupported curve %q", crv)
	}

	priv, err := ecdsa.GenerateKey(c, rand.Reader)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "jwk: ec generation failed")
	}

	return &JWK{
		kty:     KtyEC,
		kid:     uuid.New().String(),
		crv:     crv,
		ecPub:   &priv.PublicKey,
		ecPriv:  priv,
		keysize: c.Params().BitSize,
	}, nil
}

// NewECFromSpec builds an EC JWK from explicit coordinates. Coordinates must
// fit the curve's field width and name a point on the curve. The spec's byte
// strings are copied.
func NewECFromSpec(spec *ECSpec) (*JWK, error) {
	if spec == nil {
		return nil, errs.New(errs.InvalidArgument, "jwk: nil ec spec")
	}

	c := spec.Crv.elliptic()
	if c == nil {
		return nil, errs.Newf(errs.InvalidArgument, "jwk: unsupported curve %q", spec.Crv)
	}

	size := spec.Crv.CoordinateSize()
	if len(spec.X) == 0 || len(spec.Y) == 0 || len(spec.X) > size || len(spec.Y) > size || len(spec.D) > size {
		return nil, errs.New(errs.InvalidArgument, "jwk: ec coordinate length inconsistent with curve")
	}

	pub := &ecdsa.PublicKey{
		Curve: c,
		X:     new(big.Int).SetBytes(spec.X),
		Y:     new(big.Int).SetBytes(spec.Y),
	}

	if !c.IsOnCurve(pub.X, pub.Y) {
		return nil, errs.New(errs.InvalidArgument, "jwk: point is not on the named curve")
	}

	k := &JWK{
		kty:     KtyEC,
		crv:     spec.Crv,
		ecPub:   pub,
		keysize: c.Params().BitSize,
	}

	if len(spec.D) > 0 {
		k.ecPriv = &ecdsa.PrivateKey{
			PublicKey: *pub,
			D:         new(big.Int).SetBytes(spec.D),
		}
	}

	return k, nil
}

// NewOct generates a random symmetric key of the given bit length.
func NewOct(bits int) (*JWK, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, errs.Newf(errs.InvalidArgument, "jwk: invalid symmetric key size %d", bits)
	}

	return &JWK{
		kty:     KtyOct,
		kid:     uuid.New().String(),
		oct:     cryptoutil.RandomBytes(bits / 8),
		keysize: bits,
	}, nil
}

// NewOctFromBytes builds a symmetric JWK from existing key material, copying
// the input.
func NewOctFromBytes(b []byte) (*JWK, error) {
	if len(b) == 0 {
		return nil, errs.New(errs.InvalidArgument, "jwk: empty symmetric key")
	}

	oct := make([]byte, len(b))
	copy(oct, b)

	return &JWK{
		kty:     KtyOct,
		oct:     oct,
		keysize: len(b) * 8,
	}, nil
}

// Kty returns the key type tag.
func (k *JWK) Kty() Kty {
	return k.kty
}

// KeyID returns the key identifier, possibly empty.
func (k *JWK) KeyID() string {
	return k.kid
}

// SetKeyID sets the key identifier.
func (k *JWK) SetKeyID(kid string) {
	k.kid = kid
}

// Crv returns the curve name for EC keys and "" otherwise.
func (k *JWK) Crv() Curve {
	return k.crv
}

// KeySize returns the key size in bits: the modulus size for RSA, the field
// size for EC and the octet length in bits for symmetric keys.
func (k *JWK) KeySize() int {
	return k.keysize
}

// HasPrivate reports whether the private key part is present.
func (k *JWK) HasPrivate() bool {
	switch k.kty {
	case KtyRSA:
		return k.rsaPriv != nil
	case KtyEC:
		return k.ecPriv != nil
	case KtyOct:
		return len(k.oct) > 0
	default:
		return false
	}
}

// RSAPublic returns the RSA public key, or nil for non-RSA keys.
func (k *JWK) RSAPublic() *rsa.PublicKey {
	return k.rsaPub
}

// RSAPrivate returns the RSA private key, or nil when absent.
func (k *JWK) RSAPrivate() *rsa.PrivateKey {
	return k.rsaPriv
}

// ECPublic returns the EC public key, or nil for non-EC keys.
func (k *JWK) ECPublic() *ecdsa.PublicKey {
	return k.ecPub
}

// ECPrivate returns the EC private key, or nil when absent.
func (k *JWK) ECPrivate() *ecdsa.PrivateKey {
	return k.ecPriv
}

// Symmetric returns the raw symmetric key material, or nil for asymmetric
// keys. The buffer stays owned by the JWK and is scrubbed by Release.
func (k *JWK) Symmetric() []byte {
	return k.oct
}

// Release scrubs secret material and drops the private key references. The
// JWK is unusable afterwards.
func (k *JWK) Release() {
	if k == nil {
		return
	}

	cryptoutil.Zero(k.oct)
	k.oct = nil
	k.rsaPriv = nil
	k.ecPriv = nil
	k.rsaPub = nil
	k.ecPub = nil
}

// Import parses a JWK from its RFC 7517 JSON form. Malformed JSON or an
// unrecognized kty is InvalidArgument.
func Import(data []byte) (*JWK, error) {
	var parsed jose.JSONWebKey

	if err := parsed.UnmarshalJSON(data); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "jwk: import failed")
	}

	k := &JWK{kid: parsed.KeyID}

	switch key := parsed.Key.(type) {
	case *rsa.PrivateKey:
		k.kty = KtyRSA
		k.rsaPriv = key
		k.rsaPub = &key.PublicKey
		k.keysize = key.N.BitLen()
	case *rsa.PublicKey:
		k.kty = KtyRSA
		k.rsaPub = key
		k.keysize = key.N.BitLen()
	case *ecdsa.PrivateKey:
		k.kty = KtyEC
		k.ecPriv = key
		k.ecPub = &key.PublicKey
		k.crv = curveOf(key.Curve)
		k.keysize = key.Curve.Params().BitSize
	case *ecdsa.PublicKey:
		k.kty = KtyEC
		k.ecPub = key
		k.crv = curveOf(key.Curve)
		k.keysize = key.Curve.Params().BitSize
	case []byte:
		k.kty = KtyOct
		k.oct = key
		k.keysize = len(key) * 8
	default:
		return nil, errs.New(errs.InvalidArgument, "jwk: unsupported key type")
	}

	if k.kty == KtyEC && k.crv == "" {
		return nil, errs.New(errs.InvalidArgument, "jwk: unsupported ec curve")
	}

	return k, nil
}

// Export serializes the JWK to its RFC 7517 JSON form. With includePrivate
// false only public-safe fields are emitted; exporting a symmetric key
// without the private part is InvalidArgument since oct keys have no public
// half.
func (k *JWK) Export(includePrivate bool) ([]byte, error) {
	out := jose.JSONWebKey{KeyID: k.kid}

	switch k.kty {
	case KtyRSA:
		if includePrivate && k.rsaPriv != nil {
			out.Key = k.rsaPriv
		} else {
			out.Key = k.rsaPub
		}
	case KtyEC:
		if includePrivate && k.ecPriv != nil {
			out.Key = k.ecPriv
		} else {
			out.Key = k.ecPub
		}
	case KtyOct:
		if !includePrivate {
			return nil, errs.New(errs.InvalidArgument, "jwk: symmetric keys have no public form")
		}

		out.Key = k.oct
	default:
		return nil, errs.New(errs.InvalidState, "jwk: key has no material")
	}

	data, err := out.MarshalJSON()
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "jwk: export failed")
	}

	return data, nil
}

// MarshalJSON emits the public form of the key, suitable for embedding as an
// epk header value.
func (k *JWK) MarshalJSON() ([]byte, error) {
	return k.Export(false)
}

// DeriveECDH computes the raw ECDH shared secret between k's private scalar
// and peer's public point. Both keys must be EC on the same curve and k must
// carry the private part. The result is the x coordinate padded to the
// curve's coordinate width; it is not yet KDF-processed.
func (k *JWK) DeriveECDH(peer *JWK) ([]byte, error) {
	if k == nil || peer == nil || k.kty != KtyEC || peer.kty != KtyEC {
		return nil, errs.New(errs.InvalidArgument, "jwk: ecdh requires two ec keys")
	}

	if k.crv != peer.crv {
		return nil, errs.New(errs.InvalidArgument, "jwk: ecdh keys are on different curves")
	}

	if k.ecPriv == nil {
		return nil, errs.New(errs.InvalidArgument, "jwk: ecdh requires the private key part")
	}

	if peer.ecPub == nil {
		return nil, errs.New(errs.InvalidArgument, "jwk: ecdh peer has no public point")
	}

	c := k.crv.elliptic()

	x, _ := c.ScalarMult(peer.ecPub.X, peer.ecPub.Y, k.ecPriv.D.Bytes())
	if x.Sign() == 0 {
		return nil, errs.New(errs.Crypto, "jwk: ecdh produced the point at infinity")
	}

	secret := make([]byte, k.crv.CoordinateSize())
	x.FillBytes(secret)

	return secret, nil
}
