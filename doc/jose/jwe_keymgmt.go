/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/aes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // RSA-OAEP with SHA-1 per RFC 7518 section 4.3
	"encoding/json"

	josecipher "github.com/go-jose/go-jose/v3/cipher"

	"github.com/trustbloc/jose-go/doc/jose/concatkdf"
	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

// keyManager implements one JWE key management algorithm: on the sender side
// it settles the CEK and produces the recipient's encrypted key, on the
// receiver side it recovers the CEK from it.
type keyManager interface {
	alg() KeyAlg

	// singleRecipient reports whether the algorithm settles the CEK from the
	// recipient key itself and therefore cannot share a JWE with other
	// recipients.
	singleRecipient() bool

	wrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) error
	unwrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) (*cryptoutil.Secret, error)
}

func newKeyManager(alg KeyAlg) (keyManager, error) {
	switch alg {
	case Dir:
		return dirKeyMgmt{}, nil
	case A128KW:
		return aesKWKeyMgmt{name: alg, kekBits: 128}, nil
	case A192KW:
		return aesKWKeyMgmt{name: alg, kekBits: 192}, nil
	case A256KW:
		return aesKWKeyMgmt{name: alg, kekBits: 256}, nil
	case RSAOAEP:
		return rsaKeyMgmt{name: alg, oaep: true}, nil
	case RSA15:
		return rsaKeyMgmt{name: alg}, nil
	case ECDHES:
		return ecdhKeyMgmt{}, nil
	default:
		return nil, errs.Newf(errs.InvalidArgument, "unsupported key management algorithm %q", alg)
	}
}

// ensureCEK generates the shared random CEK on first use. Key-wrapping
// recipients of one JWE all wrap the same CEK.
func (e *JSONWebEncryption) ensureCEK(cc contentCipher) []byte {
	if e.cek == nil {
		e.cek = cryptoutil.AdoptSecret(cryptoutil.RandomBytes(cc.keySize()))
	}

	return e.cek.Bytes()
}

// dirKeyMgmt uses the recipient's symmetric key directly as the CEK; the
// encrypted key segment stays empty.
type dirKeyMgmt struct{}

func (dirKeyMgmt) alg() KeyAlg { return Dir }

func (dirKeyMgmt) singleRecipient() bool { return true }

func (dirKeyMgmt) wrap(e *JSONWebEncryption, _ *jweRecipient, key *jwk.JWK, cc contentCipher) error {
	cek, err := directCEK(key, cc)
	if err != nil {
		return err
	}

	e.cek = cek

	return nil
}

func (dirKeyMgmt) unwrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) (*cryptoutil.Secret, error) {
	if len(rec.encryptedKey.raw) != 0 {
		return nil, errs.New(errs.InvalidArgument, "dir: encrypted key must be empty")
	}

	return directCEK(key, cc)
}

func directCEK(key *jwk.JWK, cc contentCipher) (*cryptoutil.Secret, error) {
	if key.Kty() != jwk.KtyOct {
		return nil, errs.New(errs.InvalidArgument, "dir: key must be symmetric")
	}

	if key.KeySize() != cc.keySize()*8 {
		return nil, errs.Newf(errs.InvalidArgument, "dir: key must be %d bits for %s",
			cc.keySize()*8, cc.enc())
	}

	return cryptoutil.NewSecret(key.Symmetric()), nil
}

// aesKWKeyMgmt wraps the CEK with AES key wrap (RFC 3394).
type aesKWKeyMgmt struct {
	name    KeyAlg
	kekBits int
}

func (a aesKWKeyMgmt) alg() KeyAlg { return a.name }

func (aesKWKeyMgmt) singleRecipient() bool { return false }

func (a aesKWKeyMgmt) kek(key *jwk.JWK) ([]byte, error) {
	if key.Kty() != jwk.KtyOct {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be symmetric", a.name)
	}

	if key.KeySize() != a.kekBits {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be %d bits", a.name, a.kekBits)
	}

	return key.Symmetric(), nil
}

func (a aesKWKeyMgmt) wrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) error {
	kek, err := a.kek(key)
	if err != nil {
		return err
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return errs.Wrap(errs.Crypto, err, "init AES key wrap")
	}

	wrapped, err := josecipher.KeyWrap(block, e.ensureCEK(cc))
	if err != nil {
		return errs.Wrap(errs.Crypto, err, "wrap CEK")
	}

	rec.encryptedKey = newPart(wrapped)

	return nil
}

func (a aesKWKeyMgmt) unwrap(_ *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, _ contentCipher) (*cryptoutil.Secret, error) {
	kek, err := a.kek(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, errs.Wrap(errs.Crypto, err, "init AES key wrap")
	}

	cek, err := josecipher.KeyUnwrap(block, rec.encryptedKey.raw)
	if err != nil {
		return nil, errs.New(errs.Crypto, "unwrap CEK")
	}

	return cryptoutil.AdoptSecret(cek), nil
}

// rsaKeyMgmt encrypts the CEK with RSAES-OAEP (SHA-1 per RFC 7518) or
// RSAES-PKCS1-v1_5.
type rsaKeyMgmt struct {
	name KeyAlg
	oaep bool
}

func (r rsaKeyMgmt) alg() KeyAlg { return r.name }

func (rsaKeyMgmt) singleRecipient() bool { return false }

func (r rsaKeyMgmt) wrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) error {
	pub := key.RSAPublic()
	if key.Kty() != jwk.KtyRSA || pub == nil {
		return errs.Newf(errs.InvalidArgument, "%s: key must be RSA", r.name)
	}

	cek := e.ensureCEK(cc)

	// OAEP with SHA-1 cannot carry a message of modulusLen-41 bytes or more.
	if len(cek) >= pub.Size()-41 {
		return errs.Newf(errs.InvalidArgument, "%s: %d-byte CEK too large for %d-bit modulus",
			r.name, len(cek), pub.Size()*8)
	}

	var (
		wrapped []byte
		err     error
	)

	if r.oaep {
		wrapped, err = rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, cek, nil)
	} else {
		wrapped, err = rsa.EncryptPKCS1v15(rand.Reader, pub, cek)
	}

	if err != nil {
		return errs.Wrap(errs.Crypto, err, "encrypt CEK")
	}

	rec.encryptedKey = newPart(wrapped)

	return nil
}

func (r rsaKeyMgmt) unwrap(_ *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, _ contentCipher) (*cryptoutil.Secret, error) {
	priv := key.RSAPrivate()
	if key.Kty() != jwk.KtyRSA || priv == nil {
		return nil, errs.Newf(errs.InvalidArgument, "%s: key must be a private RSA key", r.name)
	}

	var (
		cek []byte
		err error
	)

	if r.oaep {
		cek, err = rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, rec.encryptedKey.raw, nil)
	} else {
		cek, err = rsa.DecryptPKCS1v15(rand.Reader, priv, rec.encryptedKey.raw)
	}

	if err != nil {
		return nil, errs.New(errs.Crypto, "decrypt CEK")
	}

	return cryptoutil.AdoptSecret(cek), nil
}

// ecdhKeyMgmt derives the CEK by Ephemeral Static ECDH with the Concat KDF
// (ECDH-ES in direct key agreement mode). The sender embeds the ephemeral
// public key in the protected header as epk; the encrypted key segment stays
// empty.
type ecdhKeyMgmt struct{}

func (ecdhKeyMgmt) alg() KeyAlg { return ECDHES }

func (ecdhKeyMgmt) singleRecipient() bool { return true }

func (ecdhKeyMgmt) wrap(e *JSONWebEncryption, _ *jweRecipient, key *jwk.JWK, cc contentCipher) error {
	if key.Kty() != jwk.KtyEC || key.ECPublic() == nil {
		return errs.New(errs.InvalidArgument, "ECDH-ES: key must be EC")
	}

	eph, err := jwk.NewEC(key.Crv())
	if err != nil {
		return err
	}
	defer eph.Release()

	eph.SetKeyID("")

	secret, err := eph.DeriveECDH(key)
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(secret)

	epkJSON, err := eph.Export(false)
	if err != nil {
		return err
	}

	if err = e.protected.SetRaw(HeaderEPK, epkJSON); err != nil {
		return err
	}

	cek, err := deriveAgreedCEK(secret, cc, e.protected)
	if err != nil {
		return err
	}

	e.cek = cek

	return nil
}

func (ecdhKeyMgmt) unwrap(e *JSONWebEncryption, rec *jweRecipient, key *jwk.JWK, cc contentCipher) (*cryptoutil.Secret, error) {
	if key.Kty() != jwk.KtyEC || key.ECPrivate() == nil {
		return nil, errs.New(errs.InvalidArgument, "ECDH-ES: key must be a private EC key")
	}

	if len(rec.encryptedKey.raw) != 0 {
		return nil, errs.New(errs.InvalidArgument, "ECDH-ES: encrypted key must be empty")
	}

	var view struct {
		EPK map[string]interface{} `mapstructure:"epk"`
	}

	if err := e.protected.Decode(&view); err != nil {
		return nil, err
	}

	if view.EPK == nil {
		return nil, errs.New(errs.InvalidArgument, "ECDH-ES: protected header has no epk attribute")
	}

	epkRaw, err := json.Marshal(view.EPK)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "ECDH-ES: parse epk")
	}

	epk, err := jwk.Import(epkRaw)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "ECDH-ES: parse epk")
	}
	defer epk.Release()

	secret, err := key.DeriveECDH(epk)
	if err != nil {
		return nil, err
	}
	defer cryptoutil.Zero(secret)

	// apu and apv feed the KDF only from the protected header, matching the
	// sender side: an unprotected copy must not shift the derivation.
	return deriveAgreedCEK(secret, cc, e.protected)
}

// deriveAgreedCEK runs the Concat KDF over the agreed secret. The algorithm
// ID is the content encryption algorithm name, per direct key agreement mode.
func deriveAgreedCEK(secret []byte, cc contentCipher, hdr *Header) (*cryptoutil.Secret, error) {
	otherInfo, err := concatkdf.BuildOtherInfo(string(cc.enc()), cc.keySize()*8, hdr)
	if err != nil {
		return nil, err
	}

	cek, err := concatkdf.Derive(cc.keySize(), secret, otherInfo)
	if err != nil {
		return nil, err
	}

	return cryptoutil.AdoptSecret(cek), nil
}

// equalCEK compares candidate CEKs from different recipients of one JWE.
func equalCEK(a, b *cryptoutil.Secret) bool {
	return cryptoutil.ConstantTimeEqual(a.Bytes(), b.Bytes())
}
