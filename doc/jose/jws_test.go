/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/jose-go/doc/jose/jwk"
	"github.com/trustbloc/jose-go/util/base64url"
	"github.com/trustbloc/jose-go/util/errs"
)

func signingKey(t *testing.T, alg SigAlg) *jwk.JWK {
	t.Helper()

	var (
		k   *jwk.JWK
		err error
	)

	switch alg {
	case HS256, HS384, HS512:
		k, err = jwk.NewOct(256)
	case RS256, RS384, RS512, PS256, PS384, PS512:
		return rsaTestKey(t)
	case ES256:
		k, err = jwk.NewEC(jwk.P256)
	case ES384:
		k, err = jwk.NewEC(jwk.P384)
	case ES512:
		k, err = jwk.NewEC(jwk.P521)
	default:
		t.Fatalf("no signing key for alg %s", alg)
	}

	require.NoError(t, err)

	return k
}

func signHeader(t *testing.T, alg SigAlg) *Header {
	t.Helper()

	hdr := NewHeader()
	require.NoError(t, hdr.Set(HeaderAlgorithm, string(alg)))

	return hdr
}

func TestJWSRoundTrip(t *testing.T) {
	algs := []SigAlg{HS256, HS384, HS512, RS256, RS384, RS512, PS256, PS384, PS512, ES256, ES384, ES512}

	payloads := map[string][]byte{
		"empty": {},
		"short": []byte(`{"iss":"joe"}`),
	}

	for _, alg := range algs {
		for name, payload := range payloads {
			alg, payload := alg, payload

			t.Run(string(alg)+"/"+name, func(t *testing.T) {
				key := signingKey(t, alg)
				hdr := signHeader(t, alg)
				defer hdr.Release()

				s, err := Sign(key, hdr, payload)
				require.NoError(t, err)
				defer s.Release()

				compact, err := s.CompactSerialize()
				require.NoError(t, err)
				require.Len(t, strings.Split(compact, "."), 3)

				parsed, err := ParseSigned(compact)
				require.NoError(t, err)
				defer parsed.Release()

				require.Equal(t, payload, parsed.Payload())
				require.NoError(t, parsed.Verify(key))
			})
		}
	}
}

func TestJWSVerifyFailures(t *testing.T) {
	t.Run("tampered payload", func(t *testing.T) {
		key := signingKey(t, HS256)
		hdr := signHeader(t, HS256)
		defer hdr.Release()

		s, err := Sign(key, hdr, []byte("genuine"))
		require.NoError(t, err)
		defer s.Release()

		compact, err := s.CompactSerialize()
		require.NoError(t, err)

		segments := strings.Split(compact, ".")
		segments[1] = base64url.Encode([]byte("forgery"), true)

		parsed, err := ParseSigned(strings.Join(segments, "."))
		require.NoError(t, err)
		defer parsed.Release()

		err = parsed.Verify(key)
		require.Error(t, err)
		require.True(t, errs.IsCrypto(err))
	})

	t.Run("tampered signature", func(t *testing.T) {
		for _, alg := range []SigAlg{HS256, RS256, PS256, ES256} {
			key := signingKey(t, alg)
			hdr := signHeader(t, alg)

			s, err := Sign(key, hdr, []byte("genuine"))
			require.NoError(t, err)

			compact, err := s.CompactSerialize()
			require.NoError(t, err)

			segments := strings.Split(compact, ".")

			sig, err := base64url.Decode(segments[2], true)
			require.NoError(t, err)

			sig[0] ^= 0x01
			segments[2] = base64url.Encode(sig, true)

			parsed, err := ParseSigned(strings.Join(segments, "."))
			require.NoError(t, err)

			err = parsed.Verify(key)
			require.Error(t, err, alg)
			require.True(t, errs.IsCrypto(err), alg)

			hdr.Release()
			s.Release()
			parsed.Release()
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		key := signingKey(t, ES256)
		hdr := signHeader(t, ES256)
		defer hdr.Release()

		s, err := Sign(key, hdr, []byte("genuine"))
		require.NoError(t, err)
		defer s.Release()

		other, err := jwk.NewEC(jwk.P256)
		require.NoError(t, err)

		err = s.Verify(other)
		require.Error(t, err)
		require.True(t, errs.IsCrypto(err))
	})

	t.Run("wrong key type", func(t *testing.T) {
		key := signingKey(t, HS256)
		hdr := signHeader(t, HS256)
		defer hdr.Release()

		s, err := Sign(key, hdr, []byte("genuine"))
		require.NoError(t, err)
		defer s.Release()

		ec, err := jwk.NewEC(jwk.P256)
		require.NoError(t, err)

		err = s.Verify(ec)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("curve mismatch", func(t *testing.T) {
		key := signingKey(t, ES256)
		hdr := signHeader(t, ES256)
		defer hdr.Release()

		s, err := Sign(key, hdr, []byte("genuine"))
		require.NoError(t, err)
		defer s.Release()

		p384, err := jwk.NewEC(jwk.P384)
		require.NoError(t, err)

		err = s.Verify(p384)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})
}

func TestJWSDeterminism(t *testing.T) {
	t.Run("hmac is deterministic", func(t *testing.T) {
		key := signingKey(t, HS256)
		hdr := signHeader(t, HS256)
		defer hdr.Release()

		a, err := Sign(key, hdr, []byte("payload"))
		require.NoError(t, err)
		defer a.Release()

		b, err := Sign(key, hdr, []byte("payload"))
		require.NoError(t, err)
		defer b.Release()

		aCompact, err := a.CompactSerialize()
		require.NoError(t, err)

		bCompact, err := b.CompactSerialize()
		require.NoError(t, err)

		require.Equal(t, aCompact, bCompact)
	})

	t.Run("ecdsa is randomized but always valid", func(t *testing.T) {
		key := signingKey(t, ES256)
		hdr := signHeader(t, ES256)
		defer hdr.Release()

		a, err := Sign(key, hdr, []byte("payload"))
		require.NoError(t, err)
		defer a.Release()

		b, err := Sign(key, hdr, []byte("payload"))
		require.NoError(t, err)
		defer b.Release()

		require.Len(t, a.Signature(), 64)
		require.Len(t, b.Signature(), 64)
		require.NotEqual(t, a.Signature(), b.Signature())
		require.NoError(t, a.Verify(key))
		require.NoError(t, b.Verify(key))
	})
}

// The HS256 example of RFC 7515 appendix A.1.
func TestJWSRFC7515AppendixA1(t *testing.T) {
	const token = "eyJ0eXAiOiJKV1QiLA0KICJhbGciOiJIUzI1NiJ9" +
		".eyJpc3MiOiJqb2UiLA0KICJleHAiOjEzMDA4MTkzODAsDQogImh0dHA6Ly9leGFt" +
		"cGxlLmNvbS9pc19yb290Ijp0cnVlfQ" +
		".dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	key, err := jwk.Import([]byte(`{"kty":"oct",` +
		`"k":"AyM1SysPpbyDfgZld3umj1qzKObwVMkoqQ-EstJQLr_T-1qS0gZH75aKtMN3Yj0iPS4hcgUuTwjAzZr1Z9CAow"}`))
	require.NoError(t, err)

	s, err := ParseSigned(token)
	require.NoError(t, err)
	defer s.Release()

	require.NoError(t, s.Verify(key))

	typ, ok := s.ProtectedHeaders().Get(HeaderType)
	require.True(t, ok)
	require.Equal(t, "JWT", typ)

	// Verification runs over the wire bytes, so the serialization survives
	// untouched even though the header carries whitespace.
	compact, err := s.CompactSerialize()
	require.NoError(t, err)
	require.Equal(t, token, compact)

	wrong, err := jwk.NewOct(512)
	require.NoError(t, err)

	err = s.Verify(wrong)
	require.Error(t, err)
	require.True(t, errs.IsCrypto(err))
}

func TestJWSAlgNone(t *testing.T) {
	header := base64url.Encode([]byte(`{"alg":"none"}`), true)
	payload := base64url.Encode([]byte(`{"iss":"joe"}`), true)

	t.Run("parse for introspection", func(t *testing.T) {
		s, err := ParseSigned(header + "." + payload + ".")
		require.NoError(t, err)
		defer s.Release()

		require.Equal(t, []byte(`{"iss":"joe"}`), s.Payload())

		alg, ok := s.ProtectedHeaders().Get(HeaderAlgorithm)
		require.True(t, ok)
		require.Equal(t, "none", alg)

		key, err := jwk.NewOct(256)
		require.NoError(t, err)

		err = s.Verify(key)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("nonempty signature rejected", func(t *testing.T) {
		_, err := ParseSigned(header + "." + payload + ".QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("signing refused", func(t *testing.T) {
		key, err := jwk.NewOct(256)
		require.NoError(t, err)

		hdr := NewHeader()
		defer hdr.Release()
		require.NoError(t, hdr.Set(HeaderAlgorithm, "none"))

		_, err = Sign(key, hdr, []byte("x"))
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})
}

func TestParseSignedErrors(t *testing.T) {
	t.Run("wrong segment count", func(t *testing.T) {
		for _, in := range []string{"", "a.b", "a.b.c.d"} {
			_, err := ParseSigned(in)
			require.Error(t, err, in)
			require.True(t, errs.IsInvalidArgument(err))
		}
	})

	t.Run("empty header segment", func(t *testing.T) {
		_, err := ParseSigned(".QQ.QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("header not base64url", func(t *testing.T) {
		_, err := ParseSigned("#!.QQ.QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("header not json", func(t *testing.T) {
		_, err := ParseSigned(base64url.Encode([]byte("notjson"), true) + ".QQ.QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("missing alg", func(t *testing.T) {
		_, err := ParseSigned(base64url.Encode([]byte(`{"typ":"JWT"}`), true) + ".QQ.QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("unsupported alg", func(t *testing.T) {
		_, err := ParseSigned(base64url.Encode([]byte(`{"alg":"HS123"}`), true) + ".QQ.QQ")
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})
}

func TestSignErrors(t *testing.T) {
	key, err := jwk.NewOct(256)
	require.NoError(t, err)

	t.Run("nil key", func(t *testing.T) {
		hdr := signHeader(t, HS256)
		defer hdr.Release()

		_, signErr := Sign(nil, hdr, []byte("x"))
		require.Error(t, signErr)
		require.True(t, errs.IsInvalidArgument(signErr))
	})

	t.Run("nil header", func(t *testing.T) {
		_, signErr := Sign(key, nil, []byte("x"))
		require.Error(t, signErr)
		require.True(t, errs.IsInvalidArgument(signErr))
	})

	t.Run("missing alg", func(t *testing.T) {
		hdr := NewHeader()
		defer hdr.Release()

		_, signErr := Sign(key, hdr, []byte("x"))
		require.Error(t, signErr)
		require.True(t, errs.IsInvalidArgument(signErr))
	})

	t.Run("private part required", func(t *testing.T) {
		rsaKey := rsaTestKey(t)

		pubJSON, exportErr := rsaKey.Export(false)
		require.NoError(t, exportErr)

		pub, importErr := jwk.Import(pubJSON)
		require.NoError(t, importErr)

		hdr := signHeader(t, RS256)
		defer hdr.Release()

		_, signErr := Sign(pub, hdr, []byte("x"))
		require.Error(t, signErr)
		require.True(t, errs.IsInvalidArgument(signErr))
	})

	t.Run("key type mismatch", func(t *testing.T) {
		hdr := signHeader(t, ES256)
		defer hdr.Release()

		_, signErr := Sign(key, hdr, []byte("x"))
		require.Error(t, signErr)
		require.True(t, errs.IsInvalidArgument(signErr))
	})
}
