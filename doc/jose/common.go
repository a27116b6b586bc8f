/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

// IANA registered JOSE headers (https://tools.ietf.org/html/rfc7515#section-4.1
// and https://tools.ietf.org/html/rfc7518#section-4.6.1).
const (
	// HeaderAlgorithm identifies:
	// For JWS: the cryptographic algorithm used to secure the JWS.
	// For JWE: the cryptographic algorithm used to encrypt or determine the value of the CEK.
	HeaderAlgorithm = "alg" // string

	// HeaderEncryption identifies the JWE content encryption algorithm.
	HeaderEncryption = "enc" // string

	// HeaderKeyID is a hint:
	// For JWS: indicating which key was used to secure the JWS.
	// For JWE: which references the public key to which the JWE was encrypted.
	HeaderKeyID = "kid" // string

	// HeaderType is:
	// For JWS: used by JWS applications to declare the media type of this complete JWS.
	// For JWE: used by JWE applications to declare the media type of this complete JWE.
	HeaderType = "typ" // string

	// HeaderContentType declares the media type of the secured content
	// (the JWS payload or the JWE plaintext).
	HeaderContentType = "cty" // string

	// HeaderEPK carries the ephemeral public key of an ECDH-ES key agreement.
	HeaderEPK = "epk" // JSON

	// HeaderAPU is the key agreement PartyUInfo, base64url encoded.
	HeaderAPU = "apu" // string

	// HeaderAPV is the key agreement PartyVInfo, base64url encoded.
	HeaderAPV = "apv" // string
)

// KeyAlg identifies a JWE key management algorithm. The string values are the
// exact RFC 7518 spellings and are part of the wire contract.
type KeyAlg string

// JWE key management algorithms supported by Encrypt and Decrypt.
const (
	// Dir uses the provided symmetric key directly as the CEK.
	Dir = KeyAlg("dir")
	// A128KW wraps a random CEK with AES-128 key wrap (RFC 3394).
	A128KW = KeyAlg("A128KW")
	// A192KW wraps a random CEK with AES-192 key wrap.
	A192KW = KeyAlg("A192KW")
	// A256KW wraps a random CEK with AES-256 key wrap.
	A256KW = KeyAlg("A256KW")
	// RSAOAEP encrypts a random CEK with RSAES-OAEP.
	RSAOAEP = KeyAlg("RSA-OAEP")
	// RSA15 encrypts a random CEK with RSAES-PKCS1-v1_5.
	RSA15 = KeyAlg("RSA1_5")
	// ECDHES derives the CEK via Ephemeral Static ECDH and the Concat KDF.
	ECDHES = KeyAlg("ECDH-ES")
)

// EncAlg identifies a JWE content encryption algorithm.
type EncAlg string

// JWE content encryption algorithms supported by Encrypt and Decrypt.
const (
	// A256GCM for AES-256-GCM content encryption.
	A256GCM = EncAlg("A256GCM")
	// A128CBCHS256 for the AES-128-CBC + HMAC-SHA-256 composite.
	A128CBCHS256 = EncAlg("A128CBC-HS256")
	// A192CBCHS384 for the AES-192-CBC + HMAC-SHA-384 composite.
	A192CBCHS384 = EncAlg("A192CBC-HS384")
	// A256CBCHS512 for the AES-256-CBC + HMAC-SHA-512 composite.
	A256CBCHS512 = EncAlg("A256CBC-HS512")
)

// SigAlg identifies a JWS signature algorithm.
type SigAlg string

// JWS signature algorithms. None is accepted by ParseSigned for header and
// payload introspection only; Sign and Verify refuse it.
const (
	HS256 = SigAlg("HS256")
	HS384 = SigAlg("HS384")
	HS512 = SigAlg("HS512")
	RS256 = SigAlg("RS256")
	RS384 = SigAlg("RS384")
	RS512 = SigAlg("RS512")
	PS256 = SigAlg("PS256")
	PS384 = SigAlg("PS384")
	PS512 = SigAlg("PS512")
	ES256 = SigAlg("ES256")
	ES384 = SigAlg("ES384")
	ES512 = SigAlg("ES512")
	None  = SigAlg("none")
)
