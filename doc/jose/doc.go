/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jose implements the JOSE object suite: JWE encryption and
// decryption (RFC 7516) in the compact and JSON serializations, JWS signing
// and verification (RFC 7515) in the compact serialization, and the ordered
// header model both share.
//
// Keys are represented by the jwk subpackage. A typical exchange:
//
//	key, err := jwk.NewOct(256)
//	...
//	hdr := jose.NewHeader()
//	_ = hdr.Set(jose.HeaderAlgorithm, string(jose.Dir))
//	_ = hdr.Set(jose.HeaderEncryption, string(jose.A256GCM))
//
//	e, err := jose.Encrypt(key, hdr, []byte("hello"))
//	...
//	compact, err := e.CompactSerialize()
//
// and on the receiving side:
//
//	e, err := jose.ParseEncrypted(compact)
//	...
//	plaintext, err := e.Decrypt(key)
//
// All failures carry a code from the util/errs package; cryptographic
// failures are deliberately indistinguishable from each other.
package jose
