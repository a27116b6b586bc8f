/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package concatkdf implements the single-step key derivation function of
// NIST SP 800-56A §5.8.1 with SHA-256, as profiled for ECDH-ES by RFC 7518
// §4.6.
package concatkdf

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/trustbloc/jose-go/util/base64url"
	"github.com/trustbloc/jose-go/util/errs"
)

// HeaderSource resolves string-valued JOSE header attributes; absent
// attributes report ok=false.
type HeaderSource interface {
	Get(attr string) (string, bool)
}

// BuildOtherInfo serializes the KDF's OtherInfo input: AlgorithmID (the enc
// value), PartyUInfo and PartyVInfo (the base64url-decoded apu/apv headers,
// defaulting to empty) as 32-bit big-endian length-prefixed fields, followed
// by SuppPubInfo (the requested key length in bits as a raw 32-bit
// big-endian integer). An apu or apv that is present but not valid base64url
// is InvalidArgument.
func BuildOtherInfo(algID string, keyLenBits int, hdr HeaderSource) ([]byte, error) {
	apu, err := decodeParty(hdr, "apu")
	if err != nil {
		return nil, err
	}

	apv, err := decodeParty(hdr, "apv")
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4*4+len(algID)+len(apu)+len(apv))
	out = appendLengthPrefixed(out, []byte(algID))
	out = appendLengthPrefixed(out, apu)
	out = appendLengthPrefixed(out, apv)
	out = binary.BigEndian.AppendUint32(out, uint32(keyLenBits))

	return out, nil
}

func decodeParty(hdr HeaderSource, attr string) ([]byte, error) {
	if hdr == nil {
		return nil, nil
	}

	encoded, ok := hdr.Get(attr)
	if !ok {
		return nil, nil
	}

	decoded, err := base64url.Decode(encoded, true)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, err, "concatkdf: header "+attr+" is not valid base64url")
	}

	return decoded, nil
}

func appendLengthPrefixed(out, field []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(field)))

	return append(out, field...)
}

// Derive runs the SHA-256 counter-mode KDF: for i = 1..ceil(keyLen/32) it
// hashes BE32(i) || sharedSecret || otherInfo, concatenates the digests and
// truncates to keyLen bytes.
func Derive(keyLen int, sharedSecret, otherInfo []byte) ([]byte, error) {
	if keyLen <= 0 {
		return nil, errs.Newf(errs.InvalidArgument, "concatkdf: invalid derived key length %d", keyLen)
	}

	var (
		out     []byte
		counter [4]byte
	)

	rounds := (keyLen + sha256.Size - 1) / sha256.Size

	for i := 1; i <= rounds; i++ {
		binary.BigEndian.PutUint32(counter[:], uint32(i))

		h := sha256.New()
		h.Write(counter[:])
		h.Write(sharedSecret)
		h.Write(otherInfo)

		out = h.Sum(out)
	}

	return out[:keyLen], nil
}
