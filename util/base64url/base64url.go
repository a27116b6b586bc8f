/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package base64url implements the Base64 and Base64URL codec used by the
// JOSE wire formats (RFC 4648 §4 and §5).
//
// The JOSE grammar is stricter than the stdlib codec: the URL-safe alphabet
// never carries padding, a padding character hard-stops decoding, and any
// character foreign to the requested alphabet rejects the whole input. The
// decoder below enforces those rules directly instead of layering them on
// encoding/base64.
package base64url

import (
	"encoding/base64"

	"github.com/trustbloc/jose-go/util/errs"
)

const (
	alphabetStd = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	alphabetURL = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// reverse lookup shared by both alphabets; '+'/'-' and '/'/'_' collapse to
// the same sextet, alphabet membership is checked separately.
var reverse [256]byte

func init() {
	for i := range reverse {
		reverse[i] = 0xff
	}

	for i := 0; i < 64; i++ {
		reverse[alphabetStd[i]] = byte(i)
		reverse[alphabetURL[i]] = byte(i)
	}
}

// Encode encodes in to text. urlSafe selects the '-'/'_' alphabet with no
// padding; otherwise the standard '+'/'/' alphabet with '=' padding is used.
// Zero-length input encodes to the empty string.
func Encode(in []byte, urlSafe bool) string {
	if urlSafe {
		return base64.RawURLEncoding.EncodeToString(in)
	}

	return base64.StdEncoding.EncodeToString(in)
}

// Decode decodes text to bytes. For the padded standard alphabet the input
// length must be a multiple of four; the URL-safe alphabet rejects only
// length ≡ 1 (mod 4). A padding character terminates decoding at that point.
// Characters outside the requested alphabet fail with InvalidArgument.
func Decode(in string, urlSafe bool) ([]byte, error) {
	if len(in) == 0 {
		return []byte{}, nil
	}

	if !urlSafe && len(in)%4 != 0 {
		return nil, errs.New(errs.InvalidArgument, "base64: input length not a multiple of 4")
	}

	if urlSafe && len(in)%4 == 1 {
		return nil, errs.New(errs.InvalidArgument, "base64url: invalid input length")
	}

	out := make([]byte, 0, len(in)/4*3+3)

	var (
		packed uint32
		shift  uint
	)

	for i := 0; i < len(in); i++ {
		c := in[i]

		if c == '=' {
			break
		}

		if urlSafe && (c == '+' || c == '/') {
			return nil, errs.Newf(errs.InvalidArgument, "base64url: character %q not in url-safe alphabet", c)
		}

		if !urlSafe && (c == '-' || c == '_') {
			return nil, errs.Newf(errs.InvalidArgument, "base64: character %q not in standard alphabet", c)
		}

		v := reverse[c]
		if v == 0xff {
			return nil, errs.Newf(errs.InvalidArgument, "base64: invalid character %q", c)
		}

		packed |= uint32(v) << (18 - 6*shift)
		shift++

		if shift == 4 {
			out = append(out, byte(packed>>16), byte(packed>>8), byte(packed))
			packed, shift = 0, 0
		}
	}

	switch shift {
	case 1:
		return nil, errs.New(errs.InvalidArgument, "base64: truncated input")
	case 2:
		out = append(out, byte(packed>>16))
	case 3:
		out = append(out, byte(packed>>16), byte(packed>>8))
	}

	return out, nil
}
