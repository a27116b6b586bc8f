/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package base64url

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/jose-go/util/cryptoutil"
	"github.com/trustbloc/jose-go/util/errs"
)

func TestRoundTrip(t *testing.T) {
	for _, urlSafe := range []bool{true, false} {
		for size := 0; size <= 130; size++ {
			in := cryptoutil.RandomBytes(size)

			out, err := Decode(Encode(in, urlSafe), urlSafe)
			require.NoError(t, err)
			require.Equal(t, in, out)
		}
	}
}

func TestEncode(t *testing.T) {
	t.Run("url-safe has no padding", func(t *testing.T) {
		require.Equal(t, "QQ", Encode([]byte("A"), true))
		require.Equal(t, "-_8", Encode([]byte{0xfb, 0xff}, true))
	})

	t.Run("standard is padded", func(t *testing.T) {
		require.Equal(t, "QQ==", Encode([]byte("A"), false))
		require.Equal(t, "+/8=", Encode([]byte{0xfb, 0xff}, false))
	})

	t.Run("empty", func(t *testing.T) {
		require.Equal(t, "", Encode(nil, true))
		require.Equal(t, "", Encode(nil, false))
	})
}

func TestDecode(t *testing.T) {
	t.Run("empty input decodes to empty output", func(t *testing.T) {
		out, err := Decode("", true)
		require.NoError(t, err)
		require.Empty(t, out)
	})

	t.Run("padding terminates decoding", func(t *testing.T) {
		out, err := Decode("QQ==", false)
		require.NoError(t, err)
		require.Equal(t, []byte("A"), out)
	})

	t.Run("standard length must be a multiple of four", func(t *testing.T) {
		_, err := Decode("QQ", false)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("url-safe rejects length one mod four", func(t *testing.T) {
		_, err := Decode("QQQQQ", true)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})

	t.Run("url-safe rejects standard specials", func(t *testing.T) {
		for _, in := range []string{"+/8", "ab+", "ab/"} {
			_, err := Decode(in, true)
			require.Error(t, err, in)
			require.True(t, errs.IsInvalidArgument(err))
		}
	})

	t.Run("standard rejects url-safe specials", func(t *testing.T) {
		for _, in := range []string{"-_8=", "abc-", "abc_"} {
			_, err := Decode(in, false)
			require.Error(t, err, in)
			require.True(t, errs.IsInvalidArgument(err))
		}
	})

	t.Run("foreign characters rejected", func(t *testing.T) {
		for _, in := range []string{"ab!c", "ab c", "ab\nc", "ab\x00c"} {
			_, err := Decode(in, false)
			require.Error(t, err, in)
			require.True(t, errs.IsInvalidArgument(err))
		}
	})

	t.Run("single trailing sextet is truncation", func(t *testing.T) {
		_, err := Decode("QQQQQ===", false)
		require.Error(t, err)
		require.True(t, errs.IsInvalidArgument(err))
	})
}
