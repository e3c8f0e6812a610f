// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package packets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeString(t *testing.T) {
	s, n, err := decodeString([]byte{0x00, 0x05, 'f', 'r', 'u', 'i', 't'}, 0)
	require.NoError(t, err)
	require.Equal(t, "fruit", s)
	require.Equal(t, 7, n)
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	_, _, err := decodeString([]byte{0x00, 0x02, 0xff, 0xfe}, 0)
	require.ErrorIs(t, err, ErrMalformedInvalidUTF8)
}

func TestDecodeStringEmbeddedNul(t *testing.T) {
	_, _, err := decodeString([]byte{0x00, 0x02, 'a', 0x00}, 0)
	require.ErrorIs(t, err, ErrMalformedInvalidUTF8)
}

func TestDecodeBytesOutOfRange(t *testing.T) {
	_, _, err := decodeBytes([]byte{0x00, 0x09, 'a'}, 0)
	require.ErrorIs(t, err, ErrMalformedOffsetBytesOutOfRange)
}

func TestDecodeLength(t *testing.T) {
	tests := []struct {
		buf  []byte
		want int
		next int
	}{
		{buf: []byte{0x00}, want: 0, next: 1},
		{buf: []byte{0x7f}, want: 127, next: 1},
		{buf: []byte{0x80, 0x01}, want: 128, next: 2},
		{buf: []byte{0xff, 0xff, 0xff, 0x7f}, want: 268435455, next: 4},
	}

	for _, tt := range tests {
		got, next, err := decodeLength(tt.buf, 0)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
		require.Equal(t, tt.next, next)
	}
}

func TestDecodeLengthIncomplete(t *testing.T) {
	_, _, err := decodeLength([]byte{0x80, 0x80}, 0)
	require.ErrorIs(t, err, ErrIncompleteLength)
}

func TestDecodeLengthOverflow(t *testing.T) {
	_, _, err := decodeLength([]byte{0xff, 0xff, 0xff, 0xff, 0x01}, 0)
	require.ErrorIs(t, err, ErrMalformedVariableByteInteger)
}

func TestEncodeLengthRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, 127, 128, 16383, 16384, 2097151, 2097152} {
		var buf bytes.Buffer
		encodeLength(&buf, v)
		got, _, err := decodeLength(buf.Bytes(), 0)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
