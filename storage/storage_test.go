// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordExpired(t *testing.T) {
	now := time.Now()

	r := Record{Topic: "fruit", ExpiresAt: 0}
	require.False(t, r.Expired(now))

	r.ExpiresAt = now.Add(time.Minute).Unix()
	require.False(t, r.Expired(now))

	r.ExpiresAt = now.Add(-time.Minute).Unix()
	require.True(t, r.Expired(now))

	// ttl of zero seconds expires on the very next read.
	r.ExpiresAt = now.Unix()
	require.True(t, r.Expired(now))
}

func TestRecordRemainingTTL(t *testing.T) {
	now := time.Now()

	r := Record{ExpiresAt: 0}
	require.Equal(t, uint32(0), r.RemainingTTL(now))

	r.ExpiresAt = now.Add(90 * time.Second).Unix()
	ttl := r.RemainingTTL(now)
	require.InDelta(t, 90, int(ttl), 1)

	r.ExpiresAt = now.Add(-time.Minute).Unix()
	require.Equal(t, uint32(0), r.RemainingTTL(now))
}

func TestRecordMarshalBinary(t *testing.T) {
	r := Record{
		Topic:     "fruit",
		Payload:   []byte("apple"),
		Created:   100,
		ExpiresAt: 200,
	}

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	var out Record
	require.NoError(t, out.UnmarshalBinary(data))
	require.Equal(t, r, out)

	require.NoError(t, out.UnmarshalBinary(nil))
}

func TestStorageKeys(t *testing.T) {
	require.Equal(t, "RET_fruit", RetainedStorageKey("fruit"))
	require.Equal(t, "KEY_abcd", SigningStorageKey("abcd"))
}
