// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/server/storage"
)

func TestRetainedLifecycle(t *testing.T) {
	s := New()
	require.NoError(t, s.Open())
	defer s.Close()

	ctx := context.Background()

	_, err := s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)

	r := storage.Record{Topic: "fruit", Payload: []byte("apple"), Created: time.Now().Unix()}
	require.NoError(t, s.PutRetained(ctx, r))

	got, err := s.GetRetained(ctx, "fruit")
	require.NoError(t, err)
	require.Equal(t, []byte("apple"), got.Payload)

	// last writer wins.
	r.Payload = []byte("banana")
	require.NoError(t, s.PutRetained(ctx, r))
	got, err = s.GetRetained(ctx, "fruit")
	require.NoError(t, err)
	require.Equal(t, []byte("banana"), got.Payload)

	require.NoError(t, s.DeleteRetained(ctx, "fruit"))
	_, err = s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRetainedLazyExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := storage.Record{
		Topic:     "fruit",
		Payload:   []byte("apple"),
		ExpiresAt: time.Now().Add(-time.Second).Unix(),
	}
	require.NoError(t, s.PutRetained(ctx, r))

	_, err := s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)

	// the expired record was removed on read.
	s.RLock()
	_, ok := s.retained["fruit"]
	s.RUnlock()
	require.False(t, ok)
}

func TestSigningKeys(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.SigningKey(ctx, "k1")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.PutSigningKey(ctx, "k1", []byte("notasecret")))

	secret, err := s.SigningKey(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("notasecret"), secret)
}
