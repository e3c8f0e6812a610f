// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package pebble

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/server/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()

	s := New(&Options{Path: t.TempDir()})
	require.NoError(t, s.Open())
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestRetainedLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)

	r := storage.Record{Topic: "fruit", Payload: []byte("apple"), Created: time.Now().Unix()}
	require.NoError(t, s.PutRetained(ctx, r))

	got, err := s.GetRetained(ctx, "fruit")
	require.NoError(t, err)
	require.Equal(t, []byte("apple"), got.Payload)

	require.NoError(t, s.DeleteRetained(ctx, "fruit"))
	_, err = s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRetainedLazyExpiry(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	r := storage.Record{
		Topic:     "fruit",
		Payload:   []byte("apple"),
		ExpiresAt: time.Now().Add(-time.Second).Unix(),
	}
	require.NoError(t, s.PutRetained(ctx, r))

	_, err := s.GetRetained(ctx, "fruit")
	require.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestSigningKeys(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.SigningKey(ctx, "k1")
	require.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.PutSigningKey(ctx, "k1", []byte("notasecret")))

	secret, err := s.SigningKey(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, []byte("notasecret"), secret)
}
