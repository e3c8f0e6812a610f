// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package redis provides a Redis-backed store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/streamhub/server/storage"
)

// defaultAddr is the default address to the redis service.
const defaultAddr = "localhost:6379"

// defaultHPrefix is a prefix to better identify hsets created by streamhub.
const defaultHPrefix = "streamhub-"

// Options contains configuration settings for the redis instance.
type Options struct {
	HPrefix string
	Options *redis.Options
}

// Store is a persistent store using Redis as a backend. Retained records
// and signing keys are kept in two hash sets keyed by topic and key id.
type Store struct {
	config *Options
	db     *redis.Client
}

// New returns a new Redis store.
func New(config *Options) *Store {
	if config == nil {
		config = &Options{
			Options: &redis.Options{
				Addr: defaultAddr,
			},
		}
	}
	if config.HPrefix == "" {
		config.HPrefix = defaultHPrefix
	}
	return &Store{config: config}
}

// hKey returns a hash set key with a unique prefix.
func (s *Store) hKey(v string) string {
	return s.config.HPrefix + v
}

// Open connects to the redis service and verifies the connection.
func (s *Store) Open() error {
	s.db = redis.NewClient(s.config.Options)
	if err := s.db.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to ping redis service: %w", err)
	}
	return nil
}

// Close closes the connection to the redis service.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutRetained replaces the topic's retained record unconditionally.
func (s *Store) PutRetained(ctx context.Context, r storage.Record) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	err = s.db.HSet(ctx, s.hKey(storage.RetainedKey), r.Topic, data).Err()
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// GetRetained returns the topic's unexpired retained record. An expired
// record is deleted and reported as absent.
func (s *Store) GetRetained(ctx context.Context, topic string) (storage.Record, error) {
	if s.db == nil {
		return storage.Record{}, storage.ErrDBFileNotOpen
	}

	data, err := s.db.HGet(ctx, s.hKey(storage.RetainedKey), topic).Bytes()
	if errors.Is(err, redis.Nil) {
		return storage.Record{}, storage.ErrRecordNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}

	var r storage.Record
	if err := r.UnmarshalBinary(data); err != nil {
		return storage.Record{}, err
	}

	if r.Expired(time.Now()) {
		_ = s.DeleteRetained(ctx, topic)
		return storage.Record{}, storage.ErrRecordNotFound
	}

	return r, nil
}

// DeleteRetained removes any retained record for the topic.
func (s *Store) DeleteRetained(ctx context.Context, topic string) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	err := s.db.HDel(ctx, s.hKey(storage.RetainedKey), topic).Err()
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// PutSigningKey stores verification key material under an id.
func (s *Store) PutSigningKey(ctx context.Context, id string, secret []byte) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	err := s.db.HSet(ctx, s.hKey(storage.SigningKeyKey), id, secret).Err()
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// SigningKey returns the key material for an id.
func (s *Store) SigningKey(ctx context.Context, id string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrDBFileNotOpen
	}

	secret, err := s.db.HGet(ctx, s.hKey(storage.SigningKeyKey), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}

	return secret, nil
}
