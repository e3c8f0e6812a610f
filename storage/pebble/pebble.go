// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package pebble provides a pebble DB-backed store.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"time"

	pebbledb "github.com/cockroachdb/pebble"

	"github.com/streamhub/server/storage"
)

const (
	// defaultDbFile is the default file path for the pebble db file.
	defaultDbFile = ".pebble"
)

const (
	NoSync = "NoSync" // NoSync specifies the default write options for writes which do not synchronize to disk.
	Sync   = "Sync"   // Sync specifies the default write options for writes which synchronize to disk.
)

// Options contains configuration settings for the pebble DB instance.
type Options struct {
	Options *pebbledb.Options
	Mode    string `yaml:"mode" json:"mode"`
	Path    string `yaml:"path" json:"path"`
}

// Store is a persistent store using a pebble DB file store as a backend.
type Store struct {
	config *Options
	db     *pebbledb.DB
	mode   *pebbledb.WriteOptions // per-query parameters for Set and Delete operations
}

// New returns a new pebble DB store.
func New(config *Options) *Store {
	if config == nil {
		config = new(Options)
	}
	return &Store{config: config}
}

// Open opens the pebble instance.
func (s *Store) Open() error {
	if len(s.config.Path) == 0 {
		s.config.Path = defaultDbFile
	}

	if s.config.Options == nil {
		s.config.Options = &pebbledb.Options{}
	}

	s.mode = pebbledb.NoSync
	if s.config.Mode == Sync {
		s.mode = pebbledb.Sync
	}

	var err error
	s.db, err = pebbledb.Open(s.config.Path, s.config.Options)
	return err
}

// Close closes the pebble instance.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutRetained replaces the topic's retained record unconditionally.
func (s *Store) PutRetained(_ context.Context, r storage.Record) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}

	return s.setKv(storage.RetainedStorageKey(r.Topic), data)
}

// GetRetained returns the topic's unexpired retained record. An expired
// record is deleted and reported as absent.
func (s *Store) GetRetained(ctx context.Context, topic string) (storage.Record, error) {
	if s.db == nil {
		return storage.Record{}, storage.ErrDBFileNotOpen
	}

	data, err := s.getKv(storage.RetainedStorageKey(topic))
	if errors.Is(err, pebbledb.ErrNotFound) {
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
func (s *Store) DeleteRetained(_ context.Context, topic string) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	err := s.db.Delete([]byte(storage.RetainedStorageKey(topic)), s.mode)
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// PutSigningKey stores verification key material under an id.
func (s *Store) PutSigningKey(_ context.Context, id string, secret []byte) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}
	return s.setKv(storage.SigningStorageKey(id), secret)
}

// SigningKey returns the key material for an id.
func (s *Store) SigningKey(_ context.Context, id string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrDBFileNotOpen
	}

	secret, err := s.getKv(storage.SigningStorageKey(id))
	if errors.Is(err, pebbledb.ErrNotFound) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}

	return secret, nil
}

// setKv stores a key-value pair in the database.
func (s *Store) setKv(k string, data []byte) error {
	if err := s.db.Set([]byte(k), data, s.mode); err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// getKv retrieves the value associated with a key from the database.
func (s *Store) getKv(k string) ([]byte, error) {
	value, closer, err := s.db.Get([]byte(k))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return append([]byte(nil), value...), nil
}
