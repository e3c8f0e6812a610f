// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package badger provides a BadgerDB-backed store.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/streamhub/server/storage"
)

const (
	// defaultDbFile is the default file path for the badger db file.
	defaultDbFile         = ".badger"
	defaultGcInterval     = 5 * 60 // gc interval in seconds
	defaultGcDiscardRatio = 0.5
)

// Options contains configuration settings for the BadgerDB instance.
type Options struct {
	Options *badgerdb.Options
	Path    string `yaml:"path" json:"path"`
	// GcDiscardRatio must be in the range (0.0, 1.0), both endpoints
	// excluded, otherwise it is set to the default value of 0.5.
	GcDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio"`
	GcInterval     int64   `yaml:"gc_interval" json:"gc_interval"`
}

// Store is a persistent store using a BadgerDB file store as a backend.
type Store struct {
	config   *Options
	log      *slog.Logger
	gcTicker *time.Ticker
	db       *badgerdb.DB
}

// New returns a new BadgerDB store.
func New(config *Options, log *slog.Logger) *Store {
	if config == nil {
		config = new(Options)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{config: config, log: log}
}

// Open opens the badger instance and starts the gc loop.
func (s *Store) Open() error {
	if len(s.config.Path) == 0 {
		s.config.Path = defaultDbFile
	}

	if s.config.GcInterval == 0 {
		s.config.GcInterval = defaultGcInterval
	}

	if s.config.GcDiscardRatio <= 0.0 || s.config.GcDiscardRatio >= 1.0 {
		s.config.GcDiscardRatio = defaultGcDiscardRatio
	}

	if s.config.Options == nil {
		defaultOpts := badgerdb.DefaultOptions(s.config.Path)
		s.config.Options = &defaultOpts
	}
	s.config.Options.Logger = s

	var err error
	s.db, err = badgerdb.Open(*s.config.Options)
	if err != nil {
		return err
	}

	s.gcTicker = time.NewTicker(time.Duration(s.config.GcInterval) * time.Second)
	go s.gcLoop()

	return nil
}

// gcLoop periodically runs the garbage collection process to reclaim space
// in the value log files.
// Refer to: https://dgraph.io/docs/badger/get-started/#garbage-collection
func (s *Store) gcLoop() {
	for range s.gcTicker.C {
	again:
		err := s.db.RunValueLogGC(s.config.GcDiscardRatio)
		if err == nil {
			goto again
		}
	}
}

// Close closes the badger instance.
func (s *Store) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
	}
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
	return s.setKv(storage.RetainedStorageKey(r.Topic), &r)
}

// GetRetained returns the topic's unexpired retained record. An expired
// record is deleted and reported as absent.
func (s *Store) GetRetained(ctx context.Context, topic string) (storage.Record, error) {
	if s.db == nil {
		return storage.Record{}, storage.ErrDBFileNotOpen
	}

	var r storage.Record
	err := s.getKv(storage.RetainedStorageKey(topic), &r)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return storage.Record{}, storage.ErrRecordNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
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
	return s.delKv(storage.RetainedStorageKey(topic))
}

// PutSigningKey stores verification key material under an id.
func (s *Store) PutSigningKey(_ context.Context, id string, secret []byte) error {
	if s.db == nil {
		return storage.ErrDBFileNotOpen
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(storage.SigningStorageKey(id)), secret)
	})
	if err != nil {
		s.log.Error("failed to upsert signing key", "error", err, "id", id)
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// SigningKey returns the key material for an id.
func (s *Store) SigningKey(_ context.Context, id string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrDBFileNotOpen
	}

	var secret []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(storage.SigningStorageKey(id)))
		if err != nil {
			return err
		}
		secret, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}

	return secret, nil
}

// Errorf satisfies the badger interface for an error logger.
func (s *Store) Errorf(m string, v ...any) {
	s.log.Error(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...))
}

// Warningf satisfies the badger interface for a warning logger.
func (s *Store) Warningf(m string, v ...any) {
	s.log.Warn(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...))
}

// Infof satisfies the badger interface for an info logger.
func (s *Store) Infof(m string, v ...any) {
	s.log.Info(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...))
}

// Debugf satisfies the badger interface for a debug logger.
func (s *Store) Debugf(m string, v ...any) {
	s.log.Debug(fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...))
}

// setKv stores a key-value pair in the database.
func (s *Store) setKv(k string, v storage.Serializable) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		data, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		return txn.Set([]byte(k), data)
	})
	if err != nil {
		s.log.Error("failed to upsert data", "error", err, "key", k)
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// delKv deletes a key-value pair from the database.
func (s *Store) delKv(k string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(k))
	})
	if err != nil {
		s.log.Error("failed to delete data", "error", err, "key", k)
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// getKv retrieves the value associated with a key from the database.
func (s *Store) getKv(k string, v storage.Serializable) error {
	return s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(k))
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return v.UnmarshalBinary(value)
	})
}
