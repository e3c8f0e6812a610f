// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package bolt is provided for historical compatibility and may not be actively updated, you should use the badger store instead.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/streamhub/server/storage"
)

const (
	// defaultDbFile is the default file path for the boltdb file.
	defaultDbFile = ".bolt"

	// defaultTimeout is the default time to hold a connection to the file.
	defaultTimeout = 250 * time.Millisecond

	defaultBucket = "streamhub"
)

var errKeyNotFound = errors.New("key not found")

// Options contains configuration settings for the bolt instance.
type Options struct {
	Options *bbolt.Options
	Bucket  string `yaml:"bucket" json:"bucket"`
	Path    string `yaml:"path" json:"path"`
}

// Store is a persistent store using a boltdb file as a backend.
type Store struct {
	config *Options
	db     *bbolt.DB
}

// New returns a new boltdb store.
func New(config *Options) *Store {
	if config == nil {
		config = new(Options)
	}
	return &Store{config: config}
}

// Open opens the boltdb instance.
func (s *Store) Open() error {
	if len(s.config.Path) == 0 {
		s.config.Path = defaultDbFile
	}

	if s.config.Options == nil {
		s.config.Options = &bbolt.Options{
			Timeout: defaultTimeout,
		}
	}

	if len(s.config.Bucket) == 0 {
		s.config.Bucket = defaultBucket
	}

	var err error
	s.db, err = bbolt.Open(s.config.Path, 0600, s.config.Options)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(s.config.Bucket))
		return err
	})
}

// Close closes the boltdb instance.
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
	if errors.Is(err, errKeyNotFound) {
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
	return s.delKv(storage.RetainedStorageKey(topic))
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
	if errors.Is(err, errKeyNotFound) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}

	return secret, nil
}

// setKv stores a key-value pair in the bucket.
func (s *Store) setKv(k string, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(s.config.Bucket))
		return bucket.Put([]byte(k), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// delKv deletes a key-value pair from the bucket.
func (s *Store) delKv(k string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(s.config.Bucket))
		return bucket.Delete([]byte(k))
	})
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrStoreUnavailable, err)
	}
	return nil
}

// getKv retrieves the value associated with a key from the bucket.
func (s *Store) getKv(k string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(s.config.Bucket))
		v := bucket.Get([]byte(k))
		if v == nil {
			return errKeyNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}
