// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package memory provides an in-process store, used by default and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/streamhub/server/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	sync.RWMutex
	retained map[string]storage.Record
	keys     map[string][]byte
}

// New returns a new in-memory store.
func New() *Store {
	return &Store{
		retained: map[string]storage.Record{},
		keys:     map[string][]byte{},
	}
}

// Open prepares the store for use.
func (s *Store) Open() error {
	return nil
}

// Close releases the store.
func (s *Store) Close() error {
	return nil
}

// PutRetained replaces the topic's retained record unconditionally.
func (s *Store) PutRetained(_ context.Context, r storage.Record) error {
	s.Lock()
	defer s.Unlock()
	s.retained[r.Topic] = r
	return nil
}

// GetRetained returns the topic's unexpired retained record. An expired
// record is removed and reported as absent.
func (s *Store) GetRetained(_ context.Context, topic string) (storage.Record, error) {
	s.Lock()
	defer s.Unlock()

	r, ok := s.retained[topic]
	if !ok {
		return storage.Record{}, storage.ErrRecordNotFound
	}

	if r.Expired(time.Now()) {
		delete(s.retained, topic)
		return storage.Record{}, storage.ErrRecordNotFound
	}

	return r, nil
}

// DeleteRetained removes any retained record for the topic.
func (s *Store) DeleteRetained(_ context.Context, topic string) error {
	s.Lock()
	defer s.Unlock()
	delete(s.retained, topic)
	return nil
}

// PutSigningKey stores verification key material under an id.
func (s *Store) PutSigningKey(_ context.Context, id string, secret []byte) error {
	s.Lock()
	defer s.Unlock()
	s.keys[id] = append([]byte(nil), secret...)
	return nil
}

// SigningKey returns the key material for an id.
func (s *Store) SigningKey(_ context.Context, id string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()

	secret, ok := s.keys[id]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return append([]byte(nil), secret...), nil
}
