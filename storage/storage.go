// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package storage defines the record types and interface for the broker's
// durable overlay: the single retained message kept per topic, and the
// signing keys used to verify access tokens. Backends live in subpackages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	RetainedKey   = "RET" // unique key prefix for retained messages in a store
	SigningKeyKey = "KEY" // unique key prefix for token signing keys in a store
)

var (
	// ErrDBFileNotOpen indicates that the file database (e.g. bolt/badger) wasn't open for reading.
	ErrDBFileNotOpen = errors.New("db file not open")

	// ErrRecordNotFound indicates no record exists for the requested key.
	ErrRecordNotFound = errors.New("record not found")

	// ErrKeyNotFound indicates no signing key exists with the requested id.
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrStoreUnavailable indicates the backing facility could not be
	// reached. Durability and administrative operations fail with this;
	// live delivery is never gated on it.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Serializable is an interface for objects that can be serialized and deserialized.
type Serializable interface {
	UnmarshalBinary([]byte) error
	MarshalBinary() (data []byte, err error)
}

// Record is the persisted form of a retained message. At most one record
// exists per topic; a new retained publish replaces the prior record.
type Record struct {
	Payload   []byte `json:"payload"`
	Topic     string `json:"topic"`
	Created   int64  `json:"created"`             // unix time the record was stored
	ExpiresAt int64  `json:"expiresAt,omitempty"` // unix expiry time; 0 means no expiry
}

// MarshalBinary encodes the values into a json string.
func (d Record) MarshalBinary() (data []byte, err error) {
	return json.Marshal(d)
}

// UnmarshalBinary decodes a json string into a struct.
func (d *Record) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, d)
}

// Expired returns true if the record carries an expiry time in the past.
func (d *Record) Expired(now time.Time) bool {
	return d.ExpiresAt > 0 && now.Unix() >= d.ExpiresAt
}

// RemainingTTL returns the number of whole seconds until the record
// expires, or 0 if it has no expiry.
func (d *Record) RemainingTTL(now time.Time) uint32 {
	if d.ExpiresAt == 0 {
		return 0
	}
	remaining := d.ExpiresAt - now.Unix()
	if remaining < 0 {
		return 0
	}
	return uint32(remaining)
}

// Store is the durable key-value facility behind retained messages and
// signing keys. GetRetained treats an expired record as absent and may
// opportunistically remove it. Implementations must be safe for concurrent
// use.
type Store interface {

	// Open prepares the backend for use.
	Open() error

	// Close releases the backend.
	Close() error

	// PutRetained replaces the topic's retained record unconditionally.
	PutRetained(ctx context.Context, r Record) error

	// GetRetained returns the topic's unexpired retained record, or
	// ErrRecordNotFound.
	GetRetained(ctx context.Context, topic string) (Record, error)

	// DeleteRetained removes any retained record for the topic.
	DeleteRetained(ctx context.Context, topic string) error

	// PutSigningKey stores verification key material under an id.
	PutSigningKey(ctx context.Context, id string, secret []byte) error

	// SigningKey returns the key material for an id, or ErrKeyNotFound.
	SigningKey(ctx context.Context, id string) ([]byte, error)
}

// RetainedStorageKey returns the primary key for a topic's retained record.
func RetainedStorageKey(topic string) string {
	return RetainedKey + "_" + topic
}

// SigningStorageKey returns the primary key for a signing key id.
func SigningStorageKey(id string) string {
	return SigningKeyKey + "_" + id
}
