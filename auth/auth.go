// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package auth verifies signed access tokens and answers per-topic
// authorization questions. Tokens are HS256 JWTs whose header names the
// signing key by id; claims carry the exact topics the bearer may read
// and write.
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed indicates the token could not be parsed into the
	// expected structure, or names no signing key.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrInvalidSignature indicates the token signature did not verify
	// against the named signing key.
	ErrInvalidSignature = errors.New("token signature invalid")

	// ErrUnknownKey indicates the token named a signing key id with no
	// matching stored key.
	ErrUnknownKey = errors.New("signing key not found")

	// ErrTokenExpired indicates the token's expiry time has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrStoreUnavailable indicates the key store could not be reached.
	ErrStoreUnavailable = errors.New("key store unavailable")
)

// KeyStore looks up signing key material by key id. Implementations return
// ErrUnknownKey for an absent id and ErrStoreUnavailable when the backing
// facility cannot be reached.
type KeyStore interface {
	SigningKey(ctx context.Context, id string) ([]byte, error)
}

// Capabilities are the topic permissions extracted from a validated token.
// Topic matching is exact; there is no wildcard or prefix matching in claims.
type Capabilities struct {
	admin bool
	read  []string
	write []string
}

// NewAdminCapabilities returns capabilities which allow every operation on
// every topic, for callers authenticated by a platform credential rather
// than a subscriber token.
func NewAdminCapabilities() *Capabilities {
	return &Capabilities{admin: true}
}

// NewCapabilities returns capabilities scoped to the given readable and
// writable topics.
func NewCapabilities(read, write []string) *Capabilities {
	return &Capabilities{read: read, write: write}
}

// CanSubscribe returns true if the bearer may subscribe to the topic.
func (c *Capabilities) CanSubscribe(topic string) bool {
	if c.admin {
		return true
	}

	return contains(c.read, topic)
}

// CanPublish returns true if the bearer may publish to the topic.
func (c *Capabilities) CanPublish(topic string) bool {
	if c.admin {
		return true
	}

	return contains(c.write, topic)
}

func contains(s []string, v string) bool {
	for _, i := range s {
		if i == v {
			return true
		}
	}
	return false
}

// accessClaims is the claim set carried by subscriber tokens.
type accessClaims struct {
	Read  []string `json:"read,omitempty"`
	Write []string `json:"write,omitempty"`

	jwt.RegisteredClaims
}

// Validator verifies access tokens against keys held in a KeyStore.
type Validator struct {
	keys KeyStore
}

// NewValidator returns a Validator backed by the given key store.
func NewValidator(keys KeyStore) *Validator {
	return &Validator{keys: keys}
}

// Validate verifies the token signature and expiry and returns the bearer's
// capabilities. Verification is pure given the looked-up key; the only side
// effect is the key store read.
func (v *Validator) Validate(ctx context.Context, token string) (*Capabilities, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}

		id, ok := t.Header["kid"].(string)
		if !ok || id == "" {
			return nil, ErrTokenMalformed
		}

		key, err := v.keys.SigningKey(ctx, id)
		if err != nil {
			return nil, err
		}

		return key, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, classify(err)
	}

	return &Capabilities{
		read:  claims.Read,
		write: claims.Write,
	}, nil
}

// classify maps jwt parse failures onto the package's error taxonomy. Key
// store errors pass through unchanged.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrUnknownKey),
		errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
