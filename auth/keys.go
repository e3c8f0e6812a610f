// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Key is a signing key as returned once by the administrative key-creation
// operation. The secret Value is never recoverable afterwards; the store
// holds it only for verification.
type Key struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// GenerateKey creates a new signing key. The secret is the hex SHA-1 digest
// of 32 random bytes, and the id is the hex form of the first 4 bytes of the
// SHA-1 digest of that secret.
func GenerateKey() (Key, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return Key{}, fmt.Errorf("generate key seed: %w", err)
	}

	digest := sha1.Sum(seed)
	value := hex.EncodeToString(digest[:])

	idDigest := sha1.Sum([]byte(value))
	id := hex.EncodeToString(idDigest[:4])

	return Key{ID: id, Value: value}, nil
}
