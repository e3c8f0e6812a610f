// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package auth

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type mapKeyStore struct {
	keys map[string][]byte
	err  error
}

func (s *mapKeyStore) SigningKey(_ context.Context, id string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	key, ok := s.keys[id]
	if !ok {
		return nil, ErrUnknownKey
	}
	return key, nil
}

func mintToken(t *testing.T, kid string, secret []byte, read, write []string, expires time.Time) string {
	t.Helper()

	claims := accessClaims{
		Read:  read,
		Write: write,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = kid

	signed, err := tok.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{"k1": []byte("notasecret")}}
	v := NewValidator(store)

	token := mintToken(t, "k1", []byte("notasecret"),
		[]string{"readable"}, []string{"writable"}, time.Now().Add(time.Minute))

	caps, err := v.Validate(context.Background(), token)
	require.NoError(t, err)
	require.True(t, caps.CanSubscribe("readable"))
	require.False(t, caps.CanSubscribe("foo"))
	require.True(t, caps.CanPublish("writable"))
	require.False(t, caps.CanPublish("readable"))
}

func TestValidateTokenExpired(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{"k1": []byte("notasecret")}}
	v := NewValidator(store)

	token := mintToken(t, "k1", []byte("notasecret"),
		[]string{"readable"}, nil, time.Now().Add(-time.Minute))

	_, err := v.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenBadSignature(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{"k1": []byte("notasecret")}}
	v := NewValidator(store)

	token := mintToken(t, "k1", []byte("wrongsecret"),
		[]string{"readable"}, nil, time.Now().Add(time.Minute))

	_, err := v.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateTokenUnknownKey(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{}}
	v := NewValidator(store)

	token := mintToken(t, "absent", []byte("notasecret"),
		nil, nil, time.Now().Add(time.Minute))

	_, err := v.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrUnknownKey)
}

func TestValidateTokenNoKeyID(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{"k1": []byte("notasecret")}}
	v := NewValidator(store)

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("notasecret"))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), signed)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestValidateTokenNoExpiry(t *testing.T) {
	store := &mapKeyStore{keys: map[string][]byte{"k1": []byte("notasecret")}}
	v := NewValidator(store)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString([]byte("notasecret"))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), signed)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestValidateTokenGarbage(t *testing.T) {
	v := NewValidator(&mapKeyStore{})

	_, err := v.Validate(context.Background(), "not.a.token")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestValidateTokenStoreUnavailable(t *testing.T) {
	store := &mapKeyStore{err: ErrStoreUnavailable}
	v := NewValidator(store)

	token := mintToken(t, "k1", []byte("notasecret"),
		nil, nil, time.Now().Add(time.Minute))

	_, err := v.Validate(context.Background(), token)
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAdminCapabilities(t *testing.T) {
	caps := NewAdminCapabilities()
	require.True(t, caps.CanSubscribe("anything"))
	require.True(t, caps.CanPublish("anything"))
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	require.Len(t, key.Value, 40)
	require.Len(t, key.ID, 8)

	digest := sha1.Sum([]byte(key.Value))
	require.Equal(t, hex.EncodeToString(digest[:4]), key.ID)

	other, err := GenerateKey()
	require.NoError(t, err)
	require.NotEqual(t, key.Value, other.Value)
}
