// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/server/listeners"
	"github.com/streamhub/server/storage/bolt"

	hub "github.com/streamhub/server"
)

var (
	yamlBytes = []byte(`
listeners:
  - type: "ws"
    id: "file-ws1"
    address: ":1882"
  - type: "events"
    id: "file-events1"
    address: ":8080"
storage:
  bolt:
    path: "streamhub.db"
options:
  admin_token: "super-secret"
  keep_alive_interval: 45
`)

	jsonBytes = []byte(`{
   "listeners": [
      {
         "type": "ws",
         "id": "file-ws1",
         "address": ":1882"
      },
      {
         "type": "events",
         "id": "file-events1",
         "address": ":8080"
      }
   ],
   "storage": {
      "bolt": {
         "path": "streamhub.db"
      }
   },
   "options": {
      "admin_token": "super-secret",
      "keep_alive_interval": 45
   }
}
`)

	parsedOptions = hub.Options{
		Listeners: []listeners.Config{
			{
				Type:    listeners.TypeWS,
				ID:      "file-ws1",
				Address: ":1882",
			},
			{
				Type:    listeners.TypeEvents,
				ID:      "file-events1",
				Address: ":8080",
			},
		},
		Store:             bolt.New(&bolt.Options{Path: "streamhub.db"}),
		AdminToken:        "super-secret",
		KeepAliveInterval: 45,
	}
)

func TestFromBytesEmpty(t *testing.T) {
	_, err := FromBytes([]byte{})
	require.NoError(t, err)
}

func TestFromBytesYAML(t *testing.T) {
	o, err := FromBytes(yamlBytes)
	require.NoError(t, err)
	require.Equal(t, parsedOptions, *o)
}

func TestFromBytesYAMLError(t *testing.T) {
	_, err := FromBytes(append(yamlBytes, 'a'))
	require.Error(t, err)
}

func TestFromBytesJSON(t *testing.T) {
	o, err := FromBytes(jsonBytes)
	require.NoError(t, err)
	require.Equal(t, parsedOptions, *o)
}

func TestFromBytesJSONError(t *testing.T) {
	_, err := FromBytes(append(jsonBytes, 'a'))
	require.Error(t, err)
}

func TestToStoreNone(t *testing.T) {
	sc := new(StorageConfig)
	require.Nil(t, sc.ToStore())
}

func TestToStoreBolt(t *testing.T) {
	sc := &StorageConfig{
		Bolt: &bolt.Options{Path: "streamhub.db"},
	}
	require.Equal(t, bolt.New(&bolt.Options{Path: "streamhub.db"}), sc.ToStore())
}
