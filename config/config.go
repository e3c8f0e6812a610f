// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2025 streamhub

// Package config parses server configuration from YAML or JSON sources.
package config

import (
	"encoding/json"

	"github.com/streamhub/server/listeners"
	"github.com/streamhub/server/storage"
	"github.com/streamhub/server/storage/badger"
	"github.com/streamhub/server/storage/bolt"
	"github.com/streamhub/server/storage/pebble"
	"github.com/streamhub/server/storage/redis"
	"gopkg.in/yaml.v3"

	hub "github.com/streamhub/server"
)

// config defines the structure of configuration data to be parsed from a config source.
type config struct {
	Options   hub.Options
	Listeners []listeners.Config `yaml:"listeners" json:"listeners"`
	Storage   *StorageConfig     `yaml:"storage" json:"storage"`
}

// StorageConfig contains configurations for the different store backends.
// At most one backend should be set; the first non-nil backend wins, and
// the server falls back to its in-memory store when none is set.
type StorageConfig struct {
	Badger *badger.Options `yaml:"badger" json:"badger"`
	Bolt   *bolt.Options   `yaml:"bolt" json:"bolt"`
	Pebble *pebble.Options `yaml:"pebble" json:"pebble"`
	Redis  *redis.Options  `yaml:"redis" json:"redis"`
}

// ToStore converts a storage configuration into a store backend.
func (sc *StorageConfig) ToStore() storage.Store {
	switch {
	case sc.Badger != nil:
		return badger.New(sc.Badger, nil)
	case sc.Bolt != nil:
		return bolt.New(sc.Bolt)
	case sc.Pebble != nil:
		return pebble.New(sc.Pebble)
	case sc.Redis != nil:
		return redis.New(sc.Redis)
	}
	return nil
}

// FromBytes unmarshals a byte slice of JSON or YAML config data into a valid server options value.
// Any storage configuration is converted into a store backend using ToStore.
func FromBytes(b []byte) (*hub.Options, error) {
	c := new(config)
	o := hub.Options{}

	if len(b) == 0 {
		return nil, nil
	}

	if b[0] == '{' {
		err := json.Unmarshal(b, c)
		if err != nil {
			return nil, err
		}
	} else {
		err := yaml.Unmarshal(b, c)
		if err != nil {
			return nil, err
		}
	}

	o = c.Options
	o.Listeners = c.Listeners

	if c.Storage != nil {
		o.Store = c.Storage.ToStore()
	}

	return &o, nil
}
