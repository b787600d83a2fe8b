// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pagetracker/internal/logging"
	"github.com/tomtom215/pagetracker/internal/metrics"
)

// Key prefix for BadgerDB storage
const identityKeyPrefix = "identity:"

// BadgerStore implements Store using BadgerDB. Expiry is enforced by Badger
// itself: every entry is written with WithTTL.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerStore wraps an already open database. Close does not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens a database at dir, or in memory when inMemory is set.
func OpenBadgerStore(dir string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open identity store: %w", err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// Name returns the backend name.
func (s *BadgerStore) Name() string { return "badger" }

// Get retrieves a value by key.
func (s *BadgerStore) Get(key string) (string, bool) {
	var value string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(identityKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.RecordIdentityOp(s.Name(), "get", nil)
		return "", false
	}
	metrics.RecordIdentityOp(s.Name(), "get", err)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Identity read failed, treating entry as absent")
		return "", false
	}
	return value, true
}

// Set stores value under key with the given expiry.
func (s *BadgerStore) Set(key, value string, ttl time.Duration) {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(identityKeyPrefix+key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	metrics.RecordIdentityOp(s.Name(), "set", err)
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Identity write failed")
	}
}

// Close closes the database if the store opened it.
func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close identity store: %w", err)
	}
	return nil
}
