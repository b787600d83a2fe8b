// PageTracker - Consent-Gated Page Event Tracking Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagetracker

package identity

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Helper function to create a test BadgerDB instance
func createTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil // Disable logging for tests
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBadgerStore_SetGet(t *testing.T) {
	store := NewBadgerStore(createTestBadgerDB(t))

	if _, ok := store.Get("_p_uid"); ok {
		t.Fatal("Get() on empty store should report absent")
	}

	store.Set("_p_uid", "user-1", time.Hour)
	got, ok := store.Get("_p_uid")
	if !ok || got != "user-1" {
		t.Errorf("Get() = %q, %v; want user-1, true", got, ok)
	}

	store.Set("_p_uid", "user-2", time.Hour)
	if got, _ := store.Get("_p_uid"); got != "user-2" {
		t.Errorf("Get() after overwrite = %q, want user-2", got)
	}
}

func TestBadgerStore_Expiry(t *testing.T) {
	store := NewBadgerStore(createTestBadgerDB(t))

	// Badger TTLs have one-second granularity.
	store.Set("tracking_consent", ConsentGranted, time.Second)
	if _, ok := store.Get("tracking_consent"); !ok {
		t.Fatal("entry should be readable before expiry")
	}

	time.Sleep(2100 * time.Millisecond)
	if v, ok := store.Get("tracking_consent"); ok {
		t.Errorf("expired entry read as %q", v)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenBadgerStore(dir, false)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	store.Set("_p_acc", "a@example.com", 365*24*time.Hour)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStore(dir, false)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if got, ok := reopened.Get("_p_acc"); !ok || got != "a@example.com" {
		t.Errorf("Get() after reopen = %q, %v", got, ok)
	}
}

func TestBadgerStore_InMemory(t *testing.T) {
	store, err := OpenBadgerStore("", true)
	if err != nil {
		t.Fatalf("OpenBadgerStore(inMemory) error = %v", err)
	}
	defer store.Close()

	store.Set("k", "v", time.Minute)
	if got, ok := store.Get("k"); !ok || got != "v" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if store.Name() != "badger" {
		t.Errorf("Name() = %q", store.Name())
	}
}
