// Package kv persists collection snapshots in a local SQLite file. It backs
// the in-memory store across restarts when no Postgres database is configured.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/okalkan/defter/internal/book"
)

// Store is a small key-value wrapper over a SQLite file. Each collection is
// stored as one JSON document under its collection name.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the SQLite file and ensures the kv table exists.
// WAL mode is enabled for better concurrency.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(`create table if not exists kv (key text primary key, value blob not null)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		insert into kv (key, value) values (?, ?)
		on conflict (key) do update set value = excluded.value
	`, key, value)
	return err
}

// Get returns the value stored under key. A missing key is reported as
// (nil, false, nil).
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `select value from kv where key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// SaveSnapshot writes every collection of the snapshot as its own row.
func (s *Store) SaveSnapshot(ctx context.Context, snap book.Snapshot) error {
	parts := map[string]any{
		book.CollectionCustomers:    snap.Customers,
		book.CollectionProducts:     snap.Products,
		book.CollectionSafes:        snap.Safes,
		book.CollectionTransactions: snap.Transactions,
	}
	for key, part := range parts {
		raw, err := json.Marshal(part)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := s.Set(ctx, key, raw); err != nil {
			return fmt.Errorf("store %s: %w", key, err)
		}
	}
	return nil
}

// LoadSnapshot reads the collections back. Missing rows yield empty slices so
// a fresh file loads as an empty book.
func (s *Store) LoadSnapshot(ctx context.Context) (book.Snapshot, error) {
	var snap book.Snapshot
	if err := s.loadPart(ctx, book.CollectionCustomers, &snap.Customers); err != nil {
		return book.Snapshot{}, err
	}
	if err := s.loadPart(ctx, book.CollectionProducts, &snap.Products); err != nil {
		return book.Snapshot{}, err
	}
	if err := s.loadPart(ctx, book.CollectionSafes, &snap.Safes); err != nil {
		return book.Snapshot{}, err
	}
	if err := s.loadPart(ctx, book.CollectionTransactions, &snap.Transactions); err != nil {
		return book.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) loadPart(ctx context.Context, key string, dst any) error {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
