// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ckptdb stores trained-model checkpoints in a local SQLite
// database. Payloads are opaque bytes: the training framework's own JSON
// serialization of learned parameters.
package ckptdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed checkpoint store. Checkpoints are keyed by id;
// saving under an existing id replaces the payload.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// ErrNotFound is returned by Load for an unknown checkpoint id.
var ErrNotFound = errors.New("ckptdb: checkpoint not found")

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init opens the database and creates the schema if needed.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("ckptdb: path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			loss REAL NOT NULL,
			payload BLOB NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Save upserts a checkpoint payload with its reported loss.
func (s *Store) Save(ctx context.Context, id string, loss float64, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (id, loss, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			loss = excluded.loss,
			payload = excluded.payload
	`, id, loss, payload)
	return err
}

// Load returns the payload and loss stored under id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) ([]byte, float64, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, 0, err
	}
	var payload []byte
	var loss float64
	err = db.QueryRowContext(ctx, `SELECT payload, loss FROM checkpoints WHERE id = ?`, id).Scan(&payload, &loss)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, 0, err
	}
	return payload, loss, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("ckptdb: store not initialized")
	}
	return s.db, nil
}
