/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package db implements the bridge's local state store on Postgres via pgx.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same query methods serve both pooled and transactional access.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the pgx-backed Service implementation.
type DB struct {
	pool   *pgxpool.Pool
	q      querier
	logger logger.Logger
}

var _ Service = (*DB)(nil)

// New connects to the configured Postgres cluster, verifies the connection,
// and applies the schema.
func New(ctx context.Context, cfg *models.DatabaseConfig, log logger.Logger) (*DB, error) {
	pool, err := newPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %s", ErrFailedOpenDB, err)
	}

	db := &DB{pool: pool, q: pool, logger: log}

	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

// Close releases the connection pool. Transactional views share the parent's
// pool and must not close it.
func (db *DB) Close() {
	if _, ok := db.q.(pgx.Tx); ok {
		return
	}

	if db.pool != nil {
		db.pool.Close()
	}
}

// WithTx runs fn against a transactional view of the store. A view that is
// already transactional runs fn in place so nested calls join the outer
// transaction.
func (db *DB) WithTx(ctx context.Context, fn func(Service) error) error {
	if _, ok := db.q.(pgx.Tx); ok {
		return fn(db)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	view := &DB{pool: db.pool, q: tx, logger: db.logger}

	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			db.logger.Warn().Err(rbErr).Msg("transaction rollback failed")
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func sanitizeTimestamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}

	return ts.UTC()
}

// nullableID maps the zero identifier to SQL NULL.
func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}

	return id
}

func fromNullableID(id *int64) int64 {
	if id == nil {
		return 0
	}

	return *id
}

// marshalJSONField renders a value for a JSONB column, mapping empty
// collections to NULL.
func marshalJSONField(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []int64:
		if len(v) == 0 {
			return nil, nil
		}
	case []models.HostTag:
		if len(v) == 0 {
			return nil, nil
		}
	case []models.HostMacro:
		if len(v) == 0 {
			return nil, nil
		}
	case []models.InterfaceConfiguration:
		if len(v) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(v) == 0 {
			return nil, nil
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// unmarshalJSONField fills out from a JSONB column, treating NULL as absent.
func unmarshalJSONField(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}

	return json.Unmarshal(raw, out)
}
