// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements the typed, tenant-filtered persistence layer on
// top of Postgres. Every read of a tenant-scoped entity takes the caller's
// tenant id; multi-tenant isolation is enforced here and nowhere else.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/lib/pq" // postgres driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotFound is returned when the addressed row does not exist or is
	// scoped out by the tenant filter. The two cases are indistinguishable
	// on purpose.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned on unique-constraint violations.
	ErrConflict = errors.New("store: conflict")
)

const pqUniqueViolation = "23505"

// mapErr normalizes driver errors into the store's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

// IsConflict reports whether err is a unique-constraint violation.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// queries carries every repository method. It runs against either the pooled
// connection or an open transaction, depending on the embedding type.
type queries struct {
	q sqlx.ExtContext
}

func (q *queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return mapErr(sqlx.GetContext(ctx, q.q, dest, query, args...))
}

func (q *queries) selekt(ctx context.Context, dest any, query string, args ...any) error {
	return mapErr(sqlx.SelectContext(ctx, q.q, dest, query, args...))
}

func (q *queries) exec(ctx context.Context, query string, args ...any) error {
	_, err := q.q.ExecContext(ctx, query, args...)
	return mapErr(err)
}

// execRows runs a statement and returns the number of rows affected.
func (q *queries) execRows(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	return n, mapErr(err)
}

// Store is the root handle over the database.
type Store struct {
	queries
	db     *sqlx.DB
	logger log.Logger
}

// Tx exposes the same repository methods inside one database transaction.
type Tx struct {
	queries
	tx *sqlx.Tx
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, logger log.Logger, databaseURL string) (*Store, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(logger, db), nil
}

// New wraps an existing connection. Used by tests with sqlmock.
func New(logger log.Logger, db *sqlx.DB) *Store {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Store{queries: queries{q: db}, db: db, logger: logger}
}

// Migrate applies all embedded schema migrations.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(s.db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Ping reports database reachability, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a REPEATABLE READ transaction, committing on nil and
// rolling back otherwise. The telemetry fan-out and the command
// poll-and-mark depend on this isolation level.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Tx{queries: queries{q: tx}, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			level.Warn(s.logger).Log("msg", "transaction rollback failed", "err", rbErr)
		}
		return err
	}
	return mapErr(tx.Commit())
}
