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

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(nil, sqlx.NewDb(db, "postgres")), mock
}

func TestMapErr(t *testing.T) {
	if err := mapErr(nil); err != nil {
		t.Errorf("mapErr(nil) = %v", err)
	}
	if err := mapErr(sql.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Errorf("mapErr(ErrNoRows) = %v, want ErrNotFound", err)
	}
	if err := mapErr(fmt.Errorf("scan: %w", sql.ErrNoRows)); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrapped ErrNoRows = %v, want ErrNotFound", err)
	}

	uniq := &pq.Error{Code: pqUniqueViolation, Constraint: "devices_tenant_serial_key"}
	if err := mapErr(uniq); !IsConflict(err) {
		t.Errorf("mapErr(23505) = %v, want conflict", err)
	}

	other := &pq.Error{Code: "23503"}
	if err := mapErr(other); IsConflict(err) || errors.Is(err, ErrNotFound) {
		t.Errorf("foreign key violation mapped to a sentinel: %v", err)
	}
}

func TestGetDeviceNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM devices`).
		WithArgs("dev-1", "tenant-a").
		WillReturnError(sql.ErrNoRows)

	_, err := st.GetDevice(context.Background(), "tenant-a", "dev-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetDeviceScopedByTenant(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now().UTC()

	cols := []string{"id", "tenant_id", "serial_number", "model", "status", "tags", "created_at", "updated_at"}
	mock.ExpectQuery(`SELECT \* FROM devices WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs("dev-1", "tenant-a").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("dev-1", "tenant-a", "SN-001", "SWH-200", "ACTIVE", []byte(`{}`), now, now))

	d, err := st.GetDevice(context.Background(), "tenant-a", "dev-1")
	require.NoError(t, err)
	require.Equal(t, "tenant-a", d.TenantID)
	require.Equal(t, "SN-001", d.SerialNumber)
}

func TestCreateDeviceConflict(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO devices`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: "devices_tenant_id_serial_number_key"})

	_, err := st.CreateDevice(context.Background(), &model.Device{
		TenantID:     "tenant-a",
		SerialNumber: "SN-001",
		Model:        "SWH-200",
	})
	require.True(t, IsConflict(err), "want conflict, got %v", err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("boom")
	err := st.WithTx(context.Background(), func(tx *Tx) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
}

func TestWithTxCommits(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE devices SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := st.WithTx(context.Background(), func(tx *Tx) error {
		return tx.TouchDeviceSeen(context.Background(), "dev-1", time.Now().UTC(), nil, nil, nil, nil)
	})
	require.NoError(t, err)
}
