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

package ota

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

func newMockCoordinator(t *testing.T) (*Coordinator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(nil, store.New(nil, sqlx.NewDb(db, "postgres")), nil), mock
}

func requireCode(t *testing.T, err error, code apierror.Code) {
	t.Helper()
	var ae *apierror.Error
	require.True(t, errors.As(err, &ae), "err = %v", err)
	require.Equal(t, code, ae.Code)
}

func expectDevice(mock sqlmock.Sqlmock, deviceID, tenantID string) {
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM devices WHERE id = \$1`).
		WithArgs(deviceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "serial_number", "model", "status", "tags", "created_at", "updated_at"}).
			AddRow(deviceID, tenantID, "SN-001", "SWH-200", "ACTIVE", []byte(`{}`), now, now))
}

func expectJob(mock sqlmock.Sqlmock, jobID, tenantID string, target model.OtaTargetType, deviceID any, status model.OtaStatus) {
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT \* FROM ota_jobs WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(jobID, tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "target_type", "device_id", "firmware_id", "status", "scheduled_at", "created_at", "updated_at"}).
			AddRow(jobID, tenantID, target, deviceID, "fw-1", status, now, now, now))
}

// A late device report must not re-finish a job an admin already canceled.
func TestReportRejectsCanceledJob(t *testing.T) {
	c, mock := newMockCoordinator(t)

	expectDevice(mock, "dev-1", "tenant-a")
	expectJob(mock, "job-1", "tenant-a", model.OtaTargetGroup, nil, model.OtaCanceled)

	_, err := c.Report(context.Background(), "dev-1", "job-1", model.OtaFailed, nil, nil)
	requireCode(t, err, apierror.CodeConflict)
}

// When a cancel lands between the job read and the terminal update, the
// guarded update matches nothing and the report conflicts instead of
// flipping the state back.
func TestReportConflictWhenCancelWinsRace(t *testing.T) {
	c, mock := newMockCoordinator(t)

	expectDevice(mock, "dev-1", "tenant-a")
	expectJob(mock, "job-1", "tenant-a", model.OtaTargetGroup, nil, model.OtaInProgress)
	mock.ExpectQuery(`UPDATE ota_jobs SET status = \$2`).
		WillReturnError(sql.ErrNoRows)

	_, err := c.Report(context.Background(), "dev-1", "job-1", model.OtaSuccess, nil, nil)
	requireCode(t, err, apierror.CodeConflict)
}

// A DEVICE-target job only accepts reports from the device it addresses; a
// sibling device in the same tenant gets NOT_FOUND.
func TestReportRejectsForeignDeviceTarget(t *testing.T) {
	c, mock := newMockCoordinator(t)

	expectDevice(mock, "dev-2", "tenant-a")
	expectJob(mock, "job-1", "tenant-a", model.OtaTargetDevice, "dev-1", model.OtaInProgress)

	_, err := c.Report(context.Background(), "dev-2", "job-1", model.OtaInProgress, model.Map{"pct": 50.0}, nil)
	requireCode(t, err, apierror.CodeNotFound)
}

// Progress reports from the addressed device still pass the pin.
func TestReportProgressFromAddressedDevice(t *testing.T) {
	c, mock := newMockCoordinator(t)

	expectDevice(mock, "dev-1", "tenant-a")
	expectJob(mock, "job-1", "tenant-a", model.OtaTargetDevice, "dev-1", model.OtaInProgress)
	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE ota_jobs SET progress = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "target_type", "device_id", "firmware_id", "status", "scheduled_at", "created_at", "updated_at"}).
			AddRow("job-1", "tenant-a", "DEVICE", "dev-1", "fw-1", "IN_PROGRESS", now, now, now))

	job, err := c.Report(context.Background(), "dev-1", "job-1", model.OtaInProgress, model.Map{"pct": 50.0}, nil)
	require.NoError(t, err)
	require.Equal(t, model.OtaInProgress, job.Status)
}
