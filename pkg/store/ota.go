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
	"time"

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// CreateFirmwarePackage registers a firmware version in the global catalog.
// Duplicate versions surface as ErrConflict.
func (q *queries) CreateFirmwarePackage(ctx context.Context, f *model.FirmwarePackage) (*model.FirmwarePackage, error) {
	f.ID = uuid.NewString()
	var out model.FirmwarePackage
	err := q.get(ctx, &out, `
		INSERT INTO firmware_packages (id, version, url, checksum, release_notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		f.ID, f.Version, f.URL, f.Checksum, f.ReleaseNotes)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFirmwarePackage returns a catalog entry by id.
func (q *queries) GetFirmwarePackage(ctx context.Context, id string) (*model.FirmwarePackage, error) {
	var f model.FirmwarePackage
	if err := q.get(ctx, &f, `SELECT * FROM firmware_packages WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFirmwarePackages returns the whole catalog, newest first.
func (q *queries) ListFirmwarePackages(ctx context.Context) ([]model.FirmwarePackage, error) {
	var fs []model.FirmwarePackage
	err := q.selekt(ctx, &fs, `SELECT * FROM firmware_packages ORDER BY created_at DESC`)
	return fs, err
}

// CreateOtaJob schedules a rollout.
func (q *queries) CreateOtaJob(ctx context.Context, j *model.OtaJob) (*model.OtaJob, error) {
	j.ID = uuid.NewString()
	var out model.OtaJob
	err := q.get(ctx, &out, `
		INSERT INTO ota_jobs (id, tenant_id, target_type, device_id, group_filter, firmware_id, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		j.ID, j.TenantID, j.TargetType, j.DeviceID, nullableMap(j.GroupFilter), j.FirmwareID, model.OtaScheduled, j.ScheduledAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOtaJob returns a job scoped to a tenant.
func (q *queries) GetOtaJob(ctx context.Context, tenantID, id string) (*model.OtaJob, error) {
	var j model.OtaJob
	err := q.get(ctx, &j, `SELECT * FROM ota_jobs WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListOtaJobs returns a tenant's jobs, newest scheduled first.
func (q *queries) ListOtaJobs(ctx context.Context, tenantID string) ([]model.OtaJob, error) {
	var js []model.OtaJob
	err := q.selekt(ctx, &js, `SELECT * FROM ota_jobs WHERE tenant_id = $1 ORDER BY scheduled_at DESC`, tenantID)
	return js, err
}

// NextOtaJobForDevice returns the earliest-scheduled live job addressing the
// device: target DEVICE with a matching id, or any GROUP job of its tenant.
func (q *queries) NextOtaJobForDevice(ctx context.Context, tenantID, deviceID string) (*model.OtaJob, error) {
	var j model.OtaJob
	err := q.get(ctx, &j, `
		SELECT * FROM ota_jobs
		WHERE tenant_id = $1
			AND status IN ('SCHEDULED', 'IN_PROGRESS')
			AND (
				(target_type = 'DEVICE' AND device_id = $2)
				OR target_type = 'GROUP'
			)
		ORDER BY scheduled_at ASC
		LIMIT 1`,
		tenantID, deviceID)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// StartOtaJob moves a SCHEDULED job to IN_PROGRESS. A no-op if the job
// already progressed.
func (q *queries) StartOtaJob(ctx context.Context, id string, progress model.Map) (*model.OtaJob, error) {
	now := time.Now().UTC()
	var j model.OtaJob
	err := q.get(ctx, &j, `
		UPDATE ota_jobs SET status = $2, started_at = $3, progress = COALESCE($4, progress), updated_at = $3
		WHERE id = $1 AND status = $5
		RETURNING *`,
		id, model.OtaInProgress, now, nullableMap(progress), model.OtaScheduled)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// UpdateOtaJobProgress refreshes the progress mapping of a running job.
func (q *queries) UpdateOtaJobProgress(ctx context.Context, id string, progress model.Map) (*model.OtaJob, error) {
	now := time.Now().UTC()
	var j model.OtaJob
	err := q.get(ctx, &j, `
		UPDATE ota_jobs SET progress = COALESCE($2, progress), updated_at = $3
		WHERE id = $1
		RETURNING *`,
		id, nullableMap(progress), now)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FinishOtaJob records a terminal SUCCESS or FAILED report. Only live jobs
// can finish; a job already in a terminal state surfaces ErrNotFound.
func (q *queries) FinishOtaJob(ctx context.Context, id string, status model.OtaStatus, progress model.Map, errorMsg *string) (*model.OtaJob, error) {
	now := time.Now().UTC()
	var j model.OtaJob
	err := q.get(ctx, &j, `
		UPDATE ota_jobs SET status = $2, finished_at = $3, progress = COALESCE($4, progress),
			error_msg = $5, updated_at = $3
		WHERE id = $1 AND status IN ('SCHEDULED', 'IN_PROGRESS')
		RETURNING *`,
		id, status, now, nullableMap(progress), errorMsg)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CancelOtaJob is the administrative terminal transition.
func (q *queries) CancelOtaJob(ctx context.Context, tenantID, id string) (*model.OtaJob, error) {
	now := time.Now().UTC()
	var j model.OtaJob
	err := q.get(ctx, &j, `
		UPDATE ota_jobs SET status = $3, finished_at = $4, updated_at = $4
		WHERE id = $1 AND tenant_id = $2 AND status IN ('SCHEDULED', 'IN_PROGRESS')
		RETURNING *`,
		id, tenantID, model.OtaCanceled, now)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
