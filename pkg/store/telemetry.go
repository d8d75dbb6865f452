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

// AppendTelemetry inserts one reading. Telemetry is additive: repeated
// timestamps produce separate rows.
func (q *queries) AppendTelemetry(ctx context.Context, t *model.Telemetry) (*model.Telemetry, error) {
	t.ID = uuid.NewString()
	var out model.Telemetry
	err := q.get(ctx, &out, `
		INSERT INTO telemetry (id, device_id, tenant_id, ts, metrics, geo_lat, geo_lon, geo_accuracy_m, geo_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`,
		t.ID, t.DeviceID, t.TenantID, t.TS, t.Metrics, t.GeoLat, t.GeoLon, t.GeoAccM, t.GeoSource)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRecentTelemetry returns the most recent readings for a device, newest
// first, optionally bounded to readings at or after since.
func (q *queries) ListRecentTelemetry(ctx context.Context, deviceID string, since *time.Time, limit int) ([]model.Telemetry, error) {
	if limit <= 0 {
		limit = 10
	}
	var ts []model.Telemetry
	if since != nil {
		err := q.selekt(ctx, &ts, `
			SELECT * FROM telemetry WHERE device_id = $1 AND ts >= $2 ORDER BY ts DESC LIMIT $3`,
			deviceID, *since, limit)
		return ts, err
	}
	err := q.selekt(ctx, &ts, `
		SELECT * FROM telemetry WHERE device_id = $1 ORDER BY ts DESC LIMIT $2`,
		deviceID, limit)
	return ts, err
}

// ListTelemetryRange returns a device's readings inside [from, to), oldest
// first. The daily rollup reads through it.
func (q *queries) ListTelemetryRange(ctx context.Context, deviceID string, from, to time.Time) ([]model.Telemetry, error) {
	var ts []model.Telemetry
	err := q.selekt(ctx, &ts, `
		SELECT * FROM telemetry WHERE device_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts ASC`,
		deviceID, from, to)
	return ts, err
}

// ListDeviceIDsWithTelemetry returns the ids of a tenant's devices that have
// at least one reading inside [from, to).
func (q *queries) ListDeviceIDsWithTelemetry(ctx context.Context, tenantID string, from, to time.Time) ([]string, error) {
	var ids []string
	err := q.selekt(ctx, &ids, `
		SELECT DISTINCT device_id FROM telemetry WHERE tenant_id = $1 AND ts >= $2 AND ts < $3`,
		tenantID, from, to)
	return ids, err
}

// UpsertDeviceTwin replaces the twin's last timestamp and derived state.
// One twin per device, keyed by the unique device_id index.
func (q *queries) UpsertDeviceTwin(ctx context.Context, deviceID string, lastTS time.Time, derived model.Map) (*model.DeviceTwin, error) {
	now := time.Now().UTC()
	var tw model.DeviceTwin
	err := q.get(ctx, &tw, `
		INSERT INTO device_twins (id, device_id, last_ts, derived_state, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE
			SET last_ts = EXCLUDED.last_ts,
				derived_state = EXCLUDED.derived_state,
				updated_at = EXCLUDED.updated_at
		RETURNING *`,
		uuid.NewString(), deviceID, lastTS, derived, now)
	if err != nil {
		return nil, err
	}
	return &tw, nil
}

// GetDeviceTwin returns the twin for a device, or ErrNotFound before the
// first telemetry write.
func (q *queries) GetDeviceTwin(ctx context.Context, deviceID string) (*model.DeviceTwin, error) {
	var tw model.DeviceTwin
	err := q.get(ctx, &tw, `SELECT * FROM device_twins WHERE device_id = $1`, deviceID)
	if err != nil {
		return nil, err
	}
	return &tw, nil
}
