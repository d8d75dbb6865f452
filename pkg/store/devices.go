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
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// CreateDevice inserts a device. Duplicate (tenant, serial) pairs surface as
// ErrConflict.
func (q *queries) CreateDevice(ctx context.Context, d *model.Device) (*model.Device, error) {
	d.ID = uuid.NewString()
	if d.Status == "" {
		d.Status = model.DeviceProvisioned
	}
	var out model.Device
	err := q.get(ctx, &out, `
		INSERT INTO devices (id, tenant_id, site_id, owner_user_id, serial_number, model,
			name, notes, tags, status, firmware_version, sim_iccid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING *`,
		d.ID, d.TenantID, d.SiteID, d.OwnerUserID, d.SerialNumber, d.Model,
		d.Name, d.Notes, d.Tags, d.Status, d.FirmwareVersion, d.SimICCID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDevice returns a device scoped to a tenant.
func (q *queries) GetDevice(ctx context.Context, tenantID, id string) (*model.Device, error) {
	var d model.Device
	err := q.get(ctx, &d, `SELECT * FROM devices WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDeviceByID returns a device without tenant filtering. Reserved for
// device-authenticated paths where the device id was proven by its MAC token.
func (q *queries) GetDeviceByID(ctx context.Context, id string) (*model.Device, error) {
	var d model.Device
	if err := q.get(ctx, &d, `SELECT * FROM devices WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// DeviceFilter narrows device listings.
type DeviceFilter struct {
	Status *model.DeviceStatus
	SiteID *string
	Search string // matches serial or name, case-insensitive
	Limit  int
	Offset int
}

// ListDevices returns a tenant's devices with the filter applied, plus the
// unpaged total.
func (q *queries) ListDevices(ctx context.Context, tenantID string, f DeviceFilter) ([]model.Device, int, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.SiteID != nil {
		args = append(args, *f.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(serial_number ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM devices WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT * FROM devices WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	var ds []model.Device
	if err := q.selekt(ctx, &ds, query, args...); err != nil {
		return nil, 0, err
	}
	return ds, total, nil
}

// ListDevicesByStatuses returns a tenant's devices in any of the given
// states. The alert evaluator sweeps ACTIVE and INSTALLED devices with it.
func (q *queries) ListDevicesByStatuses(ctx context.Context, tenantID string, statuses []model.DeviceStatus) ([]model.Device, error) {
	ss := make([]string, len(statuses))
	for i, s := range statuses {
		ss[i] = string(s)
	}
	var ds []model.Device
	err := q.selekt(ctx, &ds, `
		SELECT * FROM devices WHERE tenant_id = $1 AND status = ANY($2) ORDER BY created_at`,
		tenantID, pqStringArray(ss))
	return ds, err
}

// DeviceUpdate is a partial device update; nil fields are left unchanged.
type DeviceUpdate struct {
	SiteID      *string
	OwnerUserID *string
	Name        *string
	Notes       *string
	Tags        model.Map
	Status      *model.DeviceStatus
	SimICCID    *string
}

// UpdateDevice applies a partial update to a tenant's device.
func (q *queries) UpdateDevice(ctx context.Context, tenantID, id string, upd DeviceUpdate) (*model.Device, error) {
	var d model.Device
	err := q.get(ctx, &d, `
		UPDATE devices SET
			site_id = COALESCE($3, site_id),
			owner_user_id = COALESCE($4, owner_user_id),
			name = COALESCE($5, name),
			notes = COALESCE($6, notes),
			tags = COALESCE($7, tags),
			status = COALESCE($8, status),
			sim_iccid = COALESCE($9, sim_iccid),
			updated_at = $10
		WHERE id = $1 AND tenant_id = $2
		RETURNING *`,
		id, tenantID, upd.SiteID, upd.OwnerUserID, upd.Name, upd.Notes,
		nullableMap(upd.Tags), upd.Status, upd.SimICCID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TouchDeviceSeen advances last-seen and, when a fix is present, the
// device-reported location. Part of the telemetry fan-out transaction.
func (q *queries) TouchDeviceSeen(ctx context.Context, id string, ts time.Time, lat, lon, accuracyM *float64, source *model.LocationSource) error {
	return q.exec(ctx, `
		UPDATE devices SET
			last_seen_at = $2,
			reported_lat = COALESCE($3, reported_lat),
			reported_lon = COALESCE($4, reported_lon),
			reported_geo_accuracy_m = COALESCE($5, reported_geo_accuracy_m),
			reported_geo_source = COALESCE($6, reported_geo_source),
			updated_at = $7
		WHERE id = $1`,
		id, ts, lat, lon, accuracyM, source, time.Now().UTC())
}

// SetDeviceFirmwareVersion records the firmware version a device reported
// after a successful OTA.
func (q *queries) SetDeviceFirmwareVersion(ctx context.Context, id, version string) error {
	return q.exec(ctx, `UPDATE devices SET firmware_version = $2, updated_at = $3 WHERE id = $1`,
		id, version, time.Now().UTC())
}

// UserOwnsDeviceOnSite reports whether the user owns any device bound to the
// site. END_USER site-location edits are gated on it.
func (q *queries) UserOwnsDeviceOnSite(ctx context.Context, userID, siteID string) (bool, error) {
	var owns bool
	err := q.get(ctx, &owns, `
		SELECT EXISTS (SELECT 1 FROM devices WHERE owner_user_id = $1 AND site_id = $2)`,
		userID, siteID)
	return owns, err
}

// ListDevicesInBBox returns a tenant's devices whose effective position
// (site coordinates, falling back to device-reported) lies inside the
// bounding box.
func (q *queries) ListDevicesInBBox(ctx context.Context, tenantID string, minLon, minLat, maxLon, maxLat float64) ([]DeviceMarker, error) {
	var ms []DeviceMarker
	err := q.selekt(ctx, &ms, `
		SELECT d.id AS device_id, d.serial_number, d.status,
			COALESCE(s.lat, d.reported_lat) AS lat,
			COALESCE(s.lon, d.reported_lon) AS lon
		FROM devices d
		LEFT JOIN sites s ON s.id = d.site_id
		WHERE d.tenant_id = $1
			AND COALESCE(s.lat, d.reported_lat) BETWEEN $2 AND $3
			AND COALESCE(s.lon, d.reported_lon) BETWEEN $4 AND $5`,
		tenantID, minLat, maxLat, minLon, maxLon)
	return ms, err
}

// DeviceMarker is one map pin.
type DeviceMarker struct {
	DeviceID     string             `db:"device_id" json:"deviceId"`
	SerialNumber string             `db:"serial_number" json:"serialNumber"`
	Status       model.DeviceStatus `db:"status" json:"status"`
	Lat          float64            `db:"lat" json:"lat"`
	Lon          float64            `db:"lon" json:"lon"`
}

// CreateDeviceSecret stores the MAC digest pinning a device identity.
func (q *queries) CreateDeviceSecret(ctx context.Context, deviceID, macDigest string) (*model.DeviceSecret, error) {
	s := &model.DeviceSecret{ID: uuid.NewString(), DeviceID: deviceID, MACDigest: macDigest}
	err := q.get(ctx, s, `
		INSERT INTO device_secrets (id, device_id, mac_digest)
		VALUES ($1, $2, $3)
		RETURNING *`,
		s.ID, s.DeviceID, s.MACDigest)
	if err != nil {
		return nil, err
	}
	return s, nil
}
