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

// CreateSite inserts a site under a tenant.
func (q *queries) CreateSite(ctx context.Context, s *model.Site) (*model.Site, error) {
	s.ID = uuid.NewString()
	var out model.Site
	err := q.get(ctx, &out, `
		INSERT INTO sites (id, tenant_id, name, address_line, city, postal_code, country,
			lat, lon, location_source, location_accuracy_m, location_confidence,
			location_updated_at, location_updated_by, location_lock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING *`,
		s.ID, s.TenantID, s.Name, s.AddressLine, s.City, s.PostalCode, s.Country,
		s.Lat, s.Lon, s.LocationSource, s.LocationAccuracyM, s.LocationConf,
		s.LocationUpdatedAt, s.LocationUpdatedBy, s.LocationLock)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSite returns a site scoped to a tenant.
func (q *queries) GetSite(ctx context.Context, tenantID, id string) (*model.Site, error) {
	var s model.Site
	err := q.get(ctx, &s, `SELECT * FROM sites WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSiteByID returns a site without tenant filtering. Device-authenticated
// paths only; the device carries its own tenant.
func (q *queries) GetSiteByID(ctx context.Context, id string) (*model.Site, error) {
	var s model.Site
	if err := q.get(ctx, &s, `SELECT * FROM sites WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSites returns all sites of a tenant.
func (q *queries) ListSites(ctx context.Context, tenantID string) ([]model.Site, error) {
	var ss []model.Site
	err := q.selekt(ctx, &ss, `SELECT * FROM sites WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	return ss, err
}

// SiteLocationUpdate carries a user-driven location edit.
type SiteLocationUpdate struct {
	Lat         float64
	Lon         float64
	Source      model.LocationSource
	AccuracyM   *float64
	Lock        *bool
	AddressLine *string
	UpdatedBy   string
}

// UpdateSiteLocation applies a user-driven location edit to a tenant's site.
func (q *queries) UpdateSiteLocation(ctx context.Context, tenantID, id string, upd SiteLocationUpdate) (*model.Site, error) {
	now := time.Now().UTC()
	var s model.Site
	err := q.get(ctx, &s, `
		UPDATE sites SET
			lat = $3, lon = $4, location_source = $5,
			location_accuracy_m = COALESCE($6, location_accuracy_m),
			location_lock = COALESCE($7, location_lock),
			address_line = COALESCE($8, address_line),
			location_updated_at = $9, location_updated_by = $10, updated_at = $9
		WHERE id = $1 AND tenant_id = $2
		RETURNING *`,
		id, tenantID, upd.Lat, upd.Lon, upd.Source, upd.AccuracyM, upd.Lock,
		upd.AddressLine, now, upd.UpdatedBy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetSiteLocationFromDevice fills a site's coordinates from a device fix.
// Only the telemetry ingestor calls this, and only for unlocked sites with
// no latitude yet.
func (q *queries) SetSiteLocationFromDevice(ctx context.Context, id string, lat, lon float64, source model.LocationSource, accuracyM *float64) error {
	now := time.Now().UTC()
	return q.exec(ctx, `
		UPDATE sites SET
			lat = $2, lon = $3, location_source = $4, location_accuracy_m = $5,
			location_updated_at = $6, updated_at = $6
		WHERE id = $1`,
		id, lat, lon, source, accuracyM, now)
}
