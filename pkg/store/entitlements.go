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

// UpsertEntitlement writes a feature flag row, replacing any prior row for
// the same (tenant, key, device) triple.
func (q *queries) UpsertEntitlement(ctx context.Context, e *model.Entitlement) (*model.Entitlement, error) {
	now := time.Now().UTC()
	var out model.Entitlement
	err := q.get(ctx, &out, `
		INSERT INTO entitlements (id, tenant_id, scope, device_id, key, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, key, COALESCE(device_id, '00000000-0000-0000-0000-000000000000'::uuid))
			DO UPDATE SET scope = EXCLUDED.scope, enabled = EXCLUDED.enabled, updated_at = $7
		RETURNING *`,
		uuid.NewString(), e.TenantID, e.Scope, e.DeviceID, e.Key, e.Enabled, now)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEntitlement returns the row for (tenant, key, device). A nil deviceID
// addresses the tenant-scoped row.
func (q *queries) GetEntitlement(ctx context.Context, tenantID string, key model.FeatureKey, deviceID *string) (*model.Entitlement, error) {
	var e model.Entitlement
	var err error
	if deviceID == nil {
		err = q.get(ctx, &e, `
			SELECT * FROM entitlements WHERE tenant_id = $1 AND key = $2 AND device_id IS NULL`,
			tenantID, key)
	} else {
		err = q.get(ctx, &e, `
			SELECT * FROM entitlements WHERE tenant_id = $1 AND key = $2 AND device_id = $3`,
			tenantID, key, *deviceID)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntitlements returns a tenant's flag rows.
func (q *queries) ListEntitlements(ctx context.Context, tenantID string) ([]model.Entitlement, error) {
	var es []model.Entitlement
	err := q.selekt(ctx, &es, `SELECT * FROM entitlements WHERE tenant_id = $1 ORDER BY key, created_at`, tenantID)
	return es, err
}
