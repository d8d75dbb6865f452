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

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// CreateTenant inserts a new tenant.
func (q *queries) CreateTenant(ctx context.Context, name string, typ model.TenantType) (*model.Tenant, error) {
	t := &model.Tenant{
		ID:     uuid.NewString(),
		Name:   name,
		Type:   typ,
		Status: model.TenantActive,
	}
	err := q.get(ctx, t, `
		INSERT INTO tenants (id, name, type, status)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		t.ID, t.Name, t.Type, t.Status)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTenant returns a tenant by id.
func (q *queries) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	if err := q.get(ctx, &t, `SELECT * FROM tenants WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTenants returns all tenants. Platform-admin only path.
func (q *queries) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var ts []model.Tenant
	err := q.selekt(ctx, &ts, `SELECT * FROM tenants ORDER BY created_at`)
	return ts, err
}

// ListTenantsByIDs returns the tenants a non-platform user is a member of.
func (q *queries) ListTenantsByIDs(ctx context.Context, ids []string) ([]model.Tenant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ts []model.Tenant
	err := q.selekt(ctx, &ts, `SELECT * FROM tenants WHERE id = ANY($1) ORDER BY created_at`, pq.Array(ids))
	return ts, err
}
