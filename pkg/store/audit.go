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

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// AppendAuditLog inserts one append-only record. Audit rows are never
// updated or deleted.
func (q *queries) AppendAuditLog(ctx context.Context, a *model.AuditLog) error {
	return q.exec(ctx, `
		INSERT INTO audit_logs (id, tenant_id, actor_user_id, actor_type, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), a.TenantID, a.ActorUserID, a.ActorType, a.Action, a.EntityType, a.EntityID, a.Metadata)
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	Action     string
	EntityType string
	EntityID   string
	Limit      int
}

// ListAuditLogs returns a tenant's audit records, newest first.
func (q *queries) ListAuditLogs(ctx context.Context, tenantID string, f AuditFilter) ([]model.AuditLog, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Action != "" {
		args = append(args, f.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if f.EntityID != "" {
		args = append(args, f.EntityID)
		where = append(where, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM audit_logs WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	var as []model.AuditLog
	err := q.selekt(ctx, &as, query, args...)
	return as, err
}
