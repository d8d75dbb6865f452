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

// CreateAlertRule inserts a tenant-scoped rule.
func (q *queries) CreateAlertRule(ctx context.Context, r *model.AlertRule) (*model.AlertRule, error) {
	r.ID = uuid.NewString()
	var out model.AlertRule
	err := q.get(ctx, &out, `
		INSERT INTO alert_rules (id, tenant_id, name, enabled, type, params, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`,
		r.ID, r.TenantID, r.Name, r.Enabled, r.Type, r.Params, r.Severity)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAlertRules returns a tenant's rules.
func (q *queries) ListAlertRules(ctx context.Context, tenantID string) ([]model.AlertRule, error) {
	var rs []model.AlertRule
	err := q.selekt(ctx, &rs, `SELECT * FROM alert_rules WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	return rs, err
}

// ListEnabledAlertRules returns every enabled rule across all tenants. The
// evaluator sweeps the whole fleet with it.
func (q *queries) ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	var rs []model.AlertRule
	err := q.selekt(ctx, &rs, `SELECT * FROM alert_rules WHERE enabled ORDER BY tenant_id, created_at`)
	return rs, err
}

// HasLiveAlertEvent reports whether any event with the dedupe key is still
// OPEN or ACKNOWLEDGED. CLOSED rows do not count.
func (q *queries) HasLiveAlertEvent(ctx context.Context, dedupeKey string) (bool, error) {
	var live bool
	err := q.get(ctx, &live, `
		SELECT EXISTS (
			SELECT 1 FROM alert_events WHERE dedupe_key = $1 AND status IN ('OPEN', 'ACKNOWLEDGED')
		)`, dedupeKey)
	return live, err
}

// InsertAlertEvent opens a new event. A concurrent duplicate for the same
// dedupe key violates the partial unique index and surfaces as ErrConflict,
// which callers treat as a benign no-op.
func (q *queries) InsertAlertEvent(ctx context.Context, e *model.AlertEvent) (*model.AlertEvent, error) {
	e.ID = uuid.NewString()
	if e.OpenedAt.IsZero() {
		e.OpenedAt = time.Now().UTC()
	}
	var out model.AlertEvent
	err := q.get(ctx, &out, `
		INSERT INTO alert_events (id, tenant_id, device_id, rule_id, severity, status, dedupe_key, details, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *`,
		e.ID, e.TenantID, e.DeviceID, e.RuleID, e.Severity, model.AlertOpen, e.DedupeKey, e.Details, e.OpenedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AlertEventFilter narrows event listings.
type AlertEventFilter struct {
	Status   *model.AlertStatus
	Severity *model.Severity
	DeviceID *string
	Limit    int
	Offset   int
}

// ListAlertEvents returns a tenant's events with the filter applied, newest
// first, plus the unpaged total.
func (q *queries) ListAlertEvents(ctx context.Context, tenantID string, f AlertEventFilter) ([]model.AlertEvent, int, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Severity != nil {
		args = append(args, *f.Severity)
		where = append(where, fmt.Sprintf("severity = $%d", len(args)))
	}
	if f.DeviceID != nil {
		args = append(args, *f.DeviceID)
		where = append(where, fmt.Sprintf("device_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := q.get(ctx, &total, `SELECT COUNT(*) FROM alert_events WHERE `+cond, args...); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT * FROM alert_events WHERE %s ORDER BY opened_at DESC LIMIT $%d OFFSET $%d`,
		cond, len(args)-1, len(args))

	var es []model.AlertEvent
	if err := q.selekt(ctx, &es, query, args...); err != nil {
		return nil, 0, err
	}
	return es, total, nil
}

// AcknowledgeAlertEvent moves an OPEN event to ACKNOWLEDGED.
func (q *queries) AcknowledgeAlertEvent(ctx context.Context, tenantID, id string) (*model.AlertEvent, error) {
	var e model.AlertEvent
	err := q.get(ctx, &e, `
		UPDATE alert_events SET status = $3, acknowledged_at = $4
		WHERE id = $1 AND tenant_id = $2 AND status = $5
		RETURNING *`,
		id, tenantID, model.AlertAcknowledged, time.Now().UTC(), model.AlertOpen)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CloseAlertEvent moves an OPEN or ACKNOWLEDGED event to CLOSED, releasing
// its dedupe key for future opens.
func (q *queries) CloseAlertEvent(ctx context.Context, tenantID, id string) (*model.AlertEvent, error) {
	var e model.AlertEvent
	err := q.get(ctx, &e, `
		UPDATE alert_events SET status = $3, closed_at = $4
		WHERE id = $1 AND tenant_id = $2 AND status IN ('OPEN', 'ACKNOWLEDGED')
		RETURNING *`,
		id, tenantID, model.AlertClosed, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &e, nil
}
