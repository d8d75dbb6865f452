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
	"github.com/lib/pq"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// CreateCommand enqueues an instruction for a device in QUEUED state.
func (q *queries) CreateCommand(ctx context.Context, tenantID, deviceID string, typ model.CommandType, payload model.Map, requestedBy string) (*model.Command, error) {
	c := &model.Command{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		DeviceID:          deviceID,
		Type:              typ,
		Payload:           payload,
		Status:            model.CommandQueued,
		RequestedByUserID: requestedBy,
		RequestedAt:       time.Now().UTC(),
	}
	var out model.Command
	err := q.get(ctx, &out, `
		INSERT INTO commands (id, tenant_id, device_id, type, payload, status, requested_by_user_id, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		c.ID, c.TenantID, c.DeviceID, c.Type, c.Payload, c.Status, c.RequestedByUserID, c.RequestedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCommand returns a command for one device.
func (q *queries) GetCommand(ctx context.Context, deviceID, id string) (*model.Command, error) {
	var c model.Command
	err := q.get(ctx, &c, `SELECT * FROM commands WHERE id = $1 AND device_id = $2`, id, deviceID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommands returns a tenant device's commands, newest first.
func (q *queries) ListCommands(ctx context.Context, tenantID, deviceID string, limit int) ([]model.Command, error) {
	if limit <= 0 {
		limit = 50
	}
	var cs []model.Command
	err := q.selekt(ctx, &cs, `
		SELECT * FROM commands WHERE tenant_id = $1 AND device_id = $2
		ORDER BY requested_at DESC LIMIT $3`,
		tenantID, deviceID, limit)
	return cs, err
}

// SelectQueuedForDelivery locks a device's QUEUED commands in requested-at
// order. Must run inside the poll transaction so concurrent polls cannot
// deliver a command twice.
func (q *queries) SelectQueuedForDelivery(ctx context.Context, deviceID string) ([]model.Command, error) {
	var cs []model.Command
	err := q.selekt(ctx, &cs, `
		SELECT * FROM commands
		WHERE device_id = $1 AND status = $2
		ORDER BY requested_at ASC
		FOR UPDATE`,
		deviceID, model.CommandQueued)
	return cs, err
}

// MarkCommandsDelivered flips the given commands to DELIVERED at the given
// instant.
func (q *queries) MarkCommandsDelivered(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return q.exec(ctx, `
		UPDATE commands SET status = $1, delivered_at = $2 WHERE id = ANY($3)`,
		model.CommandDelivered, at, pq.Array(ids))
}

// AckCommand records the device's terminal report for a delivered command.
func (q *queries) AckCommand(ctx context.Context, deviceID, id string, status model.CommandStatus, errorMsg *string) (*model.Command, error) {
	var c model.Command
	err := q.get(ctx, &c, `
		UPDATE commands SET status = $3, ack_at = $4, error_msg = $5
		WHERE id = $1 AND device_id = $2
		RETURNING *`,
		id, deviceID, status, time.Now().UTC(), errorMsg)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
