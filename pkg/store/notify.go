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

// CreateNotificationChannel inserts a tenant delivery target.
func (q *queries) CreateNotificationChannel(ctx context.Context, c *model.NotificationChannel) (*model.NotificationChannel, error) {
	c.ID = uuid.NewString()
	var out model.NotificationChannel
	err := q.get(ctx, &out, `
		INSERT INTO notification_channels (id, tenant_id, type, config, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		c.ID, c.TenantID, c.Type, c.Config, c.Enabled)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEnabledNotificationChannels returns a tenant's enabled channels.
func (q *queries) ListEnabledNotificationChannels(ctx context.Context, tenantID string) ([]model.NotificationChannel, error) {
	var cs []model.NotificationChannel
	err := q.selekt(ctx, &cs, `
		SELECT * FROM notification_channels WHERE tenant_id = $1 AND enabled ORDER BY created_at`,
		tenantID)
	return cs, err
}

// GetNotificationChannel returns a channel by id without tenant filtering;
// the dispatcher resolves channels for rows it already owns.
func (q *queries) GetNotificationChannel(ctx context.Context, id string) (*model.NotificationChannel, error) {
	var c model.NotificationChannel
	if err := q.get(ctx, &c, `SELECT * FROM notification_channels WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// EnqueueNotification inserts a QUEUED outbound message.
func (q *queries) EnqueueNotification(ctx context.Context, e *model.NotificationEvent) (*model.NotificationEvent, error) {
	e.ID = uuid.NewString()
	var out model.NotificationEvent
	err := q.get(ctx, &out, `
		INSERT INTO notification_events (id, tenant_id, channel_id, alert_event_id, status, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		e.ID, e.TenantID, e.ChannelID, e.AlertEventID, model.NotificationQueued, e.Payload)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListQueuedNotifications returns up to limit QUEUED messages oldest-first.
func (q *queries) ListQueuedNotifications(ctx context.Context, limit int) ([]model.NotificationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var es []model.NotificationEvent
	err := q.selekt(ctx, &es, `
		SELECT * FROM notification_events WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		model.NotificationQueued, limit)
	return es, err
}

// MarkNotificationSent records successful delivery.
func (q *queries) MarkNotificationSent(ctx context.Context, id string) error {
	return q.exec(ctx, `
		UPDATE notification_events SET status = $2, sent_at = $3 WHERE id = $1`,
		id, model.NotificationSent, time.Now().UTC())
}

// MarkNotificationFailed records a delivery failure. Retry policy is
// external; the row stays FAILED.
func (q *queries) MarkNotificationFailed(ctx context.Context, id, errorMsg string) error {
	return q.exec(ctx, `
		UPDATE notification_events SET status = $2, error_msg = $3 WHERE id = $1`,
		id, model.NotificationFailed, errorMsg)
}
