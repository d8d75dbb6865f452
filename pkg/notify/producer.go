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

// Package notify queues outbound notifications for opened alerts and drains
// them through pluggable channel adapters.
package notify

import (
	"context"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// Producer enqueues notification events for alert fan-out. It runs inside
// the alert evaluator's transaction.
type Producer struct{}

// NewProducer builds the producer.
func NewProducer() *Producer { return &Producer{} }

// FanOut enqueues one QUEUED notification per eligible enabled channel of
// the event's tenant. WEBHOOK channels receive every severity; EMAIL and
// SMS only WARNING and CRITICAL.
func (p *Producer) FanOut(ctx context.Context, tx *store.Tx, event *model.AlertEvent, ruleName string) error {
	channels, err := tx.ListEnabledNotificationChannels(ctx, event.TenantID)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if !eligible(ch.Type, event.Severity) {
			continue
		}
		_, err := tx.EnqueueNotification(ctx, &model.NotificationEvent{
			TenantID:     event.TenantID,
			ChannelID:    ch.ID,
			AlertEventID: &event.ID,
			Payload: model.Map{
				"alertId":  event.ID,
				"deviceId": event.DeviceID,
				"ruleId":   event.RuleID,
				"ruleName": ruleName,
				"severity": string(event.Severity),
				"details":  map[string]any(event.Details),
				"openedAt": event.OpenedAt,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// eligible applies the suppression policy.
func eligible(ch model.ChannelType, sev model.Severity) bool {
	if ch == model.ChannelWebhook {
		return true
	}
	return sev != model.SeverityInfo
}
