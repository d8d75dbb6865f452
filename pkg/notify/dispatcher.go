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

package notify

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// drainBatchSize caps the rows one drain pass takes.
const drainBatchSize = 100

var (
	notificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_notifications_sent_total",
		Help: "Number of notifications delivered by the dispatcher.",
	})
	notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_notifications_failed_total",
		Help: "Number of notifications that failed delivery.",
	})
)

// Dispatcher drains QUEUED notification events through the channel
// adapters. Delivery is fire-and-forget; retry policy is external.
type Dispatcher struct {
	logger   log.Logger
	store    *store.Store
	adapters map[model.ChannelType]Adapter
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(logger log.Logger, reg prometheus.Registerer, st *store.Store, adapters map[model.ChannelType]Adapter) *Dispatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(notificationsSent, notificationsFailed)
	}
	return &Dispatcher{logger: logger, store: st, adapters: adapters}
}

// Drain takes up to 100 QUEUED events oldest-first and attempts delivery,
// moving each to SENT or FAILED. One bad row never stops the pass.
func (d *Dispatcher) Drain(ctx context.Context) error {
	events, err := d.store.ListQueuedNotifications(ctx, drainBatchSize)
	if err != nil {
		return fmt.Errorf("list queued notifications: %w", err)
	}
	for _, e := range events {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.deliver(ctx, &e); err != nil {
			notificationsFailed.Inc()
			level.Warn(d.logger).Log("msg", "notification delivery failed", "event", e.ID, "err", err)
			if markErr := d.store.MarkNotificationFailed(ctx, e.ID, err.Error()); markErr != nil {
				level.Error(d.logger).Log("msg", "failed to mark notification FAILED", "event", e.ID, "err", markErr)
			}
			continue
		}
		notificationsSent.Inc()
		if err := d.store.MarkNotificationSent(ctx, e.ID); err != nil {
			level.Error(d.logger).Log("msg", "failed to mark notification SENT", "event", e.ID, "err", err)
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, e *model.NotificationEvent) error {
	channel, err := d.store.GetNotificationChannel(ctx, e.ChannelID)
	if err != nil {
		return fmt.Errorf("load channel: %w", err)
	}
	adapter, ok := d.adapters[channel.Type]
	if !ok {
		return fmt.Errorf("no adapter for channel type %s", channel.Type)
	}
	return adapter.Send(ctx, channel, e.Payload)
}
