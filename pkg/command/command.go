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

// Package command implements the per-device command queue: create, poll-and-
// deliver, acknowledge. A device observes its commands in non-decreasing
// requested-at order and never sees a delivered command as pending again.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/entitlement"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

var commandsDelivered = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "fleet_commands_delivered_total",
	Help: "Number of commands flipped to DELIVERED by device polls.",
})

// Queue is the command lifecycle service.
type Queue struct {
	logger log.Logger
	store  *store.Store
	ent    *entitlement.Resolver
	audit  *audit.Sink
}

// New wires the queue.
func New(logger log.Logger, reg prometheus.Registerer, st *store.Store, ent *entitlement.Resolver, sink *audit.Sink) *Queue {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(commandsDelivered)
	}
	return &Queue{logger: logger, store: st, ent: ent, audit: sink}
}

// Create enqueues a command for a device in the caller's active tenant. The
// operation is gated on the BASIC_REMOTE_BOOST entitlement; a device outside
// the tenant is indistinguishable from a missing one.
func (q *Queue) Create(ctx context.Context, tenantID, deviceID string, typ model.CommandType, payload model.Map, requestedBy string) (*model.Command, error) {
	switch typ {
	case model.CommandRemoteBoostSet, model.CommandSetSchedule, model.CommandSetConfig:
	default:
		return nil, apierror.Validation("unknown command type %q", typ)
	}

	device, err := q.store.GetDevice(ctx, tenantID, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("device")
		}
		return nil, err
	}

	if err := q.ent.Gate(ctx, tenantID, model.FeatureBasicRemoteBoost, &device.ID); err != nil {
		return nil, err
	}

	cmd, err := q.store.CreateCommand(ctx, tenantID, device.ID, typ, payload, requestedBy)
	if err != nil {
		return nil, err
	}

	q.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &requestedBy,
		ActorType:   model.ActorUser,
		Action:      model.AuditCommandCreated,
		EntityType:  "command",
		EntityID:    cmd.ID,
		Metadata:    model.Map{"deviceId": device.ID, "type": string(typ)},
	})
	return cmd, nil
}

// PollPending atomically hands the device its QUEUED commands in
// requested-at order, flipping them to DELIVERED before they are returned.
// Duplicate polls never resurface a row.
func (q *Queue) PollPending(ctx context.Context, deviceID string) ([]model.Command, error) {
	var out []model.Command
	err := q.store.WithTx(ctx, func(tx *store.Tx) error {
		pending, err := tx.SelectQueuedForDelivery(ctx, deviceID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			out = nil
			return nil
		}
		now := time.Now().UTC()
		ids := make([]string, len(pending))
		for i := range pending {
			ids[i] = pending[i].ID
			pending[i].Status = model.CommandDelivered
			at := now
			pending[i].DeliveredAt = &at
		}
		if err := tx.MarkCommandsDelivered(ctx, ids, now); err != nil {
			return err
		}
		out = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	commandsDelivered.Add(float64(len(out)))
	return out, nil
}

// Ack records the device's terminal report for a command.
func (q *Queue) Ack(ctx context.Context, deviceID, commandID string, status model.CommandStatus, errorMsg *string) (*model.Command, error) {
	if status != model.CommandAcked && status != model.CommandFailed {
		return nil, apierror.Validation("ack status must be ACKED or FAILED")
	}
	cmd, err := q.store.AckCommand(ctx, deviceID, commandID, status, errorMsg)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("command")
		}
		return nil, err
	}

	action := model.AuditCommandAcked
	if status == model.CommandFailed {
		action = model.AuditCommandFailed
	}
	q.audit.Record(ctx, audit.Entry{
		TenantID:   &cmd.TenantID,
		ActorType:  model.ActorDevice,
		Action:     action,
		EntityType: "command",
		EntityID:   cmd.ID,
		Metadata:   model.Map{"deviceId": deviceID, "status": string(status)},
	})
	return cmd, nil
}
