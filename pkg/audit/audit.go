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

// Package audit appends significant state transitions to the append-only
// log. Writes are best-effort: a failing audit write never fails the
// surrounding domain operation.
package audit

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// Appender writes one audit row. Both the store and an open transaction
// satisfy it.
type Appender interface {
	AppendAuditLog(ctx context.Context, a *model.AuditLog) error
}

// Sink is the process-wide audit writer.
type Sink struct {
	ap     Appender
	logger log.Logger
}

// NewSink wires the sink over the default appender.
func NewSink(logger log.Logger, ap Appender) *Sink {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Sink{ap: ap, logger: logger}
}

// Entry describes one audited transition.
type Entry struct {
	TenantID    *string
	ActorUserID *string
	ActorType   model.ActorType
	Action      string
	EntityType  string
	EntityID    string
	Metadata    model.Map
}

// Record appends the entry, logging and swallowing any failure. Deliberately
// lossy under store outages.
func (s *Sink) Record(ctx context.Context, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			level.Error(s.logger).Log("msg", "audit write panicked", "action", e.Action, "panic", r)
		}
	}()
	err := s.ap.AppendAuditLog(ctx, &model.AuditLog{
		TenantID:    e.TenantID,
		ActorUserID: e.ActorUserID,
		ActorType:   e.ActorType,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Metadata:    e.Metadata,
	})
	if err != nil {
		level.Warn(s.logger).Log("msg", "audit write failed", "action", e.Action, "entity", e.EntityType, "err", err)
	}
}
