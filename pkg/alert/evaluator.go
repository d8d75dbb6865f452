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

// Package alert evaluates the fleet's alert rules and opens deduplicated
// alert events. The sweep is idempotent: with no state change between runs,
// a second run opens nothing new.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/notify"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

var (
	alertsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_alerts_opened_total",
		Help: "Number of alert events opened by the evaluator.",
	})
	evalErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_alert_eval_errors_total",
		Help: "Number of per-device rule evaluations that failed and were skipped.",
	})
	sweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_alert_sweeps_total",
		Help: "Number of completed alert evaluation sweeps.",
	})
)

// Evaluator runs the periodic rule sweep over the fleet.
type Evaluator struct {
	logger   log.Logger
	store    *store.Store
	producer *notify.Producer
	defaults Defaults
}

// NewEvaluator wires the evaluator.
func NewEvaluator(logger log.Logger, reg prometheus.Registerer, st *store.Store, producer *notify.Producer, defaults Defaults) *Evaluator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(alertsOpened, evalErrors, sweeps)
	}
	return &Evaluator{logger: logger, store: st, producer: producer, defaults: defaults}
}

// DedupeKey is the per-(device, rule) uniqueness handle.
func DedupeKey(deviceID, ruleID string) string {
	return deviceID + ":" + ruleID
}

// Sweep evaluates every enabled rule against its tenant's ACTIVE and
// INSTALLED devices. Each (rule, device) evaluation is independent; any
// failure is logged and skipped.
func (e *Evaluator) Sweep(ctx context.Context) error {
	rules, err := e.store.ListEnabledAlertRules(ctx)
	if err != nil {
		return fmt.Errorf("list enabled rules: %w", err)
	}
	now := time.Now().UTC()

	// Device listings are shared between the rules of one tenant.
	devicesByTenant := map[string][]model.Device{}
	opened := 0

	for i := range rules {
		rule := &rules[i]
		devices, ok := devicesByTenant[rule.TenantID]
		if !ok {
			devices, err = e.store.ListDevicesByStatuses(ctx, rule.TenantID,
				[]model.DeviceStatus{model.DeviceActive, model.DeviceInstalled})
			if err != nil {
				level.Warn(e.logger).Log("msg", "listing tenant devices failed", "tenant", rule.TenantID, "err", err)
				evalErrors.Inc()
				continue
			}
			devicesByTenant[rule.TenantID] = devices
		}
		pred := predicateFor(rule, e.defaults)

		for j := range devices {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			didOpen, err := e.evalOne(ctx, rule, &devices[j], pred, now)
			if err != nil {
				evalErrors.Inc()
				level.Warn(e.logger).Log("msg", "rule evaluation failed", "rule", rule.ID, "device", devices[j].ID, "err", err)
				continue
			}
			if didOpen {
				opened++
			}
		}
	}
	sweeps.Inc()
	alertsOpened.Add(float64(opened))
	level.Debug(e.logger).Log("msg", "alert sweep complete", "rules", len(rules), "opened", opened)
	return nil
}

// evalOne evaluates one (rule, device) pair, opening an event and fanning
// out notifications when the predicate fires.
func (e *Evaluator) evalOne(ctx context.Context, rule *model.AlertRule, device *model.Device, pred predicate, now time.Time) (bool, error) {
	key := DedupeKey(device.ID, rule.ID)
	live, err := e.store.HasLiveAlertEvent(ctx, key)
	if err != nil {
		return false, fmt.Errorf("dedupe lookup: %w", err)
	}
	if live {
		return false, nil
	}

	target := &evalTarget{
		now:    now,
		device: device,
		recent: func(ctx context.Context, since *time.Time, limit int) ([]model.Telemetry, error) {
			return e.store.ListRecentTelemetry(ctx, device.ID, since, limit)
		},
	}
	if twin, err := e.store.GetDeviceTwin(ctx, device.ID); err == nil {
		target.twin = twin
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("load twin: %w", err)
	}

	fire, details, err := pred.shouldFire(ctx, target)
	if err != nil || !fire {
		return false, err
	}

	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		event, err := tx.InsertAlertEvent(ctx, &model.AlertEvent{
			TenantID:  rule.TenantID,
			DeviceID:  device.ID,
			RuleID:    rule.ID,
			Severity:  rule.Severity,
			DedupeKey: &key,
			Details:   details,
			OpenedAt:  now,
		})
		if err != nil {
			return err
		}
		return e.producer.FanOut(ctx, tx, event, rule.Name)
	})
	if err != nil {
		// A concurrent sweep opened the same key first; the unique index
		// makes this a benign no-op.
		if store.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
