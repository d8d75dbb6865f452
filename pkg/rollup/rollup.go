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

// Package rollup computes the per-device daily aggregates from raw
// telemetry. Re-running a day replaces the rows with identical content.
package rollup

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// firstIntervalMinutes is assumed for the first reading of a day, which has
// no predecessor inside the window.
const firstIntervalMinutes = 5.0

var rollupRows = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "fleet_rollup_rows_total",
	Help: "Number of daily rollup rows written.",
})

// Roller computes daily aggregates.
type Roller struct {
	logger log.Logger
	store  *store.Store
}

// New wires the roller.
func New(logger log.Logger, reg prometheus.Registerer, st *store.Store) *Roller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(rollupRows)
	}
	return &Roller{logger: logger, store: st}
}

// RollDay aggregates the window [dayStart, dayStart+24h) for every ACTIVE or
// INSTALLED device with telemetry inside it, across all tenants.
func (r *Roller) RollDay(ctx context.Context, dayStart time.Time) error {
	dayStart = dayStart.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	dayDate := dayStart.Format("2006-01-02")

	tenants, err := r.store.ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	for _, tenant := range tenants {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		withData, err := r.store.ListDeviceIDsWithTelemetry(ctx, tenant.ID, dayStart, dayEnd)
		if err != nil {
			level.Warn(r.logger).Log("msg", "listing devices with telemetry failed", "tenant", tenant.ID, "err", err)
			continue
		}
		if len(withData) == 0 {
			continue
		}
		hasData := make(map[string]bool, len(withData))
		for _, id := range withData {
			hasData[id] = true
		}
		devices, err := r.store.ListDevicesByStatuses(ctx, tenant.ID,
			[]model.DeviceStatus{model.DeviceActive, model.DeviceInstalled})
		if err != nil {
			level.Warn(r.logger).Log("msg", "listing tenant devices failed", "tenant", tenant.ID, "err", err)
			continue
		}
		for i := range devices {
			d := &devices[i]
			if !hasData[d.ID] {
				continue
			}
			readings, err := r.store.ListTelemetryRange(ctx, d.ID, dayStart, dayEnd)
			if err != nil {
				level.Warn(r.logger).Log("msg", "reading telemetry failed", "device", d.ID, "err", err)
				continue
			}
			row := Aggregate(readings)
			row.DeviceID = d.ID
			row.TenantID = d.TenantID
			row.DayDate = dayDate
			if _, err := r.store.UpsertDailyRollup(ctx, row); err != nil {
				level.Warn(r.logger).Log("msg", "rollup upsert failed", "device", d.ID, "err", err)
				continue
			}
			rollupRows.Inc()
		}
	}
	return nil
}

// Aggregate folds one day of readings, oldest first, into a rollup row.
// The interval attributed to a reading is the gap since its predecessor;
// the first reading is assumed to cover five minutes.
func Aggregate(readings []model.Telemetry) *model.DailyRollup {
	var (
		energyKwh, waterLiters, heaterMinutes float64
		tankMin, tankMax                      *float64
		ambientSum                            float64
		ambientN                              int
	)
	for i, t := range readings {
		interval := firstIntervalMinutes
		if i > 0 {
			interval = t.TS.Sub(readings[i-1].TS).Minutes()
		}
		if v, ok := t.Metrics.Number("powerW"); ok {
			energyKwh += (v / 1000) * (interval / 60)
		}
		if v, ok := t.Metrics.Number("flowLpm"); ok {
			waterLiters += v * interval
		}
		if on, ok := t.Metrics.Bool("heaterOn"); ok && on {
			heaterMinutes += interval
		}
		if v, ok := t.Metrics.Number("tankTempC"); ok {
			if tankMin == nil || v < *tankMin {
				vv := v
				tankMin = &vv
			}
			if tankMax == nil || v > *tankMax {
				vv := v
				tankMax = &vv
			}
		}
		if v, ok := t.Metrics.Number("ambientTempC"); ok {
			ambientSum += v
			ambientN++
		}
	}

	row := &model.DailyRollup{
		EnergyKwh:       round2(energyKwh),
		WaterLiters:     round2(waterLiters),
		HeaterOnMinutes: int(math.Round(heaterMinutes)),
	}
	if tankMin != nil {
		v := round2(*tankMin)
		row.TankTempMin = &v
	}
	if tankMax != nil {
		v := round2(*tankMax)
		row.TankTempMax = &v
	}
	if ambientN > 0 {
		avg := round1(ambientSum / float64(ambientN))
		row.AmbientTempAvg = &avg
	}
	return row
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
