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

// UpsertDailyRollup writes the aggregate keyed on (device, day). Re-running
// a rollup for the same day replaces the row with identical content.
func (q *queries) UpsertDailyRollup(ctx context.Context, r *model.DailyRollup) (*model.DailyRollup, error) {
	now := time.Now().UTC()
	var out model.DailyRollup
	err := q.get(ctx, &out, `
		INSERT INTO daily_rollups (id, device_id, tenant_id, day_date, energy_kwh, water_liters,
			heater_on_minutes, tank_temp_min, tank_temp_max, ambient_temp_avg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (device_id, day_date) DO UPDATE SET
			energy_kwh = EXCLUDED.energy_kwh,
			water_liters = EXCLUDED.water_liters,
			heater_on_minutes = EXCLUDED.heater_on_minutes,
			tank_temp_min = EXCLUDED.tank_temp_min,
			tank_temp_max = EXCLUDED.tank_temp_max,
			ambient_temp_avg = EXCLUDED.ambient_temp_avg,
			updated_at = $11
		RETURNING *`,
		uuid.NewString(), r.DeviceID, r.TenantID, r.DayDate, r.EnergyKwh, r.WaterLiters,
		r.HeaterOnMinutes, r.TankTempMin, r.TankTempMax, r.AmbientTempAvg, now)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDailyRollups returns a tenant's aggregates inside a date range
// (inclusive, YYYY-MM-DD). An empty deviceID selects every device.
func (q *queries) ListDailyRollups(ctx context.Context, tenantID, deviceID, fromDate, toDate string) ([]model.DailyRollup, error) {
	var rs []model.DailyRollup
	err := q.selekt(ctx, &rs, `
		SELECT * FROM daily_rollups
		WHERE tenant_id = $1 AND ($2 = '' OR device_id = $2)
			AND day_date >= $3 AND day_date <= $4
		ORDER BY day_date, device_id`,
		tenantID, deviceID, fromDate, toDate)
	return rs, err
}

// DashboardSummary is the KPI bundle for a tenant.
type DashboardSummary struct {
	DevicesByStatus map[string]int `json:"devicesByStatus"`
	OpenAlerts      map[string]int `json:"openAlertsBySeverity"`
	EnergyKwhToday  float64        `json:"energyKwhToday"`
	WaterLitersToday float64       `json:"waterLitersToday"`
	DevicesOnline   int            `json:"devicesOnline"`
}

type statusCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// GetDashboardSummary aggregates the tenant KPI bundle.
func (q *queries) GetDashboardSummary(ctx context.Context, tenantID string, onlineSince time.Time, today string) (*DashboardSummary, error) {
	sum := &DashboardSummary{
		DevicesByStatus: map[string]int{},
		OpenAlerts:      map[string]int{},
	}

	var rows []statusCount
	if err := q.selekt(ctx, &rows, `
		SELECT status AS key, COUNT(*) AS count FROM devices WHERE tenant_id = $1 GROUP BY status`,
		tenantID); err != nil {
		return nil, err
	}
	for _, r := range rows {
		sum.DevicesByStatus[r.Key] = r.Count
	}

	rows = rows[:0]
	if err := q.selekt(ctx, &rows, `
		SELECT severity AS key, COUNT(*) AS count FROM alert_events
		WHERE tenant_id = $1 AND status IN ('OPEN', 'ACKNOWLEDGED') GROUP BY severity`,
		tenantID); err != nil {
		return nil, err
	}
	for _, r := range rows {
		sum.OpenAlerts[r.Key] = r.Count
	}

	if err := q.get(ctx, &sum.DevicesOnline, `
		SELECT COUNT(*) FROM devices WHERE tenant_id = $1 AND last_seen_at >= $2`,
		tenantID, onlineSince); err != nil {
		return nil, err
	}

	var totals struct {
		Energy float64 `db:"energy"`
		Water  float64 `db:"water"`
	}
	if err := q.get(ctx, &totals, `
		SELECT COALESCE(SUM(energy_kwh), 0) AS energy, COALESCE(SUM(water_liters), 0) AS water
		FROM daily_rollups WHERE tenant_id = $1 AND day_date = $2`,
		tenantID, today); err != nil {
		return nil, err
	}
	sum.EnergyKwhToday = totals.Energy
	sum.WaterLitersToday = totals.Water
	return sum, nil
}
