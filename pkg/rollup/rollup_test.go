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

package rollup

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

func reading(ts time.Time, metrics model.Map) model.Telemetry {
	return model.Telemetry{TS: ts, Metrics: metrics}
}

func TestAggregateEmpty(t *testing.T) {
	row := Aggregate(nil)
	if row.EnergyKwh != 0 || row.WaterLiters != 0 || row.HeaterOnMinutes != 0 {
		t.Errorf("empty day produced non-zero totals: %+v", row)
	}
	if row.TankTempMin != nil || row.TankTempMax != nil || row.AmbientTempAvg != nil {
		t.Errorf("empty day produced temperature stats: %+v", row)
	}
}

func TestAggregateSingleReadingUsesFirstInterval(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	row := Aggregate([]model.Telemetry{
		reading(day.Add(8*time.Hour), model.Map{"powerW": 1800.0, "flowLpm": 2.0, "heaterOn": true}),
	})

	// A lone reading covers the assumed five-minute interval:
	// 1.8 kW * (5/60) h = 0.15 kWh, 2 L/min * 5 min = 10 L.
	if row.EnergyKwh != 0.15 {
		t.Errorf("EnergyKwh = %v, want 0.15", row.EnergyKwh)
	}
	if row.WaterLiters != 10 {
		t.Errorf("WaterLiters = %v, want 10", row.WaterLiters)
	}
	if row.HeaterOnMinutes != 5 {
		t.Errorf("HeaterOnMinutes = %v, want 5", row.HeaterOnMinutes)
	}
}

func TestAggregate(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	readings := []model.Telemetry{
		reading(day.Add(10*time.Hour), model.Map{
			"powerW": 1800.0, "flowLpm": 1.0, "heaterOn": true,
			"tankTempC": 55.0, "ambientTempC": 18.0,
		}),
		reading(day.Add(10*time.Hour+10*time.Minute), model.Map{
			"powerW": 1200.0, "flowLpm": 0.5, "heaterOn": true,
			"tankTempC": 61.0, "ambientTempC": 19.0,
		}),
		reading(day.Add(10*time.Hour+25*time.Minute), model.Map{
			"powerW": 0.0, "heaterOn": false,
			"tankTempC": 60.0, "ambientTempC": 21.0,
		}),
	}

	row := Aggregate(readings)

	// Intervals: 5 min (assumed), 10 min, 15 min.
	// Energy: 1.8*(5/60) + 1.2*(10/60) + 0 = 0.15 + 0.2 = 0.35 kWh.
	// Water: 1.0*5 + 0.5*10 = 10 L.
	// Heater: 5 + 10 = 15 min.
	tankMin, tankMax, ambientAvg := 55.0, 61.0, 19.3
	want := &model.DailyRollup{
		EnergyKwh:       0.35,
		WaterLiters:     10,
		HeaterOnMinutes: 15,
		TankTempMin:     &tankMin,
		TankTempMax:     &tankMax,
		AmbientTempAvg:  &ambientAvg,
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

// Re-running over the same inputs must reproduce the identical row, since
// the daily job overwrites by (device, day).
func TestAggregateDeterministic(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	readings := []model.Telemetry{
		reading(day.Add(1*time.Hour), model.Map{"powerW": 333.0, "flowLpm": 0.33, "heaterOn": true, "tankTempC": 47.7}),
		reading(day.Add(2*time.Hour), model.Map{"powerW": 667.0, "flowLpm": 0.67, "heaterOn": false, "tankTempC": 52.3}),
	}
	first := Aggregate(readings)
	second := Aggregate(readings)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated aggregation differs (-first +second):\n%s", diff)
	}
}

func TestAggregateRounding(t *testing.T) {
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	row := Aggregate([]model.Telemetry{
		reading(day.Add(1*time.Hour), model.Map{"powerW": 1234.0, "ambientTempC": 18.34, "tankTempC": 58.123}),
		reading(day.Add(1*time.Hour+7*time.Minute), model.Map{"powerW": 987.0, "ambientTempC": 18.41, "tankTempC": 61.987}),
	})

	// 1.234*(5/60) + 0.987*(7/60) = 0.10283 + 0.11515 -> 0.22 after rounding.
	if row.EnergyKwh != 0.22 {
		t.Errorf("EnergyKwh = %v, want 0.22", row.EnergyKwh)
	}
	// (18.34+18.41)/2 = 18.375 -> 18.4 at one decimal.
	if row.AmbientTempAvg == nil || *row.AmbientTempAvg != 18.4 {
		t.Errorf("AmbientTempAvg = %v, want 18.4", row.AmbientTempAvg)
	}
	// Tank extremes round to two decimals like the other outputs.
	if row.TankTempMin == nil || *row.TankTempMin != 58.12 {
		t.Errorf("TankTempMin = %v, want 58.12", row.TankTempMin)
	}
	if row.TankTempMax == nil || *row.TankTempMax != 61.99 {
		t.Errorf("TankTempMax = %v, want 61.99", row.TankTempMax)
	}
}
