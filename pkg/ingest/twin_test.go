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

package ingest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

func TestDeriveState(t *testing.T) {
	prior := model.Map{
		"lastTankTempC": 40.0,
		"last_flowLpm":  2.5,
		"healthScore":   80.0,
	}
	metrics := model.Map{
		"tankTempC": 58.2,
		"rssiDbm":   -88.0,
		"heaterOn":  true,
	}
	got := deriveState(prior, metrics, &Geo{Lat: 37.9, Lon: 23.7, Source: model.LocationEdgeGNSS})

	want := model.Map{
		// Untouched metric survives from the prior state.
		"last_flowLpm": 2.5,
		// Every reported metric gets a last_ mirror.
		"last_tankTempC": 58.2,
		"last_rssiDbm":   -88.0,
		"last_heaterOn":  true,
		// Distinguished fields overwrite their prior values.
		"lastTankTempC": 58.2,
		"lastRssi":      -88.0,
		"heaterOn":      true,
		"isOnline":      true,
		"healthScore":   100.0,
		"lastGeoLat":    37.9,
		"lastGeoLon":    23.7,
		"lastGeoSource": "EDGE_GNSS",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("deriveState mismatch (-want +got):\n%s", diff)
	}

	// The prior map is not mutated.
	if _, ok := prior["isOnline"]; ok {
		t.Error("deriveState mutated the prior state")
	}
}

func TestDeriveStateNilPrior(t *testing.T) {
	got := deriveState(nil, model.Map{"tankTempC": 20.0}, nil)
	if got["lastTankTempC"] != 20.0 {
		t.Errorf("lastTankTempC = %v, want 20", got["lastTankTempC"])
	}
	if _, ok := got["lastGeoLat"]; ok {
		t.Error("geo fields set without a geo fix")
	}
}

func TestHealthScore(t *testing.T) {
	for _, tc := range []struct {
		name    string
		metrics model.Map
		want    float64
	}{
		{"all healthy", model.Map{"rssiDbm": -88.0, "batteryPct": 92.0, "tankTempC": 58.2}, 100},
		{"weak signal", model.Map{"rssiDbm": -101.0}, 80},
		{"signal at boundary", model.Map{"rssiDbm": -100.0}, 100},
		{"low battery", model.Map{"batteryPct": 19.0}, 70},
		{"battery at boundary", model.Map{"batteryPct": 20.0}, 100},
		{"overheating", model.Map{"tankTempC": 85.5}, 80},
		{"tank at boundary", model.Map{"tankTempC": 85.0}, 100},
		{"all docked", model.Map{"rssiDbm": -120.0, "batteryPct": 5.0, "tankTempC": 90.0}, 30},
		{"no metrics", model.Map{}, 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := healthScore(tc.metrics); got != tc.want {
				t.Errorf("healthScore = %v, want %v", got, tc.want)
			}
		})
	}
}
