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
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	if d := haversineKm(37.975, 23.735, 37.975, 23.735); d != 0 {
		t.Errorf("zero distance = %v, want 0", d)
	}

	// One degree of latitude is close to 111.2 km on this sphere model.
	if d := haversineKm(0, 0, 1, 0); math.Abs(d-111.19) > 0.1 {
		t.Errorf("one degree latitude = %v km, want ~111.19", d)
	}

	// Symmetric in its endpoints.
	a := haversineKm(37.975, 23.735, 38.5, 24.5)
	b := haversineKm(38.5, 24.5, 37.975, 23.735)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric distance: %v vs %v", a, b)
	}
}

// The large-jump audit uses a strict > 1 km comparison; a displacement of
// exactly one kilometer stays quiet.
func TestHaversineOneKilometerBoundary(t *testing.T) {
	// 1 km due north corresponds to this latitude delta on the sphere.
	deltaLat := 1.0 / earthRadiusKm * 180 / math.Pi

	d := haversineKm(37.0, 23.0, 37.0+deltaLat, 23.0)
	if math.Abs(d-1.0) > 1e-6 {
		t.Fatalf("calibration: distance = %v, want 1.0", d)
	}
	if d > 1.0+1e-9 {
		t.Errorf("exact 1 km classified above threshold: %v", d)
	}

	beyond := haversineKm(37.0, 23.0, 37.0+deltaLat*1.01, 23.0)
	if !(beyond > 1.0) {
		t.Errorf("1.01 km = %v, want > 1.0", beyond)
	}
}
