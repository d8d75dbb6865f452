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
	"strings"
	"testing"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

func TestValidateMetrics(t *testing.T) {
	warnings := validateMetrics(model.Map{
		"tankTempC":  58.2,
		"rssiDbm":    -88.0,
		"batteryPct": 92.0,
	})
	if len(warnings) != 0 {
		t.Errorf("in-range metrics produced warnings: %v", warnings)
	}

	warnings = validateMetrics(model.Map{
		"tankTempC":  130.0,
		"batteryPct": -5.0,
		"rssiDbm":    -88.0,
	})
	if len(warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(warnings), warnings)
	}
	// Metric-name order, stable across identical requests.
	if !strings.HasPrefix(warnings[0], "batteryPct=") {
		t.Errorf("warnings[0] = %q, want batteryPct first", warnings[0])
	}
	if !strings.HasPrefix(warnings[1], "tankTempC=") {
		t.Errorf("warnings[1] = %q, want tankTempC second", warnings[1])
	}
}

func TestValidateMetricsBoundsAreInclusive(t *testing.T) {
	warnings := validateMetrics(model.Map{
		"tankTempC":  120.0,
		"batteryPct": 0.0,
		"rssiDbm":    -130.0,
	})
	if len(warnings) != 0 {
		t.Errorf("boundary values produced warnings: %v", warnings)
	}
}

func TestValidateMetricsIgnoresUnknownAndNonNumeric(t *testing.T) {
	warnings := validateMetrics(model.Map{
		"customVendorField": 1e12,
		"heaterOn":          true,
		"tankTempC":         "not-a-number",
	})
	if len(warnings) != 0 {
		t.Errorf("unknown or non-numeric metrics produced warnings: %v", warnings)
	}
}
