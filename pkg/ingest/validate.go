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
	"fmt"
	"sort"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// metricRange is the plausibility window for one well-known numeric metric.
type metricRange struct {
	min, max float64
}

// Plausibility table for the distinguished numeric metrics. Unknown keys
// pass through untouched.
var metricRanges = map[string]metricRange{
	"tankTempC":    {-10, 120},
	"ambientTempC": {-50, 70},
	"humidityPct":  {0, 100},
	"lux":          {0, 200000},
	"flowLpm":      {0, 50},
	"powerW":       {0, 10000},
	"batteryPct":   {0, 100},
	"rssiDbm":      {-130, 0},
}

// validateMetrics range-checks the known numeric metrics. Out-of-range
// values produce non-fatal warnings; the reading is stored either way.
// Warnings come out in metric-name order so identical requests get
// identical responses.
func validateMetrics(metrics model.Map) []string {
	names := make([]string, 0, len(metricRanges))
	for name := range metricRanges {
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []string
	for _, name := range names {
		v, ok := metrics.Number(name)
		if !ok {
			continue
		}
		r := metricRanges[name]
		if v < r.min || v > r.max {
			warnings = append(warnings, fmt.Sprintf("%s=%v outside plausible range [%v, %v]", name, v, r.min, r.max))
		}
	}
	return warnings
}
