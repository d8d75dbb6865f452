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

import "github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"

// Distinguished derived-state fields mirrored from their metric keys.
var distinguished = map[string]string{
	"tankTempC":    "lastTankTempC",
	"ambientTempC": "lastAmbientTempC",
	"heaterOn":     "heaterOn",
	"powerW":       "lastPowerW",
	"rssiDbm":      "lastRssi",
}

// deriveState recomputes the twin's derived-state mapping from the prior
// state and the new reading. Prior values survive for metrics absent from
// the reading.
func deriveState(prior, metrics model.Map, geo *Geo) model.Map {
	state := prior.Clone()
	if state == nil {
		state = model.Map{}
	}

	for k, v := range metrics {
		state["last_"+k] = v
	}
	for metric, field := range distinguished {
		if v, ok := metrics[metric]; ok {
			state[field] = v
		}
	}
	state["isOnline"] = true
	state["healthScore"] = healthScore(metrics)

	if geo != nil {
		state["lastGeoLat"] = geo.Lat
		state["lastGeoLon"] = geo.Lon
		state["lastGeoSource"] = string(geo.Source)
	}
	return state
}

// healthScore starts at 100 and is docked for weak signal, low battery and
// overheating, floored at zero.
func healthScore(metrics model.Map) float64 {
	score := 100.0
	if v, ok := metrics.Number("rssiDbm"); ok && v < -100 {
		score -= 20
	}
	if v, ok := metrics.Number("batteryPct"); ok && v < 20 {
		score -= 30
	}
	if v, ok := metrics.Number("tankTempC"); ok && v > 85 {
		score -= 20
	}
	if score < 0 {
		score = 0
	}
	return score
}
