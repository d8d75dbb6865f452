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

package alert

import (
	"context"
	"testing"
	"time"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

var testDefaults = Defaults{
	NoTelemetryThreshold: 30 * time.Minute,
	OverTempC:            85,
	OutOfRangeRepeat:     3,
}

func target(device *model.Device, twin *model.DeviceTwin, readings []model.Telemetry) *evalTarget {
	return &evalTarget{
		now:    time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		device: device,
		twin:   twin,
		recent: func(_ context.Context, _ *time.Time, limit int) ([]model.Telemetry, error) {
			if limit < len(readings) {
				return readings[:limit], nil
			}
			return readings, nil
		},
	}
}

func fire(t *testing.T, rule *model.AlertRule, tgt *evalTarget) bool {
	t.Helper()
	fired, _, err := predicateFor(rule, testDefaults).shouldFire(context.Background(), tgt)
	if err != nil {
		t.Fatalf("shouldFire: %v", err)
	}
	return fired
}

func TestNoTelemetry(t *testing.T) {
	rule := &model.AlertRule{Type: model.RuleNoTelemetry}
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	// Never reported at all.
	if !fire(t, rule, target(&model.Device{}, nil, nil)) {
		t.Error("silent-forever device did not fire")
	}

	recent := now.Add(-10 * time.Minute)
	if fire(t, rule, target(&model.Device{LastSeenAt: &recent}, nil, nil)) {
		t.Error("recently seen device fired")
	}

	stale := now.Add(-31 * time.Minute)
	if !fire(t, rule, target(&model.Device{LastSeenAt: &stale}, nil, nil)) {
		t.Error("stale device did not fire")
	}
}

func TestNoTelemetryParamOverride(t *testing.T) {
	rule := &model.AlertRule{
		Type:   model.RuleNoTelemetry,
		Params: model.Map{"thresholdMinutes": 5.0},
	}
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	seen := now.Add(-10 * time.Minute)
	if !fire(t, rule, target(&model.Device{LastSeenAt: &seen}, nil, nil)) {
		t.Error("device silent beyond the rule's own threshold did not fire")
	}
}

func TestOverTempStrictComparison(t *testing.T) {
	rule := &model.AlertRule{Type: model.RuleOverTemp}
	twin := func(temp float64) *model.DeviceTwin {
		return &model.DeviceTwin{DerivedState: model.Map{"lastTankTempC": temp}}
	}

	if fire(t, rule, target(&model.Device{}, twin(85.0), nil)) {
		t.Error("exactly at threshold fired; comparison must be strict")
	}
	if !fire(t, rule, target(&model.Device{}, twin(85.1), nil)) {
		t.Error("above threshold did not fire")
	}
	if fire(t, rule, target(&model.Device{}, nil, nil)) {
		t.Error("device with no twin fired")
	}
	if fire(t, rule, target(&model.Device{}, &model.DeviceTwin{DerivedState: model.Map{}}, nil)) {
		t.Error("twin without a tank reading fired")
	}
}

func TestPossibleLeak(t *testing.T) {
	rule := &model.AlertRule{Type: model.RulePossibleLeak}
	flows := func(vals ...float64) []model.Telemetry {
		rs := make([]model.Telemetry, len(vals))
		for i, v := range vals {
			rs[i] = model.Telemetry{Metrics: model.Map{"flowLpm": v}}
		}
		return rs
	}

	if fire(t, rule, target(&model.Device{}, nil, flows(2, 2, 2, 2))) {
		t.Error("four readings fired; five are required")
	}
	if !fire(t, rule, target(&model.Device{}, nil, flows(2, 1.5, 0.2, 3, 0.11))) {
		t.Error("five sustained-flow readings did not fire")
	}
	if fire(t, rule, target(&model.Device{}, nil, flows(2, 2, 0.1, 2, 2))) {
		t.Error("a reading at the 0.1 floor fired; comparison must be strict")
	}
	if fire(t, rule, target(&model.Device{}, nil, flows(2, 2, 0, 2, 2))) {
		t.Error("an idle reading inside the window fired")
	}
}

func TestSensorOutOfRange(t *testing.T) {
	rule := &model.AlertRule{
		Type:   model.RuleSensorOutOfRange,
		Params: model.Map{"metric": "tankTempC", "min": -10.0, "max": 120.0, "repeatCount": 3.0},
	}
	temps := func(vals ...float64) []model.Telemetry {
		rs := make([]model.Telemetry, len(vals))
		for i, v := range vals {
			rs[i] = model.Telemetry{Metrics: model.Map{"tankTempC": v}}
		}
		return rs
	}

	if !fire(t, rule, target(&model.Device{}, nil, temps(130, 125, 121))) {
		t.Error("three consecutive out-of-range readings did not fire")
	}
	if fire(t, rule, target(&model.Device{}, nil, temps(130, 60, 130))) {
		t.Error("an in-range reading inside the window fired")
	}
	// Values exactly at the bounds are in range.
	if fire(t, rule, target(&model.Device{}, nil, temps(120, 130, 130))) {
		t.Error("a reading at max fired; bounds are inclusive")
	}
	if fire(t, rule, target(&model.Device{}, nil, temps(-10, -20, -20))) {
		t.Error("a reading at min fired; bounds are inclusive")
	}
	// Fewer readings than the repeat count cannot establish the pattern.
	if fire(t, rule, target(&model.Device{}, nil, temps(130, 130))) {
		t.Error("two readings fired with repeatCount 3")
	}
}

func TestDedupeKey(t *testing.T) {
	if got := DedupeKey("dev-1", "rule-9"); got != "dev-1:rule-9" {
		t.Errorf("DedupeKey = %q, want dev-1:rule-9", got)
	}
}
