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
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// Defaults are the deployment-level fallback parameters for rules that do
// not override them.
type Defaults struct {
	NoTelemetryThreshold time.Duration
	OverTempC            float64
	OutOfRangeRepeat     int
}

// evalTarget is one (rule, device) evaluation subject. Telemetry access is
// lazy so rules that never look at history avoid the read.
type evalTarget struct {
	now    time.Time
	device *model.Device
	twin   *model.DeviceTwin // nil before the first telemetry write
	recent func(ctx context.Context, since *time.Time, limit int) ([]model.Telemetry, error)
}

// predicate decides whether a rule fires for one device. The returned map
// becomes the alert event's details.
type predicate interface {
	shouldFire(ctx context.Context, t *evalTarget) (bool, model.Map, error)
}

// predicateFor builds the typed predicate for a rule, applying parameter
// defaults. The rule set is closed; unknown types evaluate to never-fire.
func predicateFor(rule *model.AlertRule, d Defaults) predicate {
	switch rule.Type {
	case model.RuleNoTelemetry:
		threshold := d.NoTelemetryThreshold
		if threshold <= 0 {
			threshold = 30 * time.Minute
		}
		if v, ok := rule.Params.Number("thresholdMinutes"); ok {
			threshold = time.Duration(v) * time.Minute
		}
		return &noTelemetry{threshold: threshold}

	case model.RuleOverTemp:
		threshold := d.OverTempC
		if threshold == 0 {
			threshold = 85
		}
		if v, ok := rule.Params.Number("thresholdC"); ok {
			threshold = v
		}
		return &overTemp{thresholdC: threshold}

	case model.RulePossibleLeak:
		lookback := 60 * time.Minute
		if v, ok := rule.Params.Number("lookbackMinutes"); ok {
			lookback = time.Duration(v) * time.Minute
		}
		return &possibleLeak{lookback: lookback}

	case model.RuleSensorOutOfRange:
		p := &sensorOutOfRange{metric: "tankTempC", min: -10, max: 120, repeat: d.OutOfRangeRepeat}
		if p.repeat <= 0 {
			p.repeat = 3
		}
		if s, ok := rule.Params.String("metric"); ok {
			p.metric = s
		}
		if v, ok := rule.Params.Number("min"); ok {
			p.min = v
		}
		if v, ok := rule.Params.Number("max"); ok {
			p.max = v
		}
		if v, ok := rule.Params.Number("repeatCount"); ok {
			p.repeat = int(v)
		}
		return p
	}
	return neverFire{}
}

type neverFire struct{}

func (neverFire) shouldFire(context.Context, *evalTarget) (bool, model.Map, error) {
	return false, nil, nil
}

// noTelemetry fires when the device has been silent longer than the
// threshold, or has never reported at all.
type noTelemetry struct {
	threshold time.Duration
}

func (p *noTelemetry) shouldFire(_ context.Context, t *evalTarget) (bool, model.Map, error) {
	cutoff := t.now.Add(-p.threshold)
	if t.device.LastSeenAt == nil {
		return true, model.Map{"lastSeenAt": nil, "thresholdMinutes": p.threshold.Minutes()}, nil
	}
	if t.device.LastSeenAt.Before(cutoff) {
		return true, model.Map{
			"lastSeenAt":       t.device.LastSeenAt.Format(time.RFC3339),
			"thresholdMinutes": p.threshold.Minutes(),
		}, nil
	}
	return false, nil, nil
}

// overTemp fires when the twin's last tank temperature strictly exceeds the
// threshold. Exactly at threshold does not fire.
type overTemp struct {
	thresholdC float64
}

func (p *overTemp) shouldFire(_ context.Context, t *evalTarget) (bool, model.Map, error) {
	if t.twin == nil {
		return false, nil, nil
	}
	v, ok := t.twin.DerivedState.Number("lastTankTempC")
	if !ok || v <= p.thresholdC {
		return false, nil, nil
	}
	return true, model.Map{"lastTankTempC": v, "thresholdC": p.thresholdC}, nil
}

// possibleLeak fires when the last readings inside the lookback window show
// sustained flow: at least 5 readings and every one above 0.1 L/min.
type possibleLeak struct {
	lookback time.Duration
}

func (p *possibleLeak) shouldFire(ctx context.Context, t *evalTarget) (bool, model.Map, error) {
	since := t.now.Add(-p.lookback)
	readings, err := t.recent(ctx, &since, 10)
	if err != nil {
		return false, nil, fmt.Errorf("read telemetry window: %w", err)
	}
	if len(readings) < 5 {
		return false, nil, nil
	}
	for _, r := range readings {
		flow, ok := r.Metrics.Number("flowLpm")
		if !ok || flow <= 0.1 {
			return false, nil, nil
		}
	}
	return true, model.Map{"readings": len(readings), "lookbackMinutes": p.lookback.Minutes()}, nil
}

// sensorOutOfRange fires when the most recent repeat readings all carry a
// defined value strictly outside [min, max]. Values exactly at the bounds
// are in range.
type sensorOutOfRange struct {
	metric   string
	min, max float64
	repeat   int
}

func (p *sensorOutOfRange) shouldFire(ctx context.Context, t *evalTarget) (bool, model.Map, error) {
	readings, err := t.recent(ctx, nil, p.repeat)
	if err != nil {
		return false, nil, fmt.Errorf("read telemetry window: %w", err)
	}
	if len(readings) < p.repeat {
		return false, nil, nil
	}
	for _, r := range readings {
		v, ok := r.Metrics.Number(p.metric)
		if !ok || (v >= p.min && v <= p.max) {
			return false, nil, nil
		}
	}
	return true, model.Map{
		"metric":      p.metric,
		"min":         p.min,
		"max":         p.max,
		"repeatCount": p.repeat,
	}, nil
}
