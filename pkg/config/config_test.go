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

package config

import (
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
)

func TestDefaults(t *testing.T) {
	a := kingpin.New("test", "")
	cfg := NewFlagConfig(a)

	if _, err := a.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.AlertEvalInterval != 5*time.Minute {
		t.Errorf("AlertEvalInterval = %v, want 5m", cfg.AlertEvalInterval)
	}
	if cfg.NoTelemetryThreshold != 30*time.Minute {
		t.Errorf("NoTelemetryThreshold = %v, want 30m", cfg.NoTelemetryThreshold)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
}

// The interval env vars carry bare minute counts, not duration strings.
func TestIntervalEnvVarsAreMinuteCounts(t *testing.T) {
	t.Setenv("ALERT_EVAL_INTERVAL_MINUTES", "5")
	t.Setenv("NO_TELEMETRY_THRESHOLD_MINUTES", "45")

	a := kingpin.New("test", "")
	cfg := NewFlagConfig(a)

	if _, err := a.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.AlertEvalInterval != 5*time.Minute {
		t.Errorf("AlertEvalInterval = %v, want 5m", cfg.AlertEvalInterval)
	}
	if cfg.NoTelemetryThreshold != 45*time.Minute {
		t.Errorf("NoTelemetryThreshold = %v, want 45m", cfg.NoTelemetryThreshold)
	}
}
