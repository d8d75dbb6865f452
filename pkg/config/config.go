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

// Package config holds the deployment configuration. Every knob is a flag
// with an environment fallback so container deployments can use either.
package config

import (
	"time"

	"github.com/alecthomas/kingpin/v2"
)

// Insecure development defaults. Deployments are expected to override both.
const (
	DefaultJWTSecret        = "dev-insecure-jwt-secret"
	DefaultDeviceHMACSecret = "dev-insecure-device-secret"
)

// Config is the resolved deployment configuration.
type Config struct {
	// Port the HTTP server binds to.
	Port int
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	// JWTSecret signs user bearer tokens.
	JWTSecret string
	// JWTExpiry is the user token lifetime.
	JWTExpiry time.Duration
	// DeviceHMACSecret keys device MAC tokens.
	DeviceHMACSecret string

	// AlertEvalInterval is the alert evaluator sweep cadence.
	AlertEvalInterval time.Duration
	// NoTelemetryThreshold is the default NO_TELEMETRY rule window.
	NoTelemetryThreshold time.Duration
	// OverTempThresholdC is the default OVER_TEMP rule threshold.
	OverTempThresholdC float64
	// SensorOutOfRangeRepeat is the default SENSOR_OUT_OF_RANGE repeat count.
	SensorOutOfRangeRepeat int

	// RollupCron is the daily analytics rollup schedule (cron syntax).
	RollupCron string
	// WeatherCron is the daily weather pull schedule (cron syntax).
	WeatherCron string
}

// NewFlagConfig registers all deployment flags on the given application and
// returns the config they populate after Parse.
func NewFlagConfig(a *kingpin.Application) *Config {
	var c Config

	a.Flag("web.listen-port", "Port for the HTTP API server.").
		Envar("PORT").Default("3000").IntVar(&c.Port)
	a.Flag("db.url", "Postgres connection URL.").
		Envar("DATABASE_URL").Default("postgres://localhost:5432/fleet?sslmode=disable").StringVar(&c.DatabaseURL)

	a.Flag("auth.jwt-secret", "Signing secret for user bearer tokens.").
		Envar("JWT_SECRET").Default(DefaultJWTSecret).StringVar(&c.JWTSecret)
	a.Flag("auth.jwt-expiry", "Lifetime of user bearer tokens.").
		Envar("JWT_EXPIRES_IN").Default("24h").DurationVar(&c.JWTExpiry)
	a.Flag("auth.device-hmac-secret", "HMAC key for device MAC tokens.").
		Envar("DEVICE_HMAC_SECRET").Default(DefaultDeviceHMACSecret).StringVar(&c.DeviceHMACSecret)

	// Both intervals are configured as whole minutes on the wire.
	var alertEvalMinutes, noTelemetryMinutes int
	a.Flag("alerts.eval-interval-minutes", "Cadence of the alert evaluation sweep in minutes.").
		Envar("ALERT_EVAL_INTERVAL_MINUTES").Default("5").IntVar(&alertEvalMinutes)
	a.Flag("alerts.no-telemetry-threshold-minutes", "Default NO_TELEMETRY silence window in minutes.").
		Envar("NO_TELEMETRY_THRESHOLD_MINUTES").Default("30").IntVar(&noTelemetryMinutes)
	a.Action(func(*kingpin.ParseContext) error {
		c.AlertEvalInterval = time.Duration(alertEvalMinutes) * time.Minute
		c.NoTelemetryThreshold = time.Duration(noTelemetryMinutes) * time.Minute
		return nil
	})
	a.Flag("alerts.over-temp-threshold", "Default OVER_TEMP threshold in Celsius.").
		Envar("OVER_TEMP_THRESHOLD_C").Default("85").Float64Var(&c.OverTempThresholdC)
	a.Flag("alerts.sensor-out-of-range-repeat", "Default SENSOR_OUT_OF_RANGE repeat count.").
		Envar("SENSOR_OUT_OF_RANGE_REPEAT_COUNT").Default("3").IntVar(&c.SensorOutOfRangeRepeat)

	a.Flag("rollup.cron", "Cron schedule for the daily analytics rollup.").
		Envar("ROLLUP_CRON").Default("0 2 * * *").StringVar(&c.RollupCron)
	a.Flag("weather.cron", "Cron schedule for the daily weather pull.").
		Envar("WEATHER_CRON").Default("0 6 * * *").StringVar(&c.WeatherCron)

	return &c
}
