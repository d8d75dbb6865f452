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

// The fleet-engine binary is the control plane for a fleet of connected
// solar water heaters: the HTTP API, the background sweeps and the
// migrations runner, all in one process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/alert"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/api"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/command"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/config"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/entitlement"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ingest"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/integrations"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/notify"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ota"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/rollup"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/sched"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

func main() {
	logger := log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)

	a := kingpin.New("fleet-engine", "The solar water heater fleet control plane")
	a.HelpFlag.Short('h')
	cfg := config.NewFlagConfig(a)

	if _, err := a.Parse(os.Args[1:]); err != nil {
		_ = level.Error(logger).Log("msg", "Error parsing commandline arguments", "err", err)
		a.Usage(os.Args[1:])
		os.Exit(2)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret || cfg.DeviceHMACSecret == config.DefaultDeviceHMACSecret {
		_ = level.Warn(logger).Log("msg", "running with insecure default secrets")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, log.With(logger, "component", "store"), cfg.DatabaseURL)
	if err != nil {
		_ = level.Error(logger).Log("msg", "opening database failed", "err", err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		_ = level.Error(logger).Log("msg", "running migrations failed", "err", err)
		os.Exit(1)
	}

	var (
		tokens       = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
		deviceTokens = auth.NewDeviceTokenizer(cfg.DeviceHMACSecret)
		guard        = auth.NewGuard(tokens, deviceTokens, st)
		sink         = audit.NewSink(log.With(logger, "component", "audit"), st)
		resolver     = entitlement.NewResolver(st)
		ingestor     = ingest.New(log.With(logger, "component", "ingest"), reg, st, sink)
		commands     = command.New(log.With(logger, "component", "command"), reg, st, resolver, sink)
		coordinator  = ota.New(log.With(logger, "component", "ota"), st, sink)
		producer     = notify.NewProducer()
		dispatcher   = notify.NewDispatcher(log.With(logger, "component", "notify"), reg, st,
			notify.DefaultAdapters(log.With(logger, "component", "notify")))
		evaluator = alert.NewEvaluator(log.With(logger, "component", "alert"), reg, st, producer, alert.Defaults{
			NoTelemetryThreshold: cfg.NoTelemetryThreshold,
			OverTempC:            cfg.OverTempThresholdC,
			OutOfRangeRepeat:     cfg.SensorOutOfRangeRepeat,
		})
		roller  = rollup.New(log.With(logger, "component", "rollup"), reg, st)
		weather = integrations.NewWeatherPuller(log.With(logger, "component", "weather"), st,
			integrations.StubWeatherProvider{})
		sim = &integrations.StubSimProvider{Logger: log.With(logger, "component", "sim")}
	)

	server := api.NewServer(log.With(logger, "component", "api"), reg, api.Deps{
		Store:        st,
		Tokens:       tokens,
		DeviceTokens: deviceTokens,
		Guard:        guard,
		Entitlements: resolver,
		Ingestor:     ingestor,
		Commands:     commands,
		OTA:          coordinator,
		Sim:          sim,
		Audit:        sink,
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		OnlineWindow: cfg.NoTelemetryThreshold,
	})

	jobs := sched.New(log.With(logger, "component", "sched"))
	if err := jobs.AddEvery(cfg.AlertEvalInterval, "alert-sweep", evaluator.Sweep); err != nil {
		_ = level.Error(logger).Log("msg", "scheduling alert sweep failed", "err", err)
		os.Exit(1)
	}
	if err := jobs.AddEvery(time.Minute, "notification-drain", dispatcher.Drain); err != nil {
		_ = level.Error(logger).Log("msg", "scheduling notification drain failed", "err", err)
		os.Exit(1)
	}
	if err := jobs.AddCron(cfg.RollupCron, "daily-rollup", func(ctx context.Context) error {
		// Rolls the previous full UTC day.
		return roller.RollDay(ctx, time.Now().UTC().AddDate(0, 0, -1))
	}); err != nil {
		_ = level.Error(logger).Log("msg", "scheduling daily rollup failed", "err", err)
		os.Exit(1)
	}
	if err := jobs.AddCron(cfg.WeatherCron, "weather-pull", func(ctx context.Context) error {
		return weather.PullDay(ctx, time.Now().UTC())
	}); err != nil {
		_ = level.Error(logger).Log("msg", "scheduling weather pull failed", "err", err)
		os.Exit(1)
	}

	var g run.Group
	{
		// Termination handler.
		term := make(chan os.Signal, 1)
		stop := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		g.Add(
			func() error {
				select {
				case <-term:
					_ = level.Info(logger).Log("msg", "received SIGTERM, exiting gracefully...")
				case <-stop:
				}
				return nil
			},
			func(error) {
				close(stop)
			},
		)
	}
	{
		// Background jobs.
		g.Add(func() error {
			jobs.Run()
			return nil
		}, func(error) {
			jobs.Stop()
		})
	}
	{
		// Web server.
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: server.Routes(),
		}
		g.Add(func() error {
			_ = level.Info(logger).Log("msg", "starting web server", "listen", httpServer.Addr)
			return httpServer.ListenAndServe()
		}, func(error) {
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), time.Minute)
			defer cancelShutdown()
			if err := httpServer.Shutdown(ctxShutdown); err != nil {
				_ = level.Error(logger).Log("msg", "server failed to shut down gracefully", "err", err)
			}
		})
	}

	if err := g.Run(); err != nil && err != http.ErrServerClosed {
		_ = level.Error(logger).Log("msg", "exiting with error", "err", err)
		os.Exit(1)
	}
	_ = level.Info(logger).Log("msg", "exiting")
}
