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

// Package api is the HTTP surface of the control plane. Handlers stay thin:
// decode and validate, call the domain service, map typed errors onto the
// wire envelope.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/command"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/entitlement"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ingest"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/integrations"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ota"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// Deps bundles the services the HTTP surface fronts.
type Deps struct {
	Store        *store.Store
	Tokens       *auth.TokenManager
	DeviceTokens *auth.DeviceTokenizer
	Guard        *auth.Guard
	Entitlements *entitlement.Resolver
	Ingestor     *ingest.Ingestor
	Commands     *command.Queue
	OTA          *ota.Coordinator
	Sim          integrations.SimProvider
	Audit        *audit.Sink

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// OnlineWindow bounds the devicesOnline dashboard count. Defaults to
	// 30 minutes.
	OnlineWindow time.Duration
}

// Server routes requests into the domain services.
type Server struct {
	logger log.Logger
	deps   Deps
}

// NewServer wires the HTTP surface.
func NewServer(logger log.Logger, reg prometheus.Registerer, deps Deps) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(httpRequests)
	}
	if deps.OnlineWindow <= 0 {
		deps.OnlineWindow = 30 * time.Minute
	}
	return &Server{logger: logger, deps: deps}
}

// Routes builds the router. Device-authenticated and user-authenticated
// routes live in separate middleware groups; the credential kinds never mix
// on one route.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))

	r.Get("/api/health", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)

	guard := s.deps.Guard

	// Device plane. Every route proves the device id via its MAC token;
	// routes with a device id in the path additionally pin it to the token.
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireDevice)
		r.Post("/api/ingest/telemetry", s.handleIngestTelemetry)

		self := auth.RequireSelfDevice("deviceID")
		r.With(self).Get("/api/devices/{deviceID}/commands/pending", s.handlePollCommands)
		r.With(self).Post("/api/devices/{deviceID}/commands/{commandID}/ack", s.handleAckCommand)
		r.With(self).Get("/api/ota/devices/{deviceID}/ota/pending", s.handleOtaPending)
		r.With(self).Post("/api/ota/devices/{deviceID}/ota/report", s.handleOtaReport)
	})

	// User plane.
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireUser)

		r.Get("/api/tenants", s.handleListTenants)
		r.With(guard.RequireRole(model.RolePlatformAdmin)).Post("/api/tenants", s.handleCreateTenant)

		r.Group(func(r chi.Router) {
			r.Use(guard.ResolveTenant)

			admins := guard.RequireRole(model.RolePlatformAdmin, model.RoleTenantAdmin)
			field := guard.RequireRole(model.RolePlatformAdmin, model.RoleTenantAdmin, model.RoleInstaller)

			r.With(admins).Post("/api/users/invite", s.handleInviteUser)
			r.With(admins).Patch("/api/users/{userID}/role", s.handleChangeRole)

			r.With(field).Post("/api/sites", s.handleCreateSite)
			r.Get("/api/sites", s.handleListSites)
			r.Patch("/api/sites/{siteID}/location", s.handleUpdateSiteLocation)
			r.Get("/api/sites/{siteID}/weather", s.handleSiteWeather)

			r.With(field).Post("/api/devices", s.handleCreateDevice)
			r.With(admins).Post("/api/devices/bulk", s.handleBulkImportDevices)
			r.Get("/api/devices", s.handleListDevices)
			r.With(field).Patch("/api/devices/{deviceID}", s.handleUpdateDevice)
			r.Get("/api/devices/{deviceID}/twin", s.handleGetTwin)
			r.Get("/api/map/devices", s.handleMapDevices)

			r.Post("/api/devices/{deviceID}/commands", s.handleCreateCommand)
			r.Get("/api/devices/{deviceID}/commands", s.handleListCommands)

			r.With(admins).Post("/api/alerts/rules", s.handleCreateAlertRule)
			r.Get("/api/alerts/rules", s.handleListAlertRules)
			r.Get("/api/alerts", s.handleListAlerts)
			r.Post("/api/alerts/{eventID}/ack", s.handleAckAlert)
			r.Post("/api/alerts/{eventID}/close", s.handleCloseAlert)
			r.With(admins).Post("/api/notifications/channels", s.handleCreateChannel)

			r.With(guard.RequireRole(model.RolePlatformAdmin)).Post("/api/ota/firmware", s.handleRegisterFirmware)
			r.Get("/api/ota/firmware", s.handleListFirmware)
			r.With(admins).Post("/api/ota/jobs", s.handleScheduleOtaJob)
			r.Get("/api/ota/jobs", s.handleListOtaJobs)
			r.With(admins).Post("/api/ota/jobs/{jobID}/cancel", s.handleCancelOtaJob)

			r.With(admins).Post("/api/sim/{iccid}/actions", s.handleSimAction)

			r.With(admins).Put("/api/entitlements", s.handlePutEntitlement)
			r.Get("/api/entitlements", s.handleListEntitlements)
			r.With(admins).Get("/api/audit", s.handleListAudit)

			r.Get("/api/analytics/rollups", s.handleListRollups)
			r.Get("/api/tenants/{tenantID}/dashboard/summary", s.handleDashboardSummary)
		})
	})

	return r
}
