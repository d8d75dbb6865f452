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

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/integrations"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

type simActionRequest struct {
	Action integrations.SimActionType `json:"action" validate:"required,oneof=ACTIVATE DEACTIVATE RESET"`
}

func (s *Server) handleSimAction(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req simActionRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	iccid := chi.URLParam(r, "iccid")
	result, err := s.deps.Sim.Execute(r.Context(), iccid, req.Action)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	s.deps.Audit.Record(r.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditSimAction,
		EntityType:  "sim",
		EntityID:    iccid,
		Metadata:    model.Map{"action": string(req.Action), "status": result.Status},
	})
	writeJSON(w, http.StatusOK, result)
}

type putEntitlementRequest struct {
	Scope    model.EntitlementScope `json:"scope" validate:"required,oneof=TENANT DEVICE"`
	DeviceID *string                `json:"deviceId"`
	Key      model.FeatureKey       `json:"key" validate:"required,oneof=BASIC_REMOTE_BOOST SMART_HOME_INTEGRATION"`
	Enabled  *bool                  `json:"enabled" validate:"required"`
}

func (s *Server) handlePutEntitlement(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req putEntitlementRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	switch req.Scope {
	case model.ScopeDevice:
		if req.DeviceID == nil {
			apierror.Write(w, apierror.Validation("deviceId is required for DEVICE scope"))
			return
		}
		if _, err := s.deps.Store.GetDevice(r.Context(), tenantID, *req.DeviceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				apierror.Write(w, apierror.NotFound("device"))
				return
			}
			apierror.Write(w, err)
			return
		}
	case model.ScopeTenant:
		req.DeviceID = nil
	}

	ent, err := s.deps.Store.UpsertEntitlement(r.Context(), &model.Entitlement{
		TenantID: tenantID,
		Scope:    req.Scope,
		DeviceID: req.DeviceID,
		Key:      req.Key,
		Enabled:  *req.Enabled,
	})
	if err != nil {
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	s.deps.Audit.Record(r.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditEntitlementSet,
		EntityType:  "entitlement",
		EntityID:    ent.ID,
		Metadata:    model.Map{"key": string(req.Key), "enabled": *req.Enabled},
	})
	writeJSON(w, http.StatusOK, ent)
}

func (s *Server) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	ents, err := s.deps.Store.ListEntitlements(r.Context(), tenantID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if ents == nil {
		ents = []model.Entitlement{}
	}
	writeJSON(w, http.StatusOK, ents)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	q := r.URL.Query()
	f := store.AuditFilter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	logs, err := s.deps.Store.ListAuditLogs(r.Context(), tenantID, f)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleListRollups returns daily aggregates, optionally narrowed to one
// device, defaulting to the trailing 30 days.
func (s *Server) handleListRollups(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	q := r.URL.Query()
	to := time.Now().UTC().Format("2006-01-02")
	from := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
	if v := q.Get("from"); v != "" {
		if _, perr := time.Parse("2006-01-02", v); perr != nil {
			apierror.Write(w, apierror.Validation("from must be YYYY-MM-DD"))
			return
		}
		from = v
	}
	if v := q.Get("to"); v != "" {
		if _, perr := time.Parse("2006-01-02", v); perr != nil {
			apierror.Write(w, apierror.Validation("to must be YYYY-MM-DD"))
			return
		}
		to = v
	}
	rollups, err := s.deps.Store.ListDailyRollups(r.Context(), tenantID, q.Get("deviceId"), from, to)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if rollups == nil {
		rollups = []model.DailyRollup{}
	}
	writeJSON(w, http.StatusOK, rollups)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	now := time.Now().UTC()
	summary, err := s.deps.Store.GetDashboardSummary(r.Context(), tenantID,
		now.Add(-s.deps.OnlineWindow), now.Format("2006-01-02"))
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "db": "down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "db": "up"})
}
