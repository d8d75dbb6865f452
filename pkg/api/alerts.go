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

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

type createAlertRuleRequest struct {
	Name     string              `json:"name" validate:"required"`
	Type     model.AlertRuleType `json:"type" validate:"required,oneof=NO_TELEMETRY OVER_TEMP POSSIBLE_LEAK SENSOR_OUT_OF_RANGE"`
	Severity model.Severity      `json:"severity" validate:"required,oneof=INFO WARNING CRITICAL"`
	Params   model.Map           `json:"params"`
	Enabled  *bool               `json:"enabled"`
}

func (s *Server) handleCreateAlertRule(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req createAlertRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule, err := s.deps.Store.CreateAlertRule(r.Context(), &model.AlertRule{
		TenantID: tenantID,
		Name:     req.Name,
		Enabled:  enabled,
		Type:     req.Type,
		Params:   req.Params,
		Severity: req.Severity,
	})
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleListAlertRules(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	rules, err := s.deps.Store.ListAlertRules(r.Context(), tenantID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if rules == nil {
		rules = []model.AlertRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	q := r.URL.Query()
	var f store.AlertEventFilter
	if v := q.Get("status"); v != "" {
		status := model.AlertStatus(v)
		f.Status = &status
	}
	if v := q.Get("severity"); v != "" {
		severity := model.Severity(v)
		f.Severity = &severity
	}
	if v := q.Get("deviceId"); v != "" {
		f.DeviceID = &v
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}
	events, total, err := s.deps.Store.ListAlertEvents(r.Context(), tenantID, f)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if events == nil {
		events = []model.AlertEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "total": total})
}

func (s *Server) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	s.transitionAlert(w, r, model.AuditAlertAcknowledged, s.deps.Store.AcknowledgeAlertEvent)
}

func (s *Server) handleCloseAlert(w http.ResponseWriter, r *http.Request) {
	s.transitionAlert(w, r, model.AuditAlertClosed, s.deps.Store.CloseAlertEvent)
}

func (s *Server) transitionAlert(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, tenantID, id string) (*model.AlertEvent, error)) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	event, err := fn(r.Context(), tenantID, chi.URLParam(r, "eventID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("alert event"))
			return
		}
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	s.deps.Audit.Record(r.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      action,
		EntityType:  "alert_event",
		EntityID:    event.ID,
	})
	writeJSON(w, http.StatusOK, event)
}

type createChannelRequest struct {
	Type    model.ChannelType `json:"type" validate:"required,oneof=EMAIL SMS WEBHOOK"`
	Config  model.Map         `json:"config" validate:"required"`
	Enabled *bool             `json:"enabled"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req createChannelRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	channel, err := s.deps.Store.CreateNotificationChannel(r.Context(), &model.NotificationChannel{
		TenantID: tenantID,
		Type:     req.Type,
		Config:   req.Config,
		Enabled:  enabled,
	})
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}
