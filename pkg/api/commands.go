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
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ingest"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

type createCommandRequest struct {
	Type    model.CommandType `json:"type" validate:"required,oneof=REMOTE_BOOST_SET SET_SCHEDULE SET_CONFIG"`
	Payload model.Map         `json:"payload"`
}

func (s *Server) handleCreateCommand(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req createCommandRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	cmd, err := s.deps.Commands.Create(r.Context(), tenantID, chi.URLParam(r, "deviceID"), req.Type, req.Payload, p.UserID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cmd)
}

// handleListCommands returns the recent command history of a device.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	cmds, err := s.deps.Store.ListCommands(r.Context(), tenantID, chi.URLParam(r, "deviceID"), limit)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if cmds == nil {
		cmds = []model.Command{}
	}
	writeJSON(w, http.StatusOK, cmds)
}

// handlePollCommands delivers the queued commands to the authenticated
// device, flipping them to DELIVERED in the same transaction.
func (s *Server) handlePollCommands(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := auth.DeviceIDFrom(r.Context())
	cmds, err := s.deps.Commands.PollPending(r.Context(), deviceID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if cmds == nil {
		cmds = []model.Command{}
	}
	writeJSON(w, http.StatusOK, cmds)
}

type ackCommandRequest struct {
	Status   model.CommandStatus `json:"status" validate:"required,oneof=ACKED FAILED"`
	ErrorMsg *string             `json:"errorMsg"`
}

func (s *Server) handleAckCommand(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := auth.DeviceIDFrom(r.Context())
	var req ackCommandRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	cmd, err := s.deps.Commands.Ack(r.Context(), deviceID, chi.URLParam(r, "commandID"), req.Status, req.ErrorMsg)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmd)
}

// handleIngestTelemetry accepts one reading from the authenticated device.
// Out-of-range metric warnings ride along with the 201.
func (s *Server) handleIngestTelemetry(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := auth.DeviceIDFrom(r.Context())
	var reading ingest.Reading
	if err := decodeJSON(r, &reading); err != nil {
		apierror.Write(w, err)
		return
	}
	result, err := s.deps.Ingestor.Ingest(r.Context(), deviceID, reading)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
