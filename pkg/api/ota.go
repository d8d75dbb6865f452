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
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ota"
)

type registerFirmwareRequest struct {
	Version      string  `json:"version" validate:"required"`
	URL          string  `json:"url" validate:"required,url"`
	Checksum     string  `json:"checksum" validate:"required"`
	ReleaseNotes *string `json:"releaseNotes"`
}

func (s *Server) handleRegisterFirmware(w http.ResponseWriter, r *http.Request) {
	var req registerFirmwareRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	firmware, err := s.deps.OTA.RegisterFirmware(r.Context(), req.Version, req.URL, req.Checksum, req.ReleaseNotes)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, firmware)
}

func (s *Server) handleListFirmware(w http.ResponseWriter, r *http.Request) {
	firmware, err := s.deps.OTA.ListFirmware(r.Context())
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if firmware == nil {
		firmware = []model.FirmwarePackage{}
	}
	writeJSON(w, http.StatusOK, firmware)
}

type scheduleOtaJobRequest struct {
	TargetType  model.OtaTargetType `json:"targetType" validate:"required,oneof=DEVICE GROUP"`
	DeviceID    *string             `json:"deviceId"`
	GroupFilter model.Map           `json:"groupFilter"`
	FirmwareID  string              `json:"firmwareId" validate:"required"`
	ScheduledAt time.Time           `json:"scheduledAt" validate:"required"`
}

func (s *Server) handleScheduleOtaJob(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req scheduleOtaJobRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	job, err := s.deps.OTA.ScheduleJob(r.Context(), tenantID, p.UserID, ota.JobRequest{
		TargetType:  req.TargetType,
		DeviceID:    req.DeviceID,
		GroupFilter: req.GroupFilter,
		FirmwareID:  req.FirmwareID,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleListOtaJobs(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	jobs, err := s.deps.Store.ListOtaJobs(r.Context(), tenantID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if jobs == nil {
		jobs = []model.OtaJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleCancelOtaJob(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	p := principal(r)
	job, err := s.deps.OTA.Cancel(r.Context(), tenantID, chi.URLParam(r, "jobID"), p.UserID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleOtaPending returns the next live job addressing the authenticated
// device, or null.
func (s *Server) handleOtaPending(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := auth.DeviceIDFrom(r.Context())
	job, err := s.deps.OTA.NextForDevice(r.Context(), deviceID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type otaReportRequest struct {
	JobID    string          `json:"jobId" validate:"required"`
	Status   model.OtaStatus `json:"status" validate:"required,oneof=IN_PROGRESS SUCCESS FAILED"`
	Progress model.Map       `json:"progress"`
	ErrorMsg *string         `json:"errorMsg"`
}

func (s *Server) handleOtaReport(w http.ResponseWriter, r *http.Request) {
	deviceID, _ := auth.DeviceIDFrom(r.Context())
	var req otaReportRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	job, err := s.deps.OTA.Report(r.Context(), deviceID, req.JobID, req.Status, req.Progress, req.ErrorMsg)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
