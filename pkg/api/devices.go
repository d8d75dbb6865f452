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
	"encoding/csv"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

type createDeviceRequest struct {
	SerialNumber string    `json:"serialNumber" validate:"required"`
	Model        string    `json:"model" validate:"required"`
	SiteID       *string   `json:"siteId"`
	OwnerUserID  *string   `json:"ownerUserId"`
	Name         *string   `json:"name"`
	Notes        *string   `json:"notes"`
	Tags         model.Map `json:"tags"`
	SimICCID     *string   `json:"simIccid"`
}

// createDevice provisions the device row, pins its MAC digest and mints the
// one-time-returned device token.
func (s *Server) createDevice(r *http.Request, tenantID string, req createDeviceRequest) (*model.Device, string, error) {
	if req.SiteID != nil {
		if _, err := s.deps.Store.GetSite(r.Context(), tenantID, *req.SiteID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, "", apierror.NotFound("site")
			}
			return nil, "", err
		}
	}
	device, err := s.deps.Store.CreateDevice(r.Context(), &model.Device{
		TenantID:     tenantID,
		SiteID:       req.SiteID,
		OwnerUserID:  req.OwnerUserID,
		SerialNumber: req.SerialNumber,
		Model:        req.Model,
		Name:         req.Name,
		Notes:        req.Notes,
		Tags:         req.Tags,
		SimICCID:     req.SimICCID,
	})
	if err != nil {
		if store.IsConflict(err) {
			return nil, "", apierror.Conflict("serial number already exists in tenant")
		}
		return nil, "", err
	}
	if _, err := s.deps.Store.CreateDeviceSecret(r.Context(), device.ID, s.deps.DeviceTokens.Digest(device.ID)); err != nil {
		return nil, "", err
	}
	p := principal(r)
	s.deps.Audit.Record(r.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditDeviceCreated,
		EntityType:  "device",
		EntityID:    device.ID,
		Metadata:    model.Map{"serialNumber": device.SerialNumber},
	})
	return device, s.deps.DeviceTokens.Mint(device.ID), nil
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req createDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	device, token, err := s.createDevice(r, tenantID, req)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"device": device, "deviceToken": token})
}

// bulkRowResult is the per-row outcome of a CSV import.
type bulkRowResult struct {
	Row         int     `json:"row"`
	DeviceID    *string `json:"deviceId,omitempty"`
	DeviceToken *string `json:"deviceToken,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// handleBulkImportDevices imports devices from a CSV upload with a
// serialNumber,model,siteId,ownerUserId,name header. Rows fail
// independently.
func (s *Server) handleBulkImportDevices(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	body, err := csvUpload(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	reader := csv.NewReader(body)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		apierror.Write(w, apierror.Validation("empty or unreadable csv"))
		return
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["serialNumber"]; !ok {
		apierror.Write(w, apierror.Validation("csv header must include serialNumber"))
		return
	}
	if _, ok := col["model"]; !ok {
		apierror.Write(w, apierror.Validation("csv header must include model"))
		return
	}

	field := func(record []string, name string) *string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return nil
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			return nil
		}
		return &v
	}

	var results []bulkRowResult
	for row := 2; ; row++ {
		record, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		res := bulkRowResult{Row: row}
		if rerr != nil {
			msg := "unparseable row"
			res.Error = &msg
			results = append(results, res)
			continue
		}
		req := createDeviceRequest{
			SiteID:      field(record, "siteId"),
			OwnerUserID: field(record, "ownerUserId"),
			Name:        field(record, "name"),
		}
		if v := field(record, "serialNumber"); v != nil {
			req.SerialNumber = *v
		}
		if v := field(record, "model"); v != nil {
			req.Model = *v
		}
		if req.SerialNumber == "" || req.Model == "" {
			msg := "serialNumber and model are required"
			res.Error = &msg
			results = append(results, res)
			continue
		}
		device, token, cerr := s.createDevice(r, tenantID, req)
		if cerr != nil {
			msg := apierror.From(cerr).Message
			res.Error = &msg
			results = append(results, res)
			continue
		}
		res.DeviceID = &device.ID
		res.DeviceToken = &token
		results = append(results, res)
	}
	if results == nil {
		results = []bulkRowResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// csvUpload accepts either a multipart "file" part or a raw text/csv body.
func csvUpload(r *http.Request) (io.Reader, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/") {
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, apierror.Validation("missing csv upload")
		}
		return f, nil
	}
	if ct == "text/csv" {
		return r.Body, nil
	}
	return nil, apierror.Validation("missing csv upload")
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	q := r.URL.Query()
	f := store.DeviceFilter{Search: q.Get("search")}
	if v := q.Get("status"); v != "" {
		status := model.DeviceStatus(v)
		f.Status = &status
	}
	if v := q.Get("siteId"); v != "" {
		f.SiteID = &v
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}
	devices, total, err := s.deps.Store.ListDevices(r.Context(), tenantID, f)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "total": total})
}

type updateDeviceRequest struct {
	SiteID      *string             `json:"siteId"`
	OwnerUserID *string             `json:"ownerUserId"`
	Name        *string             `json:"name"`
	Notes       *string             `json:"notes"`
	Tags        model.Map           `json:"tags"`
	Status      *model.DeviceStatus `json:"status" validate:"omitempty,oneof=PROVISIONED INSTALLED ACTIVE SUSPENDED RETIRED"`
	SimICCID    *string             `json:"simIccid"`
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req updateDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	deviceID := chi.URLParam(r, "deviceID")
	device, err := s.deps.Store.UpdateDevice(r.Context(), tenantID, deviceID, store.DeviceUpdate{
		SiteID:      req.SiteID,
		OwnerUserID: req.OwnerUserID,
		Name:        req.Name,
		Notes:       req.Notes,
		Tags:        req.Tags,
		Status:      req.Status,
		SimICCID:    req.SimICCID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("device"))
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
		Action:      model.AuditDeviceUpdated,
		EntityType:  "device",
		EntityID:    device.ID,
	})
	writeJSON(w, http.StatusOK, device)
}

func (s *Server) handleGetTwin(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	deviceID := chi.URLParam(r, "deviceID")
	if _, err := s.deps.Store.GetDevice(r.Context(), tenantID, deviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("device"))
			return
		}
		apierror.Write(w, err)
		return
	}
	twin, err := s.deps.Store.GetDeviceTwin(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("device twin"))
			return
		}
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, twin)
}

// handleMapDevices returns lightweight markers for every located device of
// the tenant inside the bbox=minLon,minLat,maxLon,maxLat viewport.
func (s *Server) handleMapDevices(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	parts := strings.Split(r.URL.Query().Get("bbox"), ",")
	if len(parts) != 4 {
		apierror.Write(w, apierror.Validation("bbox must be minLon,minLat,maxLon,maxLat"))
		return
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			apierror.Write(w, apierror.Validation("bbox must be minLon,minLat,maxLon,maxLat"))
			return
		}
	}
	minLon, minLat, maxLon, maxLat := vals[0], vals[1], vals[2], vals[3]
	if minLon >= maxLon || minLat >= maxLat {
		apierror.Write(w, apierror.Validation("bbox min bounds must be below max bounds"))
		return
	}
	markers, err := s.deps.Store.ListDevicesInBBox(r.Context(), tenantID, minLon, minLat, maxLon, maxLat)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	if markers == nil {
		markers = []store.DeviceMarker{}
	}
	writeJSON(w, http.StatusOK, markers)
}
