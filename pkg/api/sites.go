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
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

type createSiteRequest struct {
	Name         string   `json:"name" validate:"required"`
	AddressLine  *string  `json:"addressLine"`
	City         *string  `json:"city"`
	PostalCode   *string  `json:"postalCode"`
	Country      *string  `json:"country"`
	Lat          *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon          *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	LocationLock bool     `json:"locationLock"`
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req createSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		apierror.Write(w, apierror.Validation("lat and lon must be provided together"))
		return
	}
	p := principal(r)
	site := &model.Site{
		TenantID:     tenantID,
		Name:         req.Name,
		AddressLine:  req.AddressLine,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Lat:          req.Lat,
		Lon:          req.Lon,
		LocationLock: req.LocationLock,
	}
	if req.Lat != nil {
		src := model.LocationManual
		now := time.Now().UTC()
		site.LocationSource = &src
		site.LocationUpdatedAt = &now
		site.LocationUpdatedBy = &p.UserID
	}
	created, err := s.deps.Store.CreateSite(r.Context(), site)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	sites, err := s.deps.Store.ListSites(r.Context(), tenantID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

type siteLocationRequest struct {
	Lat         *float64             `json:"lat" validate:"required,min=-90,max=90"`
	Lon         *float64             `json:"lon" validate:"required,min=-180,max=180"`
	Source      model.LocationSource `json:"source" validate:"required,oneof=MOBILE_GPS EDGE_GNSS EDGE_CELL MANUAL"`
	AccuracyM   *float64             `json:"accuracyM" validate:"omitempty,min=0"`
	Lock        *bool                `json:"lock"`
	AddressLine *string              `json:"addressLine"`
}

// handleUpdateSiteLocation applies a user-driven location edit. END_USER
// callers must own a device installed on the site.
func (s *Server) handleUpdateSiteLocation(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	siteID := chi.URLParam(r, "siteID")
	p := principal(r)
	if !p.IsPlatformAdmin() {
		if role, _ := p.RoleIn(tenantID); role == model.RoleEndUser {
			owns, oerr := s.deps.Store.UserOwnsDeviceOnSite(r.Context(), p.UserID, siteID)
			if oerr != nil {
				apierror.Write(w, oerr)
				return
			}
			if !owns {
				apierror.Write(w, apierror.Forbidden("no owned device on site"))
				return
			}
		}
	}

	var req siteLocationRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	site, err := s.deps.Store.UpdateSiteLocation(r.Context(), tenantID, siteID, store.SiteLocationUpdate{
		Lat:         *req.Lat,
		Lon:         *req.Lon,
		Source:      req.Source,
		AccuracyM:   req.AccuracyM,
		Lock:        req.Lock,
		AddressLine: req.AddressLine,
		UpdatedBy:   p.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("site"))
			return
		}
		apierror.Write(w, err)
		return
	}
	s.deps.Audit.Record(r.Context(), audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &p.UserID,
		ActorType:   model.ActorUser,
		Action:      model.AuditSiteLocationUpdated,
		EntityType:  "site",
		EntityID:    site.ID,
		Metadata:    model.Map{"lat": *req.Lat, "lon": *req.Lon, "source": string(req.Source)},
	})
	writeJSON(w, http.StatusOK, site)
}

// handleSiteWeather returns the stored daily weather for a site, newest
// first, defaulting to the trailing 30 days.
func (s *Server) handleSiteWeather(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	siteID := chi.URLParam(r, "siteID")
	if _, err := s.deps.Store.GetSite(r.Context(), tenantID, siteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("site"))
			return
		}
		apierror.Write(w, err)
		return
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			apierror.Write(w, apierror.Validation("from must be YYYY-MM-DD"))
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			apierror.Write(w, apierror.Validation("to must be YYYY-MM-DD"))
			return
		}
	}
	data, err := s.deps.Store.ListWeatherData(r.Context(), siteID, from, to)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
