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

// Package ingest implements the device telemetry path: validation, the
// transactional persistence fan-out onto device, twin and site, and audit
// emission.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// geoJumpThresholdKm is the great-circle distance beyond which a device fix
// is flagged as a large jump instead of applied.
const geoJumpThresholdKm = 1.0

var (
	readingsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_ingest_readings_total",
		Help: "Number of telemetry readings accepted.",
	})
	readingWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_ingest_warnings_total",
		Help: "Number of out-of-range metric warnings attached to accepted readings.",
	})
)

// Geo is a device-reported coordinate fix.
type Geo struct {
	Lat       float64              `json:"lat"`
	Lon       float64              `json:"lon"`
	AccuracyM *float64             `json:"accuracyM,omitempty"`
	Source    model.LocationSource `json:"source"`
}

// Reading is the ingest payload.
type Reading struct {
	DeviceID string    `json:"deviceId"`
	TS       time.Time `json:"ts"`
	Metrics  model.Map `json:"metrics"`
	Geo      *Geo      `json:"geo,omitempty"`
}

// Result is the ingest response.
type Result struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// Ingestor is the telemetry ingestion service.
type Ingestor struct {
	logger log.Logger
	store  *store.Store
	audit  *audit.Sink
}

// New wires the ingestor.
func New(logger log.Logger, reg prometheus.Registerer, st *store.Store, sink *audit.Sink) *Ingestor {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if reg != nil {
		reg.MustRegister(readingsIngested, readingWarnings)
	}
	return &Ingestor{logger: logger, store: st, audit: sink}
}

// Ingest validates and persists one reading for the authenticated device.
// The telemetry row, device last-seen, twin and site reconciliation commit
// as one transaction; audit records are emitted best-effort afterwards.
func (i *Ingestor) Ingest(ctx context.Context, authDeviceID string, r Reading) (*Result, error) {
	if r.DeviceID == "" || r.DeviceID != authDeviceID {
		return nil, apierror.Validation("payload deviceId does not match authenticated device")
	}
	if r.TS.IsZero() {
		return nil, apierror.Validation("missing reading timestamp")
	}

	device, err := i.store.GetDeviceByID(ctx, r.DeviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("device")
		}
		return nil, err
	}

	warnings := validateMetrics(r.Metrics)

	var (
		rowID   string
		pending []audit.Entry
	)
	err = i.store.WithTx(ctx, func(tx *store.Tx) error {
		row := &model.Telemetry{
			DeviceID: device.ID,
			TenantID: device.TenantID,
			TS:       r.TS,
			Metrics:  r.Metrics,
		}
		if r.Geo != nil {
			row.GeoLat, row.GeoLon = &r.Geo.Lat, &r.Geo.Lon
			row.GeoAccM = r.Geo.AccuracyM
			src := r.Geo.Source
			row.GeoSource = &src
		}
		inserted, err := tx.AppendTelemetry(ctx, row)
		if err != nil {
			return err
		}
		rowID = inserted.ID

		if err := tx.TouchDeviceSeen(ctx, device.ID, r.TS, row.GeoLat, row.GeoLon, row.GeoAccM, row.GeoSource); err != nil {
			return err
		}

		var prior model.Map
		if twin, err := tx.GetDeviceTwin(ctx, device.ID); err == nil {
			prior = twin.DerivedState
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.UpsertDeviceTwin(ctx, device.ID, r.TS, deriveState(prior, r.Metrics, r.Geo)); err != nil {
			return err
		}

		if device.SiteID != nil && r.Geo != nil {
			entries, err := i.reconcileSite(ctx, tx, device, r.Geo)
			if err != nil {
				return err
			}
			pending = append(pending, entries...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range pending {
		i.audit.Record(ctx, e)
	}

	readingsIngested.Inc()
	readingWarnings.Add(float64(len(warnings)))
	if len(warnings) > 0 {
		level.Debug(i.logger).Log("msg", "reading accepted with warnings", "device", device.ID, "warnings", len(warnings))
	}
	return &Result{ID: rowID, Warnings: warnings}, nil
}

// reconcileSite applies the site geolocation policy: fill an unlocked site
// that has no latitude yet, and flag fixes more than a kilometer from the
// recorded site position without moving it.
func (i *Ingestor) reconcileSite(ctx context.Context, tx *store.Tx, device *model.Device, geo *Geo) ([]audit.Entry, error) {
	site, err := tx.GetSiteByID(ctx, *device.SiteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !site.LocationLock && site.Lat == nil {
		if err := tx.SetSiteLocationFromDevice(ctx, site.ID, geo.Lat, geo.Lon, geo.Source, geo.AccuracyM); err != nil {
			return nil, err
		}
		return []audit.Entry{{
			TenantID:   &device.TenantID,
			ActorType:  model.ActorDevice,
			Action:     model.AuditSiteLocationSetFromDevice,
			EntityType: "site",
			EntityID:   site.ID,
			Metadata: model.Map{
				"deviceId": device.ID,
				"lat":      geo.Lat,
				"lon":      geo.Lon,
				"source":   string(geo.Source),
			},
		}}, nil
	}

	if site.Lat != nil && site.Lon != nil {
		dist := haversineKm(*site.Lat, *site.Lon, geo.Lat, geo.Lon)
		if dist > geoJumpThresholdKm {
			return []audit.Entry{{
				TenantID:   &device.TenantID,
				ActorType:  model.ActorDevice,
				Action:     model.AuditDeviceGeoLargeJump,
				EntityType: "device",
				EntityID:   device.ID,
				Metadata: model.Map{
					"siteId":     site.ID,
					"siteLat":    *site.Lat,
					"siteLon":    *site.Lon,
					"deviceLat":  geo.Lat,
					"deviceLon":  geo.Lon,
					"distanceKm": dist,
				},
			}}, nil
		}
	}
	return nil, nil
}
