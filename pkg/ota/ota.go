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

// Package ota coordinates firmware rollouts: the global catalog, scheduled
// jobs, device pull and progress reporting.
package ota

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// Coordinator is the OTA service.
type Coordinator struct {
	logger log.Logger
	store  *store.Store
	audit  *audit.Sink
}

// New wires the coordinator.
func New(logger log.Logger, st *store.Store, sink *audit.Sink) *Coordinator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Coordinator{logger: logger, store: st, audit: sink}
}

// RegisterFirmware adds a version to the global catalog. Versions are
// globally unique.
func (c *Coordinator) RegisterFirmware(ctx context.Context, version, url, checksum string, releaseNotes *string) (*model.FirmwarePackage, error) {
	if version == "" || url == "" || checksum == "" {
		return nil, apierror.Validation("version, url and checksum are required")
	}
	f, err := c.store.CreateFirmwarePackage(ctx, &model.FirmwarePackage{
		Version:      version,
		URL:          url,
		Checksum:     checksum,
		ReleaseNotes: releaseNotes,
	})
	if err != nil {
		if store.IsConflict(err) {
			return nil, apierror.Conflict("firmware version already exists")
		}
		return nil, err
	}
	return f, nil
}

// ListFirmware returns the catalog.
func (c *Coordinator) ListFirmware(ctx context.Context) ([]model.FirmwarePackage, error) {
	return c.store.ListFirmwarePackages(ctx)
}

// JobRequest describes a rollout to schedule.
type JobRequest struct {
	TargetType  model.OtaTargetType
	DeviceID    *string
	GroupFilter model.Map
	FirmwareID  string
	ScheduledAt time.Time
}

// ScheduleJob creates a SCHEDULED rollout for the tenant.
func (c *Coordinator) ScheduleJob(ctx context.Context, tenantID, requestedBy string, req JobRequest) (*model.OtaJob, error) {
	switch req.TargetType {
	case model.OtaTargetDevice:
		if req.DeviceID == nil {
			return nil, apierror.Validation("deviceId is required for DEVICE targets")
		}
		if _, err := c.store.GetDevice(ctx, tenantID, *req.DeviceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apierror.NotFound("device")
			}
			return nil, err
		}
	case model.OtaTargetGroup:
		if req.GroupFilter == nil {
			return nil, apierror.Validation("groupFilter is required for GROUP targets")
		}
	default:
		return nil, apierror.Validation("targetType must be DEVICE or GROUP")
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, apierror.Validation("scheduledAt must be in the future")
	}
	if _, err := c.store.GetFirmwarePackage(ctx, req.FirmwareID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("firmware package")
		}
		return nil, err
	}

	job, err := c.store.CreateOtaJob(ctx, &model.OtaJob{
		TenantID:    tenantID,
		TargetType:  req.TargetType,
		DeviceID:    req.DeviceID,
		GroupFilter: req.GroupFilter,
		FirmwareID:  req.FirmwareID,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		return nil, err
	}
	c.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &requestedBy,
		ActorType:   model.ActorUser,
		Action:      model.AuditOtaJobScheduled,
		EntityType:  "ota_job",
		EntityID:    job.ID,
		Metadata:    model.Map{"firmwareId": req.FirmwareID, "targetType": string(req.TargetType)},
	})
	return job, nil
}

// NextForDevice returns the earliest live job addressing the authenticated
// device, or nil when none is pending.
func (c *Coordinator) NextForDevice(ctx context.Context, deviceID string) (*model.OtaJob, error) {
	device, err := c.store.GetDeviceByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("device")
		}
		return nil, err
	}
	job, err := c.store.NextOtaJobForDevice(ctx, device.TenantID, device.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// Report applies a device progress report. SUCCESS also stamps the firmware
// version onto the reporting device.
func (c *Coordinator) Report(ctx context.Context, deviceID, jobID string, status model.OtaStatus, progress model.Map, errorMsg *string) (*model.OtaJob, error) {
	device, err := c.store.GetDeviceByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("device")
		}
		return nil, err
	}
	job, err := c.store.GetOtaJob(ctx, device.TenantID, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("ota job")
		}
		return nil, err
	}
	// A DEVICE-target job only accepts reports from the device it addresses.
	if job.TargetType == model.OtaTargetDevice && (job.DeviceID == nil || *job.DeviceID != device.ID) {
		return nil, apierror.NotFound("ota job")
	}
	if job.Status == model.OtaSuccess || job.Status == model.OtaFailed || job.Status == model.OtaCanceled {
		return nil, apierror.Conflict("ota job already finished")
	}

	switch status {
	case model.OtaInProgress:
		if job.Status == model.OtaScheduled {
			return c.store.StartOtaJob(ctx, job.ID, progress)
		}
		return c.store.UpdateOtaJobProgress(ctx, job.ID, progress)

	case model.OtaSuccess, model.OtaFailed:
		finished, err := c.store.FinishOtaJob(ctx, job.ID, status, progress, errorMsg)
		if err != nil {
			// The guarded update matches nothing when a cancel won the race.
			if errors.Is(err, store.ErrNotFound) {
				return nil, apierror.Conflict("ota job already finished")
			}
			return nil, err
		}
		if status == model.OtaSuccess {
			firmware, err := c.store.GetFirmwarePackage(ctx, job.FirmwareID)
			if err != nil {
				return nil, err
			}
			if err := c.store.SetDeviceFirmwareVersion(ctx, device.ID, firmware.Version); err != nil {
				return nil, err
			}
			level.Info(c.logger).Log("msg", "device firmware updated", "device", device.ID, "version", firmware.Version)
		}
		return finished, nil
	}
	return nil, apierror.Validation("report status must be IN_PROGRESS, SUCCESS or FAILED")
}

// Cancel is the administrative terminal transition.
func (c *Coordinator) Cancel(ctx context.Context, tenantID, jobID, canceledBy string) (*model.OtaJob, error) {
	job, err := c.store.CancelOtaJob(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierror.NotFound("ota job")
		}
		return nil, err
	}
	c.audit.Record(ctx, audit.Entry{
		TenantID:    &tenantID,
		ActorUserID: &canceledBy,
		ActorType:   model.ActorUser,
		Action:      model.AuditOtaJobCanceled,
		EntityType:  "ota_job",
		EntityID:    job.ID,
	})
	return job, nil
}
