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

// Package entitlement resolves feature flags with device-over-tenant
// precedence and gates feature-level operations.
package entitlement

import (
	"context"
	"errors"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// defaults is the fallback table applied when no row matches.
var defaults = map[model.FeatureKey]bool{
	model.FeatureBasicRemoteBoost:     true,
	model.FeatureSmartHomeIntegration: false,
}

// Source reads entitlement rows. The store satisfies it.
type Source interface {
	GetEntitlement(ctx context.Context, tenantID string, key model.FeatureKey, deviceID *string) (*model.Entitlement, error)
}

// Resolver answers entitlement checks. Resolution is a pure function of the
// stored rows plus the default table.
type Resolver struct {
	src Source
}

// NewResolver builds a resolver over the given row source.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Check resolves (tenant, key, device?): a scope-DEVICE row wins, then a
// scope-TENANT row, then the default table.
func (r *Resolver) Check(ctx context.Context, tenantID string, key model.FeatureKey, deviceID *string) (bool, error) {
	if deviceID != nil {
		e, err := r.src.GetEntitlement(ctx, tenantID, key, deviceID)
		switch {
		case err == nil:
			return e.Enabled, nil
		case !errors.Is(err, store.ErrNotFound):
			return false, err
		}
	}
	e, err := r.src.GetEntitlement(ctx, tenantID, key, nil)
	switch {
	case err == nil:
		return e.Enabled, nil
	case !errors.Is(err, store.ErrNotFound):
		return false, err
	}
	return defaults[key], nil
}

// Gate short-circuits a gated operation: a false resolution fails with
// FEATURE_DISABLED.
func (r *Resolver) Gate(ctx context.Context, tenantID string, key model.FeatureKey, deviceID *string) error {
	enabled, err := r.Check(ctx, tenantID, key, deviceID)
	if err != nil {
		return err
	}
	if !enabled {
		return apierror.FeatureDisabled(string(key))
	}
	return nil
}
