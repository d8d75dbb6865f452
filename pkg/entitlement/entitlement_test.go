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

package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// rowKey mirrors the (tenant, key, device) uniqueness of stored rows.
type rowKey struct {
	tenant string
	key    model.FeatureKey
	device string
}

type staticRows map[rowKey]bool

func (s staticRows) GetEntitlement(_ context.Context, tenantID string, key model.FeatureKey, deviceID *string) (*model.Entitlement, error) {
	device := ""
	if deviceID != nil {
		device = *deviceID
	}
	enabled, ok := s[rowKey{tenantID, key, device}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &model.Entitlement{TenantID: tenantID, Key: key, DeviceID: deviceID, Enabled: enabled}, nil
}

func TestCheckPrecedence(t *testing.T) {
	dev := "dev-1"
	for _, tc := range []struct {
		name    string
		rows    staticRows
		device  *string
		key     model.FeatureKey
		enabled bool
	}{
		{
			name:    "no rows falls back to default true",
			rows:    staticRows{},
			device:  &dev,
			key:     model.FeatureBasicRemoteBoost,
			enabled: true,
		},
		{
			name:    "no rows falls back to default false",
			rows:    staticRows{},
			device:  &dev,
			key:     model.FeatureSmartHomeIntegration,
			enabled: false,
		},
		{
			name: "tenant row overrides default",
			rows: staticRows{
				{"t1", model.FeatureBasicRemoteBoost, ""}: false,
			},
			device:  &dev,
			key:     model.FeatureBasicRemoteBoost,
			enabled: false,
		},
		{
			name: "device row overrides tenant row",
			rows: staticRows{
				{"t1", model.FeatureBasicRemoteBoost, ""}:      false,
				{"t1", model.FeatureBasicRemoteBoost, "dev-1"}: true,
			},
			device:  &dev,
			key:     model.FeatureBasicRemoteBoost,
			enabled: true,
		},
		{
			name: "nil device skips device rows",
			rows: staticRows{
				{"t1", model.FeatureBasicRemoteBoost, "dev-1"}: false,
			},
			device:  nil,
			key:     model.FeatureBasicRemoteBoost,
			enabled: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewResolver(tc.rows).Check(context.Background(), "t1", tc.key, tc.device)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got != tc.enabled {
				t.Errorf("Check = %v, want %v", got, tc.enabled)
			}
		})
	}
}

func TestGate(t *testing.T) {
	dev := "dev-1"
	r := NewResolver(staticRows{
		{"t1", model.FeatureBasicRemoteBoost, "dev-1"}: false,
	})

	err := r.Gate(context.Background(), "t1", model.FeatureBasicRemoteBoost, &dev)
	var ae *apierror.Error
	if !errors.As(err, &ae) || ae.Code != apierror.CodeFeatureDisabled {
		t.Fatalf("Gate(disabled) = %v, want FEATURE_DISABLED", err)
	}

	if err := r.Gate(context.Background(), "t1", model.FeatureBasicRemoteBoost, nil); err != nil {
		t.Errorf("Gate(enabled by default) = %v, want nil", err)
	}
}
