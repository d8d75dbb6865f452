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

package auth

import (
	"context"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// Principal is the verified human identity with its loaded memberships.
type Principal struct {
	UserID      string
	Email       string
	Memberships []model.Membership
}

// IsPlatformAdmin reports whether any membership carries PLATFORM_ADMIN.
func (p *Principal) IsPlatformAdmin() bool {
	for _, m := range p.Memberships {
		if m.Role == model.RolePlatformAdmin {
			return true
		}
	}
	return false
}

// RoleIn returns the principal's role in the given tenant.
func (p *Principal) RoleIn(tenantID string) (model.Role, bool) {
	for _, m := range p.Memberships {
		if m.TenantID == tenantID {
			return m.Role, true
		}
	}
	return "", false
}

type ctxKey int

const (
	principalKey ctxKey = iota
	deviceKey
	tenantKey
)

// WithPrincipal stores the verified user identity on the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the verified user identity, if the request was
// user-authenticated.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// WithDeviceID marks the request as device-authenticated for the given id.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceKey, deviceID)
}

// DeviceIDFrom returns the proven device id, if the request was
// device-authenticated.
func DeviceIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceKey).(string)
	return id, ok
}

// WithTenantID stores the resolved active tenant on the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// TenantIDFrom returns the active tenant id. Empty for platform admins
// acting globally.
func TenantIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(tenantKey).(string)
	return id
}
