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
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// MembershipLoader loads the tenant/role pairs of a verified user. The store
// satisfies it.
type MembershipLoader interface {
	ListMemberships(ctx context.Context, userID string) ([]model.Membership, error)
}

// Guard bundles the verifiers and the membership source for the middleware
// chain.
type Guard struct {
	tokens      *TokenManager
	deviceToken *DeviceTokenizer
	memberships MembershipLoader
}

// NewGuard wires the identity guard.
func NewGuard(tokens *TokenManager, deviceToken *DeviceTokenizer, memberships MembershipLoader) *Guard {
	return &Guard{tokens: tokens, deviceToken: deviceToken, memberships: memberships}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// RequireUser verifies the bearer credential, loads memberships and stores
// the principal on the context. Absent or invalid credentials fail
// UNAUTHORIZED.
func (g *Guard) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apierror.Write(w, apierror.Unauthorized("missing bearer token"))
			return
		}
		claims, err := g.tokens.Verify(token)
		if err != nil {
			apierror.Write(w, apierror.Unauthorized("invalid bearer token"))
			return
		}
		ms, err := g.memberships.ListMemberships(r.Context(), claims.UserID)
		if err != nil {
			apierror.Write(w, apierror.Internal(err))
			return
		}
		p := &Principal{UserID: claims.UserID, Email: claims.Email, Memberships: ms}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireDevice verifies the device MAC token and marks the request as
// device-authenticated.
func (g *Guard) RequireDevice(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apierror.Write(w, apierror.Unauthorized("missing device token"))
			return
		}
		deviceID, err := g.deviceToken.Verify(token)
		if err != nil {
			apierror.Write(w, apierror.Unauthorized("invalid device token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithDeviceID(r.Context(), deviceID)))
	})
}

// resolveTenantID picks the active tenant in priority order: URL path
// parameter, x-tenant-id header, tenantId query value.
func resolveTenantID(r *http.Request) string {
	if id := chi.URLParam(r, "tenantID"); id != "" {
		return id
	}
	if id := r.Header.Get("x-tenant-id"); id != "" {
		return id
	}
	return r.URL.Query().Get("tenantId")
}

// ResolveTenant enforces tenancy for user requests. Platform admins may act
// without a tenant (global view) or target any tenant; everyone else must
// name a tenant they hold a membership in.
func (g *Guard) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		if !ok {
			apierror.Write(w, apierror.Unauthorized("missing user identity"))
			return
		}
		tenantID := resolveTenantID(r)
		if p.IsPlatformAdmin() {
			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
			return
		}
		if tenantID == "" {
			apierror.Write(w, apierror.Forbidden("tenant context required"))
			return
		}
		if _, ok := p.RoleIn(tenantID); !ok {
			apierror.Write(w, apierror.Forbidden("no membership in tenant"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
	})
}

// RequireRole passes if the acting member's role in the active tenant is in
// the set, or the user is a platform admin.
func (g *Guard) RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				apierror.Write(w, apierror.Unauthorized("missing user identity"))
				return
			}
			if p.IsPlatformAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := p.RoleIn(TenantIDFrom(r.Context()))
			if !ok || !allowed[role] {
				apierror.Write(w, apierror.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSelfDevice ensures the device id in the URL matches the token's
// proven device id. Any mismatch is FORBIDDEN.
func RequireSelfDevice(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, ok := DeviceIDFrom(r.Context())
			if !ok {
				apierror.Write(w, apierror.Unauthorized("missing device identity"))
				return
			}
			if chi.URLParam(r, param) != deviceID {
				apierror.Write(w, apierror.Forbidden("device id mismatch"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
