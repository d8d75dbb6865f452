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
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

type staticMemberships map[string][]model.Membership

func (m staticMemberships) ListMemberships(_ context.Context, userID string) ([]model.Membership, error) {
	return m[userID], nil
}

func testGuard(t *testing.T, memberships staticMemberships) (*Guard, *TokenManager, *DeviceTokenizer) {
	t.Helper()
	tokens := NewTokenManager("test-jwt", time.Hour)
	devices := NewDeviceTokenizer("test-hmac")
	return NewGuard(tokens, devices, memberships), tokens, devices
}

func doRequest(handler http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestRequireUser(t *testing.T) {
	guard, tokens, _ := testGuard(t, staticMemberships{
		"user-1": {{UserID: "user-1", TenantID: "tenant-a", Role: model.RoleTenantAdmin}},
	})
	token, err := tokens.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	var seen *Principal
	h := guard.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFrom(r.Context())
	}))

	if w := doRequest(h, http.MethodGet, "/", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	if w := doRequest(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer garbage"}); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
	if w := doRequest(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + token}); w.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", w.Code)
	}
	if seen == nil || seen.UserID != "user-1" || len(seen.Memberships) != 1 {
		t.Errorf("principal = %+v, want user-1 with one membership", seen)
	}
}

func TestResolveTenant(t *testing.T) {
	guard, tokens, _ := testGuard(t, staticMemberships{
		"member": {{UserID: "member", TenantID: "tenant-b", Role: model.RoleEndUser}},
		"admin":  {{UserID: "admin", TenantID: "root", Role: model.RolePlatformAdmin}},
	})

	var resolved string
	h := guard.RequireUser(guard.ResolveTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved = TenantIDFrom(r.Context())
	})))

	bearer := func(user string) map[string]string {
		token, err := tokens.Issue(user, user+"@example.com")
		if err != nil {
			t.Fatal(err)
		}
		return map[string]string{"Authorization": "Bearer " + token}
	}

	// A member naming a foreign tenant is rejected before any data access.
	headers := bearer("member")
	headers["x-tenant-id"] = "tenant-a"
	if w := doRequest(h, http.MethodGet, "/", headers); w.Code != http.StatusForbidden {
		t.Errorf("foreign tenant: status = %d, want 403", w.Code)
	}

	headers = bearer("member")
	headers["x-tenant-id"] = "tenant-b"
	if w := doRequest(h, http.MethodGet, "/", headers); w.Code != http.StatusOK {
		t.Errorf("own tenant: status = %d, want 200", w.Code)
	}
	if resolved != "tenant-b" {
		t.Errorf("resolved tenant = %q, want tenant-b", resolved)
	}

	// Members must name a tenant.
	if w := doRequest(h, http.MethodGet, "/", bearer("member")); w.Code != http.StatusForbidden {
		t.Errorf("missing tenant: status = %d, want 403", w.Code)
	}

	// Platform admins may target any tenant, or none.
	headers = bearer("admin")
	headers["x-tenant-id"] = "tenant-a"
	if w := doRequest(h, http.MethodGet, "/", headers); w.Code != http.StatusOK {
		t.Errorf("admin foreign tenant: status = %d, want 200", w.Code)
	}
	if w := doRequest(h, http.MethodGet, "/", bearer("admin")); w.Code != http.StatusOK {
		t.Errorf("admin global: status = %d, want 200", w.Code)
	}
}

func TestResolveTenantPriority(t *testing.T) {
	guard, tokens, _ := testGuard(t, staticMemberships{
		"admin": {{UserID: "admin", TenantID: "root", Role: model.RolePlatformAdmin}},
	})
	token, err := tokens.Issue("admin", "admin@example.com")
	if err != nil {
		t.Fatal(err)
	}

	var resolved string
	r := chi.NewRouter()
	r.With(guard.RequireUser, guard.ResolveTenant).
		Get("/tenants/{tenantID}/x", func(w http.ResponseWriter, r *http.Request) {
			resolved = TenantIDFrom(r.Context())
		})

	// Path parameter outranks the header, which outranks the query value.
	w := doRequest(r, http.MethodGet, "/tenants/from-path/x?tenantId=from-query",
		map[string]string{"Authorization": "Bearer " + token, "x-tenant-id": "from-header"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resolved != "from-path" {
		t.Errorf("resolved = %q, want from-path", resolved)
	}
}

func TestRequireRole(t *testing.T) {
	guard, tokens, _ := testGuard(t, staticMemberships{
		"installer": {{UserID: "installer", TenantID: "tenant-a", Role: model.RoleInstaller}},
		"enduser":   {{UserID: "enduser", TenantID: "tenant-a", Role: model.RoleEndUser}},
	})

	h := guard.RequireUser(guard.ResolveTenant(
		guard.RequireRole(model.RoleTenantAdmin, model.RoleInstaller)(
			http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))))

	call := func(user string) int {
		token, err := tokens.Issue(user, user+"@example.com")
		if err != nil {
			t.Fatal(err)
		}
		w := doRequest(h, http.MethodGet, "/", map[string]string{
			"Authorization": "Bearer " + token,
			"x-tenant-id":   "tenant-a",
		})
		return w.Code
	}

	if code := call("installer"); code != http.StatusOK {
		t.Errorf("installer: status = %d, want 200", code)
	}
	if code := call("enduser"); code != http.StatusForbidden {
		t.Errorf("end user: status = %d, want 403", code)
	}
}

func TestRequireSelfDevice(t *testing.T) {
	guard, _, devices := testGuard(t, nil)

	r := chi.NewRouter()
	r.With(guard.RequireDevice, RequireSelfDevice("deviceID")).
		Get("/devices/{deviceID}/pending", func(http.ResponseWriter, *http.Request) {})

	token := devices.Mint("dev-1")
	if w := doRequest(r, http.MethodGet, "/devices/dev-1/pending",
		map[string]string{"Authorization": "Bearer " + token}); w.Code != http.StatusOK {
		t.Errorf("own id: status = %d, want 200", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/devices/dev-2/pending",
		map[string]string{"Authorization": "Bearer " + token}); w.Code != http.StatusForbidden {
		t.Errorf("foreign id: status = %d, want 403", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/devices/dev-1/pending", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
}
