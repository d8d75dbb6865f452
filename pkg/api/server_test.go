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
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/command"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/entitlement"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ingest"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/ota"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// loaderFunc adapts a map of canned memberships to auth.MembershipLoader so
// handler tests do not hit the database for identity resolution.
type loaderFunc map[string][]model.Membership

func (l loaderFunc) ListMemberships(_ context.Context, userID string) ([]model.Membership, error) {
	return l[userID], nil
}

type fixture struct {
	handler      http.Handler
	mock         sqlmock.Sqlmock
	tokens       *auth.TokenManager
	deviceTokens *auth.DeviceTokenizer
}

func newFixture(t *testing.T, memberships loaderFunc) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	st := store.New(nil, sqlx.NewDb(db, "postgres"))
	tokens := auth.NewTokenManager("test-signing-secret", time.Hour)
	deviceTokens := auth.NewDeviceTokenizer("test-device-secret")
	sink := audit.NewSink(nil, st)
	ent := entitlement.NewResolver(st)

	srv := NewServer(nil, nil, Deps{
		Store:        st,
		Tokens:       tokens,
		DeviceTokens: deviceTokens,
		Guard:        auth.NewGuard(tokens, deviceTokens, memberships),
		Entitlements: ent,
		Ingestor:     ingest.New(nil, nil, st, sink),
		Commands:     command.New(nil, nil, st, ent, sink),
		OTA:          ota.New(nil, st, sink),
		Audit:        sink,
	})
	return &fixture{handler: srv.Routes(), mock: mock, tokens: tokens, deviceTokens: deviceTokens}
}

func (f *fixture) bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.tokens.Issue(userID, userID+"@example.com")
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *fixture) do(t *testing.T, method, target, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if authz != "" {
		r.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "body: %s", w.Body.String())
	return envelope.Error.Code
}

func TestListDevicesRequiresAuth(t *testing.T) {
	f := newFixture(t, loaderFunc{})

	w := f.do(t, http.MethodGet, "/api/devices", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", errCode(t, w))
}

// A member of tenant-a must not read tenant-b, and a foreign tenant id never
// reaches the database.
func TestListDevicesTenantIsolation(t *testing.T) {
	f := newFixture(t, loaderFunc{
		"user-1": {{UserID: "user-1", TenantID: "tenant-a", Role: model.RoleTenantAdmin}},
	})
	authz := f.bearer(t, "user-1")

	w := f.do(t, http.MethodGet, "/api/devices?tenantId=tenant-b", authz, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "FORBIDDEN", errCode(t, w))

	now := time.Now().UTC()
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM devices`).
		WithArgs("tenant-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	f.mock.ExpectQuery(`SELECT \* FROM devices`).
		WithArgs("tenant-a", 100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "serial_number", "model", "status", "tags", "created_at", "updated_at"}).
			AddRow("dev-1", "tenant-a", "SN-001", "SWH-200", "ACTIVE", []byte(`{}`), now, now))

	w = f.do(t, http.MethodGet, "/api/devices?tenantId=tenant-a", authz, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Devices []model.Device `json:"devices"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	require.Len(t, resp.Devices, 1)
	require.Equal(t, "tenant-a", resp.Devices[0].TenantID)
}

func TestCreateSiteRequiresFieldRole(t *testing.T) {
	f := newFixture(t, loaderFunc{
		"user-1": {{UserID: "user-1", TenantID: "tenant-a", Role: model.RoleEndUser}},
	})

	w := f.do(t, http.MethodPost, "/api/sites?tenantId=tenant-a", f.bearer(t, "user-1"),
		`{"name": "Rooftop A"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "FORBIDDEN", errCode(t, w))
}

func TestMapDevicesRejectsMalformedBBox(t *testing.T) {
	f := newFixture(t, loaderFunc{
		"user-1": {{UserID: "user-1", TenantID: "tenant-a", Role: model.RoleTenantAdmin}},
	})
	authz := f.bearer(t, "user-1")

	for _, bbox := range []string{"", "1,2,3", "a,b,c,d", "10,10,5,20"} {
		w := f.do(t, http.MethodGet, "/api/map/devices?tenantId=tenant-a&bbox="+bbox, authz, "")
		require.Equal(t, http.StatusBadRequest, w.Code, "bbox %q", bbox)
		require.Equal(t, "VALIDATION_ERROR", errCode(t, w))
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t, loaderFunc{})

	f.mock.ExpectQuery(`SELECT \* FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	w := f.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email": "nobody@example.com", "password": "whatever123"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", errCode(t, w))
}

// A device token only opens the device's own queue; any other device id in
// the path is rejected before the handler runs.
func TestPollCommandsPinsDeviceIdentity(t *testing.T) {
	f := newFixture(t, loaderFunc{})
	authz := "Bearer " + f.deviceTokens.Mint("dev-1")

	w := f.do(t, http.MethodGet, "/api/devices/dev-2/commands/pending", authz, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "FORBIDDEN", errCode(t, w))

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`SELECT \* FROM commands`).
		WithArgs("dev-1", model.CommandQueued).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	f.mock.ExpectCommit()

	w = f.do(t, http.MethodGet, "/api/devices/dev-1/commands/pending", authz, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestPollCommandsRejectsUserToken(t *testing.T) {
	f := newFixture(t, loaderFunc{
		"user-1": {{UserID: "user-1", TenantID: "tenant-a", Role: model.RoleTenantAdmin}},
	})

	w := f.do(t, http.MethodGet, "/api/devices/dev-1/commands/pending", f.bearer(t, "user-1"), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, loaderFunc{})

	w := f.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status": "ok", "db": "up"}`, w.Body.String())
}
