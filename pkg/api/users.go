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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/apierror"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/audit"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/auth"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	user, err := s.deps.Store.CreateUser(r.Context(), req.Email, req.Name, hash, model.UserActive)
	if err != nil {
		if store.IsConflict(err) {
			apierror.Write(w, apierror.Conflict("email already registered"))
			return
		}
		apierror.Write(w, err)
		return
	}
	token, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	user, err := s.deps.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.Unauthorized("invalid credentials"))
			return
		}
		apierror.Write(w, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		apierror.Write(w, apierror.Unauthorized("invalid credentials"))
		return
	}
	if user.Status == model.UserSuspended {
		apierror.Write(w, apierror.Forbidden("user is suspended"))
		return
	}
	memberships, err := s.deps.Store.ListMemberships(r.Context(), user.ID)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	token, err := s.deps.Tokens.Issue(user.ID, user.Email)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       token,
		"user":        user,
		"memberships": memberships,
	})
}

type createTenantRequest struct {
	Name string           `json:"name" validate:"required"`
	Type model.TenantType `json:"type" validate:"required,oneof=MANUFACTURER RETAILER INSTALLER PROPERTY_MANAGER"`
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	tenant, err := s.deps.Store.CreateTenant(r.Context(), req.Name, req.Type)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

// handleListTenants returns every tenant for platform admins, and the
// membership tenants for everyone else.
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if p.IsPlatformAdmin() {
		tenants, err := s.deps.Store.ListTenants(r.Context())
		if err != nil {
			apierror.Write(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tenants)
		return
	}
	ids := make([]string, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.TenantID)
	}
	tenants, err := s.deps.Store.ListTenantsByIDs(r.Context(), ids)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

type inviteUserRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Name     string     `json:"name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=TENANT_ADMIN INSTALLER SUPPORT_AGENT END_USER"`
	Password *string    `json:"password" validate:"omitempty,min=8"`
}

// handleInviteUser attaches a user to the active tenant, creating the user
// record on first invite. Without a password the account stays INVITED until
// a later credential reset.
func (s *Server) handleInviteUser(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req inviteUserRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}

	user, err := s.deps.Store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		status := model.UserInvited
		password := uuid.NewString()
		if req.Password != nil {
			status = model.UserActive
			password = *req.Password
		}
		hash, herr := auth.HashPassword(password)
		if herr != nil {
			apierror.Write(w, herr)
			return
		}
		user, err = s.deps.Store.CreateUser(r.Context(), req.Email, req.Name, hash, status)
	}
	if err != nil {
		apierror.Write(w, err)
		return
	}

	membership, err := s.deps.Store.CreateMembership(r.Context(), user.ID, tenantID, req.Role)
	if err != nil {
		if store.IsConflict(err) {
			apierror.Write(w, apierror.Conflict("user already belongs to tenant"))
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
		Action:      model.AuditUserInvited,
		EntityType:  "user",
		EntityID:    user.ID,
		Metadata:    model.Map{"role": string(req.Role)},
	})
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "membership": membership})
}

type changeRoleRequest struct {
	Role model.Role `json:"role" validate:"required,oneof=TENANT_ADMIN INSTALLER SUPPORT_AGENT END_USER"`
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	tenantID, err := activeTenant(r)
	if err != nil {
		apierror.Write(w, err)
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.Write(w, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	membership, err := s.deps.Store.UpdateMembershipRole(r.Context(), userID, tenantID, req.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierror.Write(w, apierror.NotFound("membership"))
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
		Action:      model.AuditRoleChanged,
		EntityType:  "membership",
		EntityID:    membership.ID,
		Metadata:    model.Map{"role": string(req.Role)},
	})
	writeJSON(w, http.StatusOK, membership)
}
