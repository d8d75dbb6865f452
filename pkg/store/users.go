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

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// CreateUser inserts a new user. Email uniqueness is enforced by the store
// and surfaces as ErrConflict.
func (q *queries) CreateUser(ctx context.Context, email, name, passwordHash string, status model.UserStatus) (*model.User, error) {
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Status:       status,
	}
	err := q.get(ctx, u, `
		INSERT INTO users (id, email, name, password_hash, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Status)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns a user by id.
func (q *queries) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := q.get(ctx, &u, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail returns a user by unique email.
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := q.get(ctx, &u, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateMembership binds a user to a tenant. Duplicate (user, tenant) pairs
// surface as ErrConflict.
func (q *queries) CreateMembership(ctx context.Context, userID, tenantID string, role model.Role) (*model.Membership, error) {
	m := &model.Membership{
		ID:       uuid.NewString(),
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}
	err := q.get(ctx, m, `
		INSERT INTO memberships (id, user_id, tenant_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		m.ID, m.UserID, m.TenantID, m.Role)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMemberships returns all memberships of a user.
func (q *queries) ListMemberships(ctx context.Context, userID string) ([]model.Membership, error) {
	var ms []model.Membership
	err := q.selekt(ctx, &ms, `SELECT * FROM memberships WHERE user_id = $1 ORDER BY created_at`, userID)
	return ms, err
}

// GetMembership returns the membership of a user in a tenant, if any.
func (q *queries) GetMembership(ctx context.Context, userID, tenantID string) (*model.Membership, error) {
	var m model.Membership
	err := q.get(ctx, &m, `SELECT * FROM memberships WHERE user_id = $1 AND tenant_id = $2`, userID, tenantID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMembershipRole changes the role of an existing membership within a
// tenant.
func (q *queries) UpdateMembershipRole(ctx context.Context, userID, tenantID string, role model.Role) (*model.Membership, error) {
	var m model.Membership
	err := q.get(ctx, &m, `
		UPDATE memberships SET role = $3, updated_at = $4
		WHERE user_id = $1 AND tenant_id = $2
		RETURNING *`,
		userID, tenantID, role, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &m, nil
}
