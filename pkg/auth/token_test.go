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
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestDeviceTokenFormat(t *testing.T) {
	d := NewDeviceTokenizer("test-secret")

	token := d.Mint("dev-1")
	id, digest, ok := strings.Cut(token, ":")
	if !ok {
		t.Fatalf("token %q has no separator", token)
	}
	if id != "dev-1" {
		t.Errorf("token device id = %q, want dev-1", id)
	}
	if len(digest) != 64 {
		t.Errorf("digest length = %d, want 64", len(digest))
	}
	if digest != strings.ToLower(digest) {
		t.Errorf("digest %q is not lowercase hex", digest)
	}
}

func TestDeviceTokenVerify(t *testing.T) {
	d := NewDeviceTokenizer("test-secret")
	token := d.Mint("dev-1")

	got, err := d.Verify(token)
	if err != nil {
		t.Fatalf("Verify(valid) = %v", err)
	}
	if got != "dev-1" {
		t.Errorf("Verify returned device %q, want dev-1", got)
	}

	for name, bad := range map[string]string{
		"no separator":     "dev-1",
		"empty digest":     "dev-1:",
		"empty device":     ":" + d.Digest("dev-1"),
		"tampered digest":  "dev-1:" + strings.Repeat("0", 64),
		"other device id":  "dev-2:" + d.Digest("dev-1"),
		"truncated digest": token[:len(token)-2],
		"wrong secret":     NewDeviceTokenizer("other-secret").Mint("dev-1"),
	} {
		if _, err := d.Verify(bad); err == nil {
			t.Errorf("Verify(%s) accepted %q", name, bad)
		}
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("signing-secret", time.Hour)

	token, err := m.Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" {
		t.Errorf("claims = %q/%q, want user-1/a@example.com", claims.UserID, claims.Email)
	}
}

func TestUserTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(token); err == nil {
		t.Error("Verify accepted a token signed with a different secret")
	}
}

func TestUserTokenRejectsExpired(t *testing.T) {
	m := NewTokenManager("signing-secret", time.Hour)

	// Mint with claims that expired an hour ago, signed with the same secret.
	now := time.Now()
	claims := Claims{
		UserID: "user-1",
		Email:  "a@example.com",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Add(-2 * time.Hour).Unix(),
			ExpiresAt: now.Add(-time.Hour).Unix(),
			Subject:   "user-1",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("signing-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Error("Verify accepted an expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("CheckPassword rejected the original password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
}
