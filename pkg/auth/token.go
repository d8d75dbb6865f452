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

// Package auth implements the dual identity model: signed bearer tokens for
// humans and HMAC tokens for devices, plus the tenant and role enforcement
// middleware built on them.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// Claims is the signed envelope carried by user bearer tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// TokenManager signs and verifies user bearer tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager builds a manager for the deployment signing secret.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

// Issue signs a bearer token for the user.
func (m *TokenManager) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.expiry).Unix(),
			Subject:   userID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses and validates a bearer token, returning its claims.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return &claims, nil
}

// DeviceTokenizer mints and verifies device MAC tokens of the form
// <deviceId>:<hexlower-64> where the digest is
// HMAC-SHA256(deviceHmacSecret, deviceId).
type DeviceTokenizer struct {
	secret []byte
}

// NewDeviceTokenizer builds a tokenizer for the deployment device secret.
func NewDeviceTokenizer(secret string) *DeviceTokenizer {
	return &DeviceTokenizer{secret: []byte(secret)}
}

// Digest returns the lowercase hex MAC for a device id.
func (d *DeviceTokenizer) Digest(deviceID string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(deviceID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Mint returns the full device token for a device id.
func (d *DeviceTokenizer) Mint(deviceID string) string {
	return deviceID + ":" + d.Digest(deviceID)
}

// Verify checks a device token and returns the proven device id. The digest
// comparison is constant-time over the raw bytes of the hex string.
func (d *DeviceTokenizer) Verify(token string) (string, error) {
	deviceID, digest, ok := strings.Cut(token, ":")
	if !ok || deviceID == "" || digest == "" {
		return "", fmt.Errorf("malformed device token")
	}
	want := d.Digest(deviceID)
	if !hmac.Equal([]byte(digest), []byte(want)) {
		return "", fmt.Errorf("device token digest mismatch")
	}
	return deviceID, nil
}
