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

// Package integrations defines the narrow interfaces behind which external
// providers (weather, geocoding, SIM carrier) sit, plus the reference
// in-process implementations. Adapter instances are process-wide singletons
// and must be safe for concurrent use.
package integrations

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DailyWeather is one day of provider weather for a coordinate.
type DailyWeather struct {
	Date     string // YYYY-MM-DD
	TempMinC *float64
	TempMaxC *float64
	CloudPct *float64
	GhiWhm2  *float64
}

// WeatherProvider fetches daily weather for a coordinate.
type WeatherProvider interface {
	FetchDaily(ctx context.Context, lat, lon float64, date time.Time) (*DailyWeather, error)
}

// Address is a reverse-geocoded postal address.
type Address struct {
	AddressLine string
	City        string
	PostalCode  string
	Country     string
}

// Geocoder resolves coordinates to postal addresses.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Address, error)
}

// SimActionType enumerates carrier operations on a SIM.
type SimActionType string

const (
	SimActivate   SimActionType = "ACTIVATE"
	SimDeactivate SimActionType = "DEACTIVATE"
	SimReset      SimActionType = "RESET"
)

// SimActionResult is the carrier's answer to an action request.
type SimActionResult struct {
	ICCID       string        `json:"iccid"`
	Action      SimActionType `json:"action"`
	Status      string        `json:"status"`
	RequestedAt time.Time     `json:"requestedAt"`
}

// SimProvider executes carrier operations.
type SimProvider interface {
	Execute(ctx context.Context, iccid string, action SimActionType) (*SimActionResult, error)
}

// StubWeatherProvider synthesizes plausible values without any network
// call. The reference deployment runs with it.
type StubWeatherProvider struct{}

func (StubWeatherProvider) FetchDaily(_ context.Context, lat, _ float64, date time.Time) (*DailyWeather, error) {
	// Deterministic seasonal curve keyed on latitude and day of year.
	day := float64(date.YearDay())
	base := 18.0 - lat/10
	swing := 8.0
	min := base - 4 + swing*seasonal(day)
	max := base + 6 + swing*seasonal(day)
	cloud := 30.0
	ghi := 5200.0
	return &DailyWeather{
		Date:     date.Format("2006-01-02"),
		TempMinC: &min,
		TempMaxC: &max,
		CloudPct: &cloud,
		GhiWhm2:  &ghi,
	}, nil
}

func seasonal(day float64) float64 {
	// Cheap triangle wave peaking mid-year.
	if day > 182.5 {
		day = 365 - day
	}
	return day/182.5 - 0.5
}

// StubGeocoder returns no address; deployments plug a real provider.
type StubGeocoder struct{}

func (StubGeocoder) ReverseGeocode(context.Context, float64, float64) (*Address, error) {
	return &Address{}, nil
}

// StubSimProvider accepts every action and logs it.
type StubSimProvider struct {
	Logger log.Logger
}

func (p *StubSimProvider) Execute(_ context.Context, iccid string, action SimActionType) (*SimActionResult, error) {
	level.Info(p.Logger).Log("msg", "sim action", "iccid", iccid, "action", action)
	return &SimActionResult{
		ICCID:       iccid,
		Action:      action,
		Status:      "ACCEPTED",
		RequestedAt: time.Now().UTC(),
	}, nil
}
