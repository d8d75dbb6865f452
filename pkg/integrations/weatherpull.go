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

package integrations

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/store"
)

// WeatherPuller persists one day of provider weather per located site.
type WeatherPuller struct {
	logger   log.Logger
	store    *store.Store
	provider WeatherProvider
}

// NewWeatherPuller wires the pull job.
func NewWeatherPuller(logger log.Logger, st *store.Store, provider WeatherProvider) *WeatherPuller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &WeatherPuller{logger: logger, store: st, provider: provider}
}

// PullDay fetches and upserts weather for every site with coordinates. Site
// failures are logged and skipped; the (site, date) upsert key makes the
// job idempotent.
func (w *WeatherPuller) PullDay(ctx context.Context, date time.Time) error {
	sites, err := w.store.ListSitesWithCoordinates(ctx)
	if err != nil {
		return fmt.Errorf("list located sites: %w", err)
	}
	for _, site := range sites {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		daily, err := w.provider.FetchDaily(ctx, *site.Lat, *site.Lon, date)
		if err != nil {
			level.Warn(w.logger).Log("msg", "weather fetch failed", "site", site.ID, "err", err)
			continue
		}
		_, err = w.store.UpsertWeatherData(ctx, &model.WeatherData{
			SiteID:   site.ID,
			Date:     daily.Date,
			TempMinC: daily.TempMinC,
			TempMaxC: daily.TempMaxC,
			CloudPct: daily.CloudPct,
			GhiWhm2:  daily.GhiWhm2,
		})
		if err != nil {
			level.Warn(w.logger).Log("msg", "weather upsert failed", "site", site.ID, "err", err)
		}
	}
	return nil
}
