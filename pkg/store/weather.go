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

// UpsertWeatherData writes a day of provider weather keyed on (site, date).
func (q *queries) UpsertWeatherData(ctx context.Context, w *model.WeatherData) (*model.WeatherData, error) {
	var out model.WeatherData
	err := q.get(ctx, &out, `
		INSERT INTO weather_data (id, site_id, date, temp_min_c, temp_max_c, cloud_pct, ghi_whm2)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (site_id, date) DO UPDATE SET
			temp_min_c = EXCLUDED.temp_min_c,
			temp_max_c = EXCLUDED.temp_max_c,
			cloud_pct = EXCLUDED.cloud_pct,
			ghi_whm2 = EXCLUDED.ghi_whm2
		RETURNING *`,
		uuid.NewString(), w.SiteID, w.Date, w.TempMinC, w.TempMaxC, w.CloudPct, w.GhiWhm2)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSitesWithCoordinates returns every site that has a fix, across all
// tenants. The daily weather pull iterates it.
func (q *queries) ListSitesWithCoordinates(ctx context.Context) ([]model.Site, error) {
	var ss []model.Site
	err := q.selekt(ctx, &ss, `SELECT * FROM sites WHERE lat IS NOT NULL AND lon IS NOT NULL`)
	return ss, err
}

// ListWeatherData returns a site's weather rows inside a date range.
func (q *queries) ListWeatherData(ctx context.Context, siteID string, from, to time.Time) ([]model.WeatherData, error) {
	var ws []model.WeatherData
	err := q.selekt(ctx, &ws, `
		SELECT * FROM weather_data WHERE site_id = $1 AND date >= $2 AND date <= $3 ORDER BY date`,
		siteID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	return ws, err
}
