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
	"github.com/lib/pq"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

func pqStringArray(ss []string) any { return pq.Array(ss) }

// nullableMap keeps nil maps as SQL NULL so COALESCE-based partial updates
// leave the column untouched. model.Map.Value would serialize nil as '{}'.
func nullableMap(m model.Map) any {
	if m == nil {
		return nil
	}
	return m
}
