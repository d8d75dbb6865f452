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

package notify

import (
	"testing"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// Webhooks receive every severity; email and SMS suppress INFO.
func TestEligible(t *testing.T) {
	for _, tc := range []struct {
		channel  model.ChannelType
		severity model.Severity
		want     bool
	}{
		{model.ChannelWebhook, model.SeverityInfo, true},
		{model.ChannelWebhook, model.SeverityWarning, true},
		{model.ChannelWebhook, model.SeverityCritical, true},
		{model.ChannelEmail, model.SeverityInfo, false},
		{model.ChannelEmail, model.SeverityWarning, true},
		{model.ChannelEmail, model.SeverityCritical, true},
		{model.ChannelSMS, model.SeverityInfo, false},
		{model.ChannelSMS, model.SeverityWarning, true},
		{model.ChannelSMS, model.SeverityCritical, true},
	} {
		if got := eligible(tc.channel, tc.severity); got != tc.want {
			t.Errorf("eligible(%s, %s) = %v, want %v", tc.channel, tc.severity, got, tc.want)
		}
	}
}
