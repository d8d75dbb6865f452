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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/GoogleCloudPlatform/solar-fleet-engine/pkg/model"
)

// Adapter delivers one notification through a channel. Implementations must
// be safe for concurrent use.
type Adapter interface {
	Send(ctx context.Context, channel *model.NotificationChannel, payload model.Map) error
}

// LogEmailAdapter is the reference EMAIL adapter: it records the delivery in
// the process log. Real SMTP delivery is a deployment concern.
type LogEmailAdapter struct {
	Logger log.Logger
}

func (a *LogEmailAdapter) Send(_ context.Context, channel *model.NotificationChannel, payload model.Map) error {
	to, _ := channel.Config.String("to")
	if to == "" {
		return fmt.Errorf("email channel %s has no recipient configured", channel.ID)
	}
	level.Info(a.Logger).Log("msg", "email notification", "to", to, "alert", payload["alertId"])
	return nil
}

// LogSMSAdapter is the reference SMS adapter, log-only like email.
type LogSMSAdapter struct {
	Logger log.Logger
}

func (a *LogSMSAdapter) Send(_ context.Context, channel *model.NotificationChannel, payload model.Map) error {
	to, _ := channel.Config.String("phone")
	if to == "" {
		return fmt.Errorf("sms channel %s has no phone configured", channel.ID)
	}
	level.Info(a.Logger).Log("msg", "sms notification", "to", to, "alert", payload["alertId"])
	return nil
}

// WebhookAdapter posts the payload as JSON to the channel's configured URL.
type WebhookAdapter struct {
	client *http.Client
}

// NewWebhookAdapter builds the adapter with a pooled client.
func NewWebhookAdapter() *WebhookAdapter {
	c := cleanhttp.DefaultPooledClient()
	c.Timeout = 10 * time.Second
	return &WebhookAdapter{client: c}
}

func (a *WebhookAdapter) Send(ctx context.Context, channel *model.NotificationChannel, payload model.Map) error {
	url, _ := channel.Config.String("url")
	if url == "" {
		return fmt.Errorf("webhook channel %s has no url configured", channel.ID)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// DefaultAdapters wires the reference adapter set by channel type.
func DefaultAdapters(logger log.Logger) map[model.ChannelType]Adapter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return map[model.ChannelType]Adapter{
		model.ChannelEmail:   &LogEmailAdapter{Logger: logger},
		model.ChannelSMS:     &LogSMSAdapter{Logger: logger},
		model.ChannelWebhook: NewWebhookAdapter(),
	}
}
