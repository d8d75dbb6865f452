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

// Package sched runs the periodic background jobs: alert sweeps,
// notification drains, daily rollups and the weather pull.
package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/robfig/cron/v3"
)

// Job is a named background task.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with job-level logging and panic isolation.
// Jobs run in UTC; a job that is still running when its next tick fires is
// skipped for that tick.
type Scheduler struct {
	logger log.Logger
	cron   *cron.Cron

	// base context handed to every job invocation.
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds an empty scheduler.
func New(logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddCron registers a job on a standard 5-field cron expression.
func (s *Scheduler) AddCron(spec, name string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %q on %q: %w", name, spec, err)
	}
	return nil
}

// AddEvery registers a job on a fixed interval.
func (s *Scheduler) AddEvery(interval time.Duration, name string, job Job) error {
	return s.AddCron(fmt.Sprintf("@every %s", interval), name, job)
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				level.Error(s.logger).Log("msg", "background job panicked", "job", name, "panic", r)
			}
		}()
		start := time.Now()
		if err := job(s.ctx); err != nil {
			level.Warn(s.logger).Log("msg", "background job failed", "job", name, "err", err)
			return
		}
		level.Debug(s.logger).Log("msg", "background job done", "job", name, "duration", time.Since(start))
	}
}

// Run starts the cron loop and blocks until Stop is called.
func (s *Scheduler) Run() {
	s.cron.Run()
}

// Stop cancels running jobs and stops the loop, blocking until in-flight
// jobs return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
