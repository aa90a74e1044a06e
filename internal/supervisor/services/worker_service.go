// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package services

import (
	"context"
)

// StartStopWorker is implemented by the syncer manager and the views
// aggregator: a Start that spawns goroutines and a blocking Stop.
type StartStopWorker interface {
	Start(ctx context.Context) error
	Stop()
}

// WorkerService adapts a Start/Stop worker to suture.Service.
type WorkerService struct {
	name   string
	worker StartStopWorker
}

// NewWorkerService creates the wrapper. The name shows up in supervision
// logs.
func NewWorkerService(name string, worker StartStopWorker) *WorkerService {
	return &WorkerService{name: name, worker: worker}
}

// Serve implements suture.Service. The worker runs until the context ends;
// Stop waits for its goroutines before Serve returns, so a restart never
// races a previous incarnation.
func (s *WorkerService) Serve(ctx context.Context) error {
	if err := s.worker.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.worker.Stop()
	return ctx.Err()
}

func (s *WorkerService) String() string { return s.name }
