// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tandemlabs/tandem/internal/logging"
)

type blockingService struct {
	started atomic.Int32
}

func (b *blockingService) Serve(ctx context.Context) error {
	b.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (b *blockingService) String() string { return "blocking" }

func TestTree_StartsAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	engineSvc := &blockingService{}
	apiSvc := &blockingService{}
	tree.AddEngineService(engineSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for engineSvc.started.Load() == 0 || apiSvc.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
