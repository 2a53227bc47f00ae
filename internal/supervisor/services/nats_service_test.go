// Rollcall - Offline-First Staff Attendance Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/rollcall/internal/snapshot"
)

var _ suture.Service = (*NATSServerService)(nil)

type mockNATSServer struct {
	running   atomic.Bool
	shutdowns atomic.Int32
}

func (m *mockNATSServer) IsRunning() bool { return m.running.Load() }

func (m *mockNATSServer) Shutdown(context.Context) error {
	m.shutdowns.Add(1)
	m.running.Store(false)
	return nil
}

func TestNATSServerServiceShutsDownOnCancel(t *testing.T) {
	mock := &mockNATSServer{}
	mock.running.Store(true)
	svc := NewNATSServerService(mock)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	if mock.shutdowns.Load() != 1 {
		t.Errorf("shutdowns = %d, want 1", mock.shutdowns.Load())
	}
}

func TestNATSServerServiceDetectsStoppedServer(t *testing.T) {
	t.Run("not running at start", func(t *testing.T) {
		svc := NewNATSServerService(&mockNATSServer{})
		if err := svc.Serve(context.Background()); !errors.Is(err, ErrNATSServerDown) {
			t.Errorf("Serve() = %v, want ErrNATSServerDown", err)
		}
	})

	t.Run("stops while supervised", func(t *testing.T) {
		mock := &mockNATSServer{}
		mock.running.Store(true)
		svc := NewNATSServerService(mock)
		svc.healthInterval = 10 * time.Millisecond

		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(context.Background()) }()
		time.Sleep(30 * time.Millisecond)
		mock.running.Store(false)

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrNATSServerDown) {
				t.Errorf("Serve() = %v, want ErrNATSServerDown", err)
			}
		case <-time.After(time.Second):
			t.Fatal("stopped server was not detected")
		}
	})
}

func TestNATSServerServiceWithEmbeddedServer(t *testing.T) {
	ns, err := snapshot.NewEmbeddedServer("127.0.0.1", -1, 5*time.Second)
	if err != nil {
		t.Fatalf("start embedded server: %v", err)
	}
	svc := NewNATSServerService(ns)
	if svc.String() != "nats-server" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-errCh

	if ns.IsRunning() {
		t.Error("embedded server still running after shutdown")
	}
}
