// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeServer struct {
	listenErr     error
	listenStarted chan struct{}
	release       chan struct{}
	shutdowns     atomic.Int32
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{
		listenErr:     listenErr,
		listenStarted: make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.listenStarted)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.release
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns.Add(1)
	close(f.release)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer(nil)
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.listenStarted
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if got := srv.shutdowns.Load(); got != 1 {
		t.Errorf("shutdown calls = %d, want 1", got)
	}
}

func TestHTTPServiceSurfacesListenError(t *testing.T) {
	listenErr := errors.New("address already in use")
	svc := NewHTTPService(newFakeServer(listenErr), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, listenErr) {
		t.Fatalf("Serve returned %v, want wrapped listen error", err)
	}
}

func TestTreeRunsServices(t *testing.T) {
	tree := NewTree(testLogger(t), TreeConfig{})

	started := make(chan struct{})
	tree.AddPollingService(serviceFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("service was not started")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Serve(ctx context.Context) error { return f(ctx) }
func (f serviceFunc) String() string                  { return "test-service" }
