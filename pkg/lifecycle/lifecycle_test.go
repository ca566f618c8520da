package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/scopecheck/pkg/lifecycle"
)

func TestReadyAfterStartupHooks(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() { count.Add(1) })
	}
	lc.WaitForStartup()

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestCheckReady(t *testing.T) {
	lc := lifecycle.New()
	lc.OnReady("database", func(context.Context) error { return nil })

	if err := lc.CheckReady(context.Background()); !errors.Is(err, lifecycle.ErrStarting) {
		t.Errorf("before startup: %v, want ErrStarting", err)
	}

	lc.WaitForStartup()
	if err := lc.CheckReady(context.Background()); err != nil {
		t.Errorf("healthy: %v", err)
	}

	down := errors.New("connection refused")
	lc.OnReady("storage", func(context.Context) error { return down })
	lc.OnReady("lookup", func(context.Context) error { return down })

	err := lc.CheckReady(context.Background())
	if !errors.Is(err, down) {
		t.Fatalf("CheckReady() = %v, want wrapped failure", err)
	}
	if msg := err.Error(); !strings.Contains(msg, "lookup: ") || !strings.Contains(msg, "storage: ") {
		t.Errorf("error %q does not name the failing checks", msg)
	}
	if strings.Contains(err.Error(), "database") {
		t.Errorf("passing check reported: %v", err)
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(50 * time.Millisecond); err == nil {
		t.Error("expected timeout error, got nil")
	}
}
