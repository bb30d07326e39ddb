package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	src := newMockSource()
	now := time.Now().UTC()
	src.add(&model.Land{ID: 1, Owner: alice, Coordinates: "1,1", Size: 1, Description: "d", Status: model.StatusPending, CreatedAt: now, UpdatedAt: now})

	dest := &mockDestination{}
	sched := NewScheduler(src, alice, []Destination{dest}, 50*time.Millisecond, testLogger())
	sched.Start(context.Background())

	// Wait for at least the initial export + one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}

	// 1 header + 1 land
	if lines := nonEmptyLines(string(data)); len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newMockSource(), alice, nil, time.Minute, testLogger())
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerStop_ParentContextCanceled(t *testing.T) {
	dest := &mockDestination{}
	ctx, cancel := context.WithCancel(context.Background())
	sched := NewScheduler(newMockSource(), alice, []Destination{dest}, time.Hour, testLogger())
	sched.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the parent context was canceled")
	}
}

func TestSchedulerRunOnce_MultipleDestinations(t *testing.T) {
	failing := &mockDestination{err: errors.New("bucket missing")}
	ok := &mockDestination{}

	sched := NewScheduler(newMockSource(), alice, []Destination{failing, ok}, time.Hour, testLogger())
	err := sched.RunOnce(context.Background())

	if err == nil || err.Error() != "bucket missing" {
		t.Errorf("RunOnce error = %v, want the first destination error", err)
	}
	if failing.writes.Load() != 1 || ok.writes.Load() != 1 {
		t.Errorf("writes = %d, %d; want every destination written once", failing.writes.Load(), ok.writes.Load())
	}
}

func TestSchedulerRunOnce_ExportError(t *testing.T) {
	src := newMockSource()
	src.err = errLedgerDown
	dest := &mockDestination{}

	sched := NewScheduler(src, alice, []Destination{dest}, time.Hour, testLogger())
	if err := sched.RunOnce(context.Background()); !errors.Is(err, errLedgerDown) {
		t.Errorf("RunOnce error = %v, want %v", err, errLedgerDown)
	}
	if dest.writes.Load() != 0 {
		t.Error("destination written after a failed export")
	}
}
