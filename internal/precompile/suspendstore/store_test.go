package suspendstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "suspended.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSuspendAndQuery(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Suspend(ctx, "/proj", "1.10", "uuid-a", time.Now()); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := s.Suspend(ctx, "/proj", "1.10", "uuid-b", time.Now()); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}

	got, err := s.Suspended(ctx, "/proj", "1.10")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suspended packages, got %d", len(got))
	}
	if _, ok := got["uuid-a"]; !ok {
		t.Error("expected uuid-a to be suspended")
	}
}

func TestSuspendedScopedByProjectAndRuntime(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Suspend(ctx, "/proj1", "1.10", "uuid-a", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.Suspend(ctx, "/proj2", "1.10", "uuid-a", time.Now()); err != nil {
		t.Fatal(err)
	}

	got, err := s.Suspended(ctx, "/proj1", "1.10")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected suspension scoped to /proj1 only, got %v", got)
	}
}

func TestSuspendUpsertsFailedAt(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour)
	if err := s.Suspend(ctx, "/proj", "1.10", "uuid-a", first); err != nil {
		t.Fatal(err)
	}
	second := time.Now()
	if err := s.Suspend(ctx, "/proj", "1.10", "uuid-a", second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Suspended(ctx, "/proj", "1.10")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a single row after re-suspending, got %d", len(got))
	}
}

func TestClearRemovesOnlyMatchingScope(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Suspend(ctx, "/proj", "1.10", "uuid-a", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.Suspend(ctx, "/proj", "1.11", "uuid-b", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(ctx, "/proj", "1.10"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	got, err := s.Suspended(ctx, "/proj", "1.10")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 1.10 suspensions cleared, got %v", got)
	}

	still, err := s.Suspended(ctx, "/proj", "1.11")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(still) != 1 {
		t.Errorf("expected 1.11 suspensions untouched, got %v", still)
	}
}

func TestOpenIsIdempotentAcrossReopens(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "suspended.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s1.Suspend(ctx, "/proj", "1.10", "uuid-a", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening Open() error = %v", err)
	}
	defer s2.Close()

	got, err := s2.Suspended(ctx, "/proj", "1.10")
	if err != nil {
		t.Fatalf("Suspended() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected suspension to persist across reopen, got %v", got)
	}
}
