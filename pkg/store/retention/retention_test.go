package retention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"getgsa/onboarding/pkg/config"
	"getgsa/onboarding/pkg/store"
)

var now = time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC)

// seed creates one request per age in days.
func seed(t *testing.T, s store.Store, ages ...int) {
	t.Helper()
	for _, age := range ages {
		req := &store.Request{
			ID:        fmt.Sprintf("age-%d", age),
			CreatedAt: now.AddDate(0, 0, -age),
		}
		if err := s.Create(context.Background(), req); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
}

func newPruner(s store.Store, cfg config.RetentionConfig) *Pruner {
	p := NewPruner(s, cfg, nil)
	p.now = func() time.Time { return now }
	return p
}

func TestPruner_Prune(t *testing.T) {
	tests := []struct {
		name        string
		days        int
		wantDeleted int64
		wantLeft    int64
	}{
		{"ninety days", 90, 2, 3},
		{"thirty days", 30, 3, 2},
		{"disabled", 0, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			seed(t, s, 1, 10, 60, 100, 400)

			deleted, err := newPruner(s, config.RetentionConfig{Days: tt.days}).Prune(context.Background())
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted %d, want %d", deleted, tt.wantDeleted)
			}
			if left, _ := s.Count(context.Background(), nil); left != tt.wantLeft {
				t.Errorf("%d left, want %d", left, tt.wantLeft)
			}
		})
	}
}

func TestPruner_Archive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	s := store.NewMemoryStore()
	seed(t, s, 5, 120, 200)

	p := newPruner(s, config.RetentionConfig{Days: 90, ArchivePath: dir})
	deleted, err := p.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d, want 2", deleted)
	}

	files, err := filepath.Glob(filepath.Join(dir, "requests-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one archive file, got %v (%v)", files, err)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	var archived []store.Request
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive is not valid JSON: %v", err)
	}
	if len(archived) != 2 || archived[0].ID != "age-200" || archived[1].ID != "age-120" {
		t.Errorf("unexpected archive contents %+v", archived)
	}
}

func TestPruner_ArchiveSkippedWhenNothingToPrune(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	s := store.NewMemoryStore()
	seed(t, s, 1)

	if _, err := newPruner(s, config.RetentionConfig{Days: 90, ArchivePath: dir}).Prune(context.Background()); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("archive directory should not be created, stat err = %v", err)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, store.NewStorageError("memory", "delete", errors.New("locked"))
}

func TestPruner_StoreError(t *testing.T) {
	p := newPruner(failingStore{store.NewMemoryStore()}, config.RetentionConfig{Days: 1})
	_, err := p.Prune(context.Background())
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("expected StorageError, got %v", err)
	}
}

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.RetentionConfig
		wantRunning bool
		wantError   bool
	}{
		{"daily", config.RetentionConfig{Days: 90, PruneSchedule: "0 3 * * *"}, true, false},
		{"every six hours", config.RetentionConfig{Days: 90, PruneSchedule: "0 */6 * * *"}, true, false},
		{"no schedule", config.RetentionConfig{Days: 90}, false, false},
		{"retention disabled", config.RetentionConfig{Days: 0, PruneSchedule: "0 3 * * *"}, false, false},
		{"invalid schedule", config.RetentionConfig{Days: 90, PruneSchedule: "invalid cron"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := NewScheduler(NewPruner(store.NewMemoryStore(), tt.cfg, nil))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx)
			if (err != nil) != tt.wantError {
				t.Errorf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}

			next := scheduler.NextRun()
			if tt.wantRunning && (next == nil || !next.After(time.Now())) {
				t.Errorf("NextRun() = %v, want a future time", next)
			}
			if !tt.wantRunning && next != nil {
				t.Errorf("NextRun() = %v for idle scheduler", next)
			}

			scheduler.Stop()
			if scheduler.IsRunning() {
				t.Error("scheduler still running after Stop")
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	scheduler := NewScheduler(NewPruner(store.NewMemoryStore(), config.RetentionConfig{Days: 1, PruneSchedule: "@every 1h"}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for scheduler.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler did not stop after context cancel")
	}
}
