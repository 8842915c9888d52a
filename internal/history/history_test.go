package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trackplan/internal/history"
	"trackplan/internal/services"
	"trackplan/internal/testsupport"
)

func TestOpenCreatesDatabaseInStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if store.Path() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected database path %q", store.Path())
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	// Reopening an initialized database must pass the schema version check.
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reopened, err := history.OpenPath(store.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Close()
}

func TestRecordAndGet(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	run := &history.Run{
		File:      "/media/movie.mkv",
		Status:    history.StatusPlanned,
		Changes:   2,
		Anomalies: 1,
		Plan:      json.RawMessage(`{"decisions":[{"id":0,"kind":"video","disposition":"keep"}]}`),
	}
	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamp to be assigned: %+v", run)
	}

	got, err := store.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.File != run.File || got.Status != history.StatusPlanned || got.Changes != 2 || got.Anomalies != 1 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if string(got.Plan) != string(run.Plan) {
		t.Fatalf("plan JSON mismatch: %s", got.Plan)
	}
	if got.Bitrate != nil {
		t.Fatalf("expected no bitrate JSON, got %s", got.Bitrate)
	}

	byPrefix, err := store.Get(ctx, run.ID[:8])
	if err != nil || byPrefix.ID != run.ID {
		t.Fatalf("Get by prefix = %+v, %v", byPrefix, err)
	}
}

func TestGetMissingRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Get(context.Background(), "does-not-exist"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), " "); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRecordValidatesRun(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name string
		run  *history.Run
		want error
	}{
		{"nil run", nil, services.ErrInvalidArgument},
		{"missing file", &history.Run{Status: history.StatusFailed}, services.ErrInvalidArgument},
		{"unknown status", &history.Run{File: "a.mkv", Status: "done"}, services.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.Record(ctx, tc.run); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	files := []string{"a.mkv", "b.mkv", "a.mkv"}
	for i, file := range files {
		run := &history.Run{File: file, Status: history.StatusNoAction, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if i == 2 {
			run.Status = history.StatusFailed
			run.Error = "ffprobe exited with status 1"
		}
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Status != history.StatusFailed || all[0].Error == "" || all[2].File != "a.mkv" {
		t.Fatalf("unexpected list order: %+v", all)
	}

	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("List(2) = %d runs, %v", len(limited), err)
	}

	forFile, err := store.ListByFile(ctx, "a.mkv")
	if err != nil || len(forFile) != 2 {
		t.Fatalf("ListByFile = %d runs, %v", len(forFile), err)
	}

	removed, err := store.Prune(ctx, base.Add(90*time.Second))
	if err != nil || removed != 2 {
		t.Fatalf("Prune removed %d, %v", removed, err)
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	lock, err := history.AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if lock.Path() != filepath.Join(dir, history.LockFileName) {
		t.Fatalf("unexpected lock path %q", lock.Path())
	}

	if _, err := history.AcquireLock(dir); !errors.Is(err, history.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	again, err := history.AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	_ = again.Release()
}
