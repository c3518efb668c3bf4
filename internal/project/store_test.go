package project_test

import (
	"context"
	"testing"

	"cutroom/internal/project"
	"cutroom/internal/testsupport"
	"cutroom/internal/timeline"
)

func openStore(t *testing.T) *project.Store {
	t.Helper()
	store, err := project.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetProject(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Vacation Cut")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty project ID")
	}
	if created.Name != "Vacation Cut" {
		t.Fatalf("name = %q", created.Name)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if fetched == nil || fetched.ID != created.ID {
		t.Fatalf("fetched = %+v", fetched)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	store := openStore(t)
	if _, err := store.Create(context.Background(), ""); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestGetMissingProjectReturnsNil(t *testing.T) {
	store := openStore(t)
	proj, err := store.GetByID(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if proj != nil {
		t.Fatalf("expected nil, got %+v", proj)
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "Snapshot Roundtrip")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	snap := timeline.Snapshot{
		Clips: []timeline.Clip{
			timeline.NewClip("/media/a.mp4", 60, "Opening"),
			timeline.NewClip("/media/b.mp4", 30, ""),
		},
		AudioTracks: []timeline.AudioTrack{
			timeline.NewAudioTrack("/media/music.m4a", 120, "Score"),
		},
	}
	snap.Clips[0].StartTime = 5
	snap.Clips[0].EndTime = 45
	snap.AudioTracks[0].Volume = 0.4

	if err := store.SaveSnapshot(ctx, proj.ID, snap); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	loaded, err := store.LoadSnapshot(ctx, proj.ID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(loaded.Clips) != 2 || len(loaded.AudioTracks) != 1 {
		t.Fatalf("loaded %d clips, %d tracks", len(loaded.Clips), len(loaded.AudioTracks))
	}
	if loaded.Clips[0].StartTime != 5 || loaded.Clips[0].EndTime != 45 {
		t.Fatalf("clip trim not preserved: %+v", loaded.Clips[0])
	}
	if loaded.Clips[0].Title != "Opening" {
		t.Fatalf("clip title = %q", loaded.Clips[0].Title)
	}
	if loaded.AudioTracks[0].Volume != 0.4 {
		t.Fatalf("track volume = %v", loaded.AudioTracks[0].Volume)
	}
}

func TestLoadSnapshotNeverSaved(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "Fresh")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	snap, err := store.LoadSnapshot(ctx, proj.ID)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(snap.Clips) != 0 || len(snap.AudioTracks) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestLoadSnapshotMissingProject(t *testing.T) {
	store := openStore(t)
	if _, err := store.LoadSnapshot(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing project")
	}
}

func TestRenameProject(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "Draft")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.Rename(ctx, proj.ID, "Final"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	fetched, err := store.GetByID(ctx, proj.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Name != "Final" {
		t.Fatalf("name = %q", fetched.Name)
	}

	if err := store.Rename(ctx, "missing", "Whatever"); err == nil {
		t.Fatal("expected error renaming missing project")
	}
}

func TestListOrdersByUpdate(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "First")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.Create(ctx, "Second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Touch the first project so it becomes the most recently updated.
	if err := store.SaveSnapshot(ctx, first.ID, timeline.Snapshot{}); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	projects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("listed %d projects", len(projects))
	}
	if projects[0].ID != first.ID || projects[1].ID != second.ID {
		t.Fatalf("unexpected order: %s, %s", projects[0].Name, projects[1].Name)
	}
}

func TestRemoveCascadesExportHistory(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "Doomed")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.BeginExport(ctx, proj.ID, "run-1", "ffmpeg"); err != nil {
		t.Fatalf("begin export: %v", err)
	}

	removed, err := store.Remove(ctx, proj.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected project to be removed")
	}

	runs, err := store.ExportHistory(ctx, proj.ID)
	if err != nil {
		t.Fatalf("export history: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected cascade delete, found %d runs", len(runs))
	}

	removed, err = store.Remove(ctx, proj.ID)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("second remove should report nothing deleted")
	}
}

func TestExportRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "With History")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.BeginExport(ctx, proj.ID, "run-1", "mock"); err != nil {
		t.Fatalf("begin export: %v", err)
	}

	runs, err := store.ExportHistory(ctx, proj.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].State != "processing" || runs[0].Finished() {
		t.Fatalf("unexpected run: %+v", runs[0])
	}

	outcome := project.ExportOutcome{
		State:        "success",
		ArtifactPath: "/exports/export-run-1.txt",
		ContentType:  "text/plain; charset=utf-8",
		SizeBytes:    123,
	}
	if err := store.FinishExport(ctx, "run-1", outcome); err != nil {
		t.Fatalf("finish export: %v", err)
	}

	runs, err = store.ExportHistory(ctx, proj.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	run := runs[0]
	if run.State != "success" || !run.Finished() {
		t.Fatalf("run not finalized: %+v", run)
	}
	if run.ArtifactPath != outcome.ArtifactPath || run.SizeBytes != 123 {
		t.Fatalf("outcome not persisted: %+v", run)
	}

	if err := store.FinishExport(ctx, "missing-run", outcome); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestFinishExportRecordsFailure(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	proj, err := store.Create(ctx, "Failing")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.BeginExport(ctx, proj.ID, "run-err", "ffmpeg"); err != nil {
		t.Fatalf("begin export: %v", err)
	}
	if err := store.FinishExport(ctx, "run-err", project.ExportOutcome{
		State:        "error",
		ErrorMessage: "concat failed",
	}); err != nil {
		t.Fatalf("finish export: %v", err)
	}

	runs, err := store.ExportHistory(ctx, proj.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if runs[0].State != "error" || runs[0].ErrorMessage != "concat failed" {
		t.Fatalf("failure not persisted: %+v", runs[0])
	}
	if runs[0].ArtifactPath != "" {
		t.Fatalf("artifact should be empty, got %q", runs[0].ArtifactPath)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	store, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	proj, err := store.Create(context.Background(), "Persisted")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := project.Open(cfg)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer reopened.Close()

	fetched, err := reopened.GetByID(context.Background(), proj.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if fetched == nil || fetched.Name != "Persisted" {
		t.Fatalf("project did not survive reopen: %+v", fetched)
	}
}
