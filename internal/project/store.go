package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"cutroom/internal/config"
	"cutroom/internal/services"
	"cutroom/internal/timeline"
)

// Store manages project persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the project database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.ProjectDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new empty project.
func (s *Store) Create(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "project", "create", "project name is empty", nil)
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO projects (id, name, timeline_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id,
		name,
		nil,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a project by identifier. A missing project returns
// (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return proj, nil
}

// List returns all projects ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, proj)
	}
	return projects, rows.Err()
}

// Rename updates a project's display name.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return services.Wrap(services.ErrValidation, "project", "rename", "project name is empty", nil)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		name,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrValidation, "project", "rename", "no such project "+id, nil)
	}
	return nil
}

// Remove deletes a project and, via cascade, its export history.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SaveSnapshot serializes the timeline state into the project row.
func (s *Store) SaveSnapshot(ctx context.Context, id string, snap timeline.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE projects SET timeline_json = ?, updated_at = ? WHERE id = ?`,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("save timeline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrValidation, "project", "save", "no such project "+id, nil)
	}
	return nil
}

// LoadSnapshot deserializes the saved timeline state. A project that was
// never saved yields an empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (timeline.Snapshot, error) {
	proj, err := s.GetByID(ctx, id)
	if err != nil {
		return timeline.Snapshot{}, err
	}
	if proj == nil {
		return timeline.Snapshot{}, services.Wrap(services.ErrValidation, "project", "load", "no such project "+id, nil)
	}
	if proj.TimelineJSON == "" {
		return timeline.Snapshot{}, nil
	}
	var snap timeline.Snapshot
	if err := json.Unmarshal([]byte(proj.TimelineJSON), &snap); err != nil {
		return timeline.Snapshot{}, fmt.Errorf("unmarshal timeline: %w", err)
	}
	return snap, nil
}

// BeginExport records the start of an export run against a project.
func (s *Store) BeginExport(ctx context.Context, projectID, exportID, backend string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO export_runs (id, project_id, state, backend, started_at)
         VALUES (?, ?, ?, ?, ?)`,
		exportID,
		projectID,
		"processing",
		backend,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert export run: %w", err)
	}
	return nil
}

// ExportOutcome carries the terminal facts recorded by FinishExport.
type ExportOutcome struct {
	State        string
	ArtifactPath string
	ContentType  string
	SizeBytes    int64
	ErrorMessage string
}

// FinishExport stamps an export run with its terminal outcome.
func (s *Store) FinishExport(ctx context.Context, exportID string, outcome ExportOutcome) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE export_runs
         SET state = ?, artifact_path = ?, content_type = ?, size_bytes = ?,
             error_message = ?, finished_at = ?
         WHERE id = ?`,
		outcome.State,
		nullableString(outcome.ArtifactPath),
		nullableString(outcome.ContentType),
		outcome.SizeBytes,
		nullableString(outcome.ErrorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		exportID,
	)
	if err != nil {
		return fmt.Errorf("finish export run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrValidation, "project", "finish export", "no such export run "+exportID, nil)
	}
	return nil
}

// ExportHistory returns a project's export runs, newest first.
func (s *Store) ExportHistory(ctx context.Context, projectID string) ([]*ExportRun, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+exportRunColumns+` FROM export_runs WHERE project_id = ? ORDER BY started_at DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query export runs: %w", err)
	}
	defer rows.Close()

	var runs []*ExportRun
	for rows.Next() {
		run, err := scanExportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const projectColumns = "id, name, timeline_json, created_at, updated_at"

const exportRunColumns = "id, project_id, state, backend, artifact_path, content_type, size_bytes, error_message, started_at, finished_at"

func scanProject(scanner interface{ Scan(dest ...any) error }) (*Project, error) {
	var (
		id           string
		name         string
		timelineJSON sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(&id, &name, &timelineJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	proj := &Project{
		ID:           id,
		Name:         name,
		TimelineJSON: timelineJSON.String,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		proj.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		proj.UpdatedAt = updated
	}
	return proj, nil
}

func scanExportRun(scanner interface{ Scan(dest ...any) error }) (*ExportRun, error) {
	var (
		id           string
		projectID    string
		state        string
		backend      string
		artifactPath sql.NullString
		contentType  sql.NullString
		sizeBytes    sql.NullInt64
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&projectID,
		&state,
		&backend,
		&artifactPath,
		&contentType,
		&sizeBytes,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &ExportRun{
		ID:           id,
		ProjectID:    projectID,
		State:        state,
		Backend:      backend,
		ArtifactPath: artifactPath.String,
		ContentType:  contentType.String,
		SizeBytes:    sizeBytes.Int64,
		ErrorMessage: errorMessage.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
