package project

import "time"

// Project is one saved editing session: a name plus the serialized
// timeline state.
type Project struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// TimelineJSON holds the serialized snapshot; empty for a project
	// that has never been saved.
	TimelineJSON string
}

// ExportRun records one export attempt against a project, terminal or
// in-flight.
type ExportRun struct {
	ID           string
	ProjectID    string
	State        string
	Backend      string
	ArtifactPath string
	ContentType  string
	SizeBytes    int64
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Finished reports whether the run has a recorded terminal timestamp.
func (r *ExportRun) Finished() bool {
	return r.FinishedAt != nil
}
