// Package workspace manages the per-export intermediate artifact namespace.
// A file lock serializes exports: two concurrent runs would contend for the
// same staging names, so the second acquire is rejected instead of
// interleaved.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"cutroom/internal/logging"
	"cutroom/internal/services"
)

// Workspace is an exclusive staging directory for one export run.
type Workspace struct {
	id   string
	dir  string
	lock *flock.Flock

	logger *slog.Logger
}

// Acquire claims the staging lock and creates a directory named by the
// export ID. It fails with a busy marker when another export holds the lock
// past the timeout.
func Acquire(ctx context.Context, stagingRoot, exportID string, timeout time.Duration, logger *slog.Logger) (*Workspace, error) {
	if stagingRoot == "" {
		return nil, services.Wrap(services.ErrValidation, "workspace", "acquire", "staging root not configured", nil)
	}
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging root: %w", err)
	}

	lock := flock.New(filepath.Join(stagingRoot, "export.lock"))
	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	locked, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil || !locked {
		return nil, services.Wrap(services.ErrBusy, "workspace", "acquire", "another export is in flight", err)
	}

	dir := filepath.Join(stagingRoot, exportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}

	return &Workspace{
		id:     exportID,
		dir:    dir,
		lock:   lock,
		logger: logging.WithComponent(logger, "workspace"),
	}, nil
}

// ID returns the export identifier the workspace belongs to.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the location for a named intermediate artifact.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes every intermediate artifact and frees the staging lock.
// It runs on both success and failure paths so repeated attempts within one
// session cannot accumulate temp files.
func (w *Workspace) Release() {
	if w == nil {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.logger.Warn("failed to remove workspace", logging.String("dir", w.dir), logging.Error(err))
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release staging lock", logging.Error(err))
	}
}
