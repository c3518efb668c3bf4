package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/services"
	"cutroom/internal/timeline"
	"cutroom/internal/workspace"
)

// State is the pipeline lifecycle. Only Idle may transition to Processing;
// Success and Error are terminal until Reset.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateError      State = "error"
)

// Artifact is the finished export output: one file plus a content-type
// label. Consumers treat the bytes opaquely.
type Artifact struct {
	Path        string
	ContentType string
	Size        int64
}

// Hooks carries the host's progress and result callbacks. Progress values
// are integers 0-100, non-decreasing, and stop at the terminal transition.
type Hooks struct {
	OnProgress func(int)
	OnSuccess  func(Artifact)
	OnError    func(error)
}

// Pipeline assembles a timeline snapshot into one output artifact through
// the staged trim/concat/mix/mux walk. A pipeline owns at most one run at a
// time.
type Pipeline struct {
	cfg     *config.Config
	variant Variant
	logger  *slog.Logger

	mu       sync.Mutex
	state    State
	artifact *Artifact
	runErr   error
}

// NewPipeline builds an idle pipeline over the resolved backend variant.
func NewPipeline(cfg *config.Config, variant Variant, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		variant: variant,
		logger:  logging.WithComponent(logger, "export"),
		state:   StateIdle,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the terminal outcome, if any.
func (p *Pipeline) Result() (*Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.artifact, p.runErr
}

// Reset returns a terminal pipeline to Idle so the caller can retry. It
// refuses while a run is processing.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateProcessing {
		return services.Wrap(services.ErrBusy, "export", "reset", "export still processing", nil)
	}
	p.state = StateIdle
	p.artifact = nil
	p.runErr = nil
	return nil
}

// Run is a handle to one in-flight export.
type Run struct {
	id       string
	reporter *progressReporter
	done     chan struct{}

	mu        sync.Mutex
	discarded bool
	artifact  *Artifact
	err       error
}

// ID returns the export run identifier.
func (r *Run) ID() string {
	return r.id
}

// Done is closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes and returns its outcome.
func (r *Run) Wait() (*Artifact, error) {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact, r.err
}

// Discard drops the run's result: the in-flight backend work is allowed to
// finish, but no further callback fires and the artifact is deleted on
// completion. There is no mid-stream abort.
func (r *Run) Discard() {
	r.mu.Lock()
	r.discarded = true
	r.mu.Unlock()
	r.reporter.seal()
}

func (r *Run) isDiscarded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discarded
}

// Export starts assembling the snapshot in the background. It rejects the
// call when a run is already processing; two runs would contend for the
// staging namespace.
func (p *Pipeline) Export(ctx context.Context, snap timeline.Snapshot, hooks Hooks) (*Run, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mu.Unlock()
		return nil, services.Wrap(services.ErrBusy, "export", "start", fmt.Sprintf("pipeline is %s, not idle", state), nil)
	}
	p.state = StateProcessing
	p.artifact = nil
	p.runErr = nil
	p.mu.Unlock()

	run := &Run{
		id:       uuid.NewString(),
		reporter: newProgressReporter(hooks.OnProgress),
		done:     make(chan struct{}),
	}
	go p.execute(ctx, snap, hooks, run)
	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, snap timeline.Snapshot, hooks Hooks, run *Run) {
	ctx = services.WithExportID(ctx, run.id)
	logger := p.logger.With(logging.String(logging.FieldExportID, run.id))
	started := time.Now()

	artifact, err := p.assemble(ctx, snap, run, logger)

	run.reporter.seal()
	discarded := run.isDiscarded()

	if discarded && artifact != nil {
		_ = os.Remove(artifact.Path)
		artifact = nil
		if err == nil {
			err = services.Wrap(services.ErrTransient, "export", "run", "result discarded", nil)
		}
	}

	p.mu.Lock()
	if err != nil {
		p.state = StateError
		p.runErr = err
	} else {
		p.state = StateSuccess
		p.artifact = artifact
	}
	p.mu.Unlock()

	run.mu.Lock()
	run.artifact = artifact
	run.err = err
	run.mu.Unlock()
	close(run.done)

	switch {
	case discarded:
		logger.Info("export discarded", logging.Duration("elapsed", time.Since(started)))
	case err != nil:
		logger.Error("export failed", logging.Error(err), logging.Duration("elapsed", time.Since(started)))
		if hooks.OnError != nil {
			hooks.OnError(err)
		}
	default:
		logger.Info("export complete",
			logging.String("artifact", artifact.Path),
			logging.Duration("elapsed", time.Since(started)),
		)
		if hooks.OnSuccess != nil {
			hooks.OnSuccess(*artifact)
		}
	}
}

// assemble walks the staged algorithm: clip isolation and concat (0-50),
// audio isolation (50-90), mix and mux (90-100). The timeline snapshot is
// read-only throughout.
func (p *Pipeline) assemble(ctx context.Context, snap timeline.Snapshot, run *Run, logger *slog.Logger) (artifact *Artifact, retErr error) {
	if len(snap.Clips) == 0 {
		return nil, services.Wrap(services.ErrValidation, "export", "start", "timeline has no clips", nil)
	}

	lockTimeout := time.Duration(p.cfg.LockTimeoutSeconds) * time.Second
	ws, err := workspace.Acquire(ctx, p.cfg.StagingDir, run.id, lockTimeout, logger)
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output directory: %w", err)
	}
	outPath := filepath.Join(p.cfg.OutputDir, "export-"+run.id+p.artifactExt())
	defer func() {
		if retErr != nil {
			// Never leave a partial artifact reachable.
			_ = os.Remove(outPath)
		}
	}()

	backend := p.variant.Backend
	reporter := run.reporter

	// Stage 1: per-clip isolation, stream-copied.
	segments := make([]string, 0, len(snap.Clips))
	for i, clip := range snap.Clips {
		dest := ws.Path(fmt.Sprintf("clip_%02d.mp4", i))
		if err := backend.TrimVideo(ctx, clip.SourceRef, clip.StartTime, clip.EndTime, dest); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "export", "clip isolation", clip.Title, err)
		}
		segments = append(segments, dest)
		reporter.report(45 * float64(i+1) / float64(len(snap.Clips)))
	}
	logStage(logger, "clip isolation", 45)

	// Stage 2: concatenation into one video-only artifact.
	concatPath := ws.Path("concat.mp4")
	if err := backend.Concat(ctx, segments, concatPath); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "export", "concat", "", err)
	}
	reporter.report(50)
	logStage(logger, "concat", 50)

	// Stage 3: no-audio fast path.
	if len(snap.AudioTracks) == 0 {
		if err := backend.Copy(ctx, concatPath, outPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "export", "finalize", "", err)
		}
		reporter.complete()
		return p.finishArtifact(outPath)
	}

	// Stage 4: per-track isolation with volume. An unreadable track is
	// skipped, not fatal.
	processed := make([]string, 0, len(snap.AudioTracks))
	for i, track := range snap.AudioTracks {
		dest := ws.Path(fmt.Sprintf("track_%02d.m4a", i))
		if err := backend.TrimAudio(ctx, track.SourceRef, track.StartTime, track.EndTime, track.Volume, dest); err != nil {
			logger.Warn("audio track skipped",
				logging.String("track", track.Title),
				logging.String(logging.FieldSource, track.SourceRef),
				logging.Error(err),
			)
		} else {
			processed = append(processed, dest)
		}
		reporter.report(50 + 40*float64(i+1)/float64(len(snap.AudioTracks)))
	}
	logStage(logger, "audio isolation", 90)

	// Stage 5: mixing, longest duration wins. All tracks failing falls
	// back to the no-audio path.
	if len(processed) == 0 {
		logger.Warn("all audio tracks failed, exporting without audio")
		if err := backend.Copy(ctx, concatPath, outPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "export", "finalize", "", err)
		}
		reporter.complete()
		return p.finishArtifact(outPath)
	}
	mixPath := ws.Path("mix.m4a")
	if err := backend.MixAudio(ctx, processed, mixPath); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "export", "mix", "", err)
	}

	// Stage 6: final mux. When the concatenated video carries its own
	// audio, blend it with the mixed track instead of replacing either.
	blend, err := backend.HasAudio(ctx, concatPath)
	if err != nil {
		logger.Warn("audio stream inspection failed, mapping directly", logging.Error(err))
		blend = false
	}
	if err := backend.Mux(ctx, concatPath, mixPath, blend, outPath); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "export", "mux", "", err)
	}
	reporter.complete()
	logStage(logger, "mux", 100)
	return p.finishArtifact(outPath)
}

func logStage(logger *slog.Logger, stage string, percent int) {
	logger.Debug("stage complete",
		logging.String(logging.FieldStage, stage),
		logging.Int(logging.FieldPercent, percent),
	)
}

func (p *Pipeline) finishArtifact(path string) (*Artifact, error) {
	artifact := &Artifact{Path: path, ContentType: p.contentType()}
	if info, err := os.Stat(path); err == nil {
		artifact.Size = info.Size()
	}
	return artifact, nil
}

func (p *Pipeline) artifactExt() string {
	if p.variant.Kind == BackendMock {
		return ".txt"
	}
	return ".mp4"
}

func (p *Pipeline) contentType() string {
	if p.variant.Kind == BackendMock {
		return "text/plain; charset=utf-8"
	}
	return "video/mp4"
}
