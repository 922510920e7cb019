// Package pipeline sequences extraction, raw persistence, structuring and
// rendering, and runs those pipelines as asynchronous jobs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/profilex/internal/browser"
	"github.com/dgallion1/profilex/internal/profile"
	"github.com/dgallion1/profilex/internal/render"
	"github.com/dgallion1/profilex/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Extractor harvests raw page text.
type Extractor interface {
	Extract(ctx context.Context, req browser.ExtractRequest) (browser.Harvest, error)
}

// Structurer turns raw text into a Profile with a single model call.
type Structurer interface {
	Structure(ctx context.Context, rawText string) (*profile.Profile, error)
}

// Capabilities select how far a run goes past raw persistence.
type Capabilities struct {
	Structure bool
	Render    bool
}

func FullCapabilities() Capabilities { return Capabilities{Structure: true, Render: true} }

type Options struct {
	OutputDir    string
	Formats      []render.Format
	Capabilities Capabilities
}

// Orchestrator runs one pipeline per call. It keeps no per-run state;
// concurrent runs into the same output directory are serialized.
type Orchestrator struct {
	extractor  Extractor
	structurer Structurer
	opts       Options
	locks      *store.DirLocks
	mirror     store.Mirror
	log        *slog.Logger
	backoff    func(attempt int) time.Duration
	renderer   func(render.Format) (render.Renderer, error)
}

func NewOrchestrator(extractor Extractor, structurer Structurer, opts Options, log *slog.Logger) *Orchestrator {
	if len(opts.Formats) == 0 {
		opts.Formats = render.DefaultFormats(false)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	return &Orchestrator{
		extractor:  extractor,
		structurer: structurer,
		opts:       opts,
		locks:      store.NewDirLocks(),
		log:        log,
		backoff:    Backoff,
		renderer:   render.ForFormat,
	}
}

// SetMirror publishes every run's files after it finishes. Mirror failures
// are logged and never change a Result.
func (o *Orchestrator) SetMirror(m store.Mirror) { o.mirror = m }

// Capabilities returns the configured capability flags.
func (o *Orchestrator) Capabilities() Capabilities { return o.opts.Capabilities }

// Request is the input of one extraction run.
type Request struct {
	ProfileURL  string
	Credentials browser.Credentials
	// OutputDir overrides the configured directory.
	OutputDir string
	Resolver  browser.ChallengeResolver
	// Observe is called on every stage entry.
	Observe func(Stage)
}

// ExtractAndRender runs extraction and then whatever the capability flags
// enable. Raw text is persisted before structuring starts.
func (o *Orchestrator) ExtractAndRender(ctx context.Context, req Request) *Result {
	res := &Result{RunID: uuid.New().String()}
	log := o.log.With("run_id", res.RunID, "profile_url", req.ProfileURL)
	observe := func(s Stage) {
		if req.Observe != nil {
			req.Observe(s)
		}
	}

	observe(StageValidating)
	if err := browser.ValidateCredentials(req.Credentials); err != nil {
		return o.fail(log, res, StageValidating, err)
	}
	if _, err := browser.ValidateProfileURL(req.ProfileURL); err != nil {
		return o.fail(log, res, StageValidating, err)
	}

	h, err := o.extractor.Extract(ctx, browser.ExtractRequest{
		ProfileURL:  req.ProfileURL,
		Credentials: req.Credentials,
		Resolver:    req.Resolver,
		Observe:     func(s browser.State) { observe(browserStage(s)) },
	})
	if err != nil {
		stage := browserStage(browser.StageOf(err))
		if stage == "" {
			stage = browserStage(browser.StateInit)
		}
		return o.fail(log, res, stage, err)
	}

	return o.continueFromRaw(ctx, log, res, h.Text, h.SourceURL, h.ExtractedAt, req.OutputDir, observe)
}

// RawInput is already-harvested text, such as a previous run's raw file.
type RawInput struct {
	Text        string
	SourceURL   string
	ExtractedAt time.Time
	OutputDir   string
}

// StructureAndRender runs the post-extraction half of the pipeline.
func (o *Orchestrator) StructureAndRender(ctx context.Context, in RawInput) *Result {
	res := &Result{RunID: uuid.New().String()}
	log := o.log.With("run_id", res.RunID, "source", in.SourceURL)
	if in.ExtractedAt.IsZero() {
		in.ExtractedAt = time.Now()
	}
	return o.continueFromRaw(ctx, log, res, in.Text, in.SourceURL, in.ExtractedAt, in.OutputDir, func(Stage) {})
}

func (o *Orchestrator) continueFromRaw(ctx context.Context, log *slog.Logger, res *Result, text, sourceURL string, at time.Time, outputDir string, observe func(Stage)) *Result {
	if outputDir == "" {
		outputDir = o.opts.OutputDir
	}

	observe(StagePersisting)
	dir, err := store.NewDir(outputDir)
	if err != nil {
		return o.fail(log, res, StagePersisting, err)
	}
	unlock, err := o.locks.Lock(ctx, dir.Root())
	if err != nil {
		return o.fail(log, res, StagePersisting, fmt.Errorf("wait for output dir %s: %w", dir.Root(), err))
	}
	defer unlock()

	res.RawPath, res.ProvenancePath, err = dir.PersistRaw(text, sourceURL, at)
	if err != nil {
		if res.RawPath == "" {
			return o.fail(log, res, StagePersisting, err)
		}
		log.Warn("pipeline.provenance_failed", "error", err)
	}
	log.Info("pipeline.raw_persisted", "path", res.RawPath, "bytes", len(text))

	defer o.publish(ctx, log, res)

	if !o.opts.Capabilities.Structure {
		res.Outcome, res.Stage = FullSuccess, StageDone
		observe(StageDone)
		return res
	}

	observe(StageStructuring)
	p, err := o.structureWithRetry(ctx, log, text)
	if err != nil {
		return o.partial(log, res, StageStructuring, err)
	}
	res.Profile = p

	if res.Artifacts.ProfileJSON, err = dir.WriteProfileJSON(p); err != nil {
		return o.partial(log, res, StageStructuring, err)
	}

	if !o.opts.Capabilities.Render {
		res.Outcome, res.Stage = FullSuccess, StageDone
		observe(StageDone)
		return res
	}

	observe(StageRendering)
	arts, renderErrs := o.renderAll(dir, p)
	res.Artifacts.Markdown, res.Artifacts.HTML = arts.Markdown, arts.HTML
	res.Artifacts.DOCX, res.Artifacts.PDF = arts.DOCX, arts.PDF
	if len(renderErrs) > 0 {
		res.RenderErrors = renderErrs
		var errs []error
		for _, f := range res.FailedFormats() {
			errs = append(errs, fmt.Errorf("%s: %w", f, renderErrs[f]))
		}
		return o.partial(log, res, StageRendering, errors.Join(errs...))
	}

	res.Outcome, res.Stage = FullSuccess, StageDone
	observe(StageDone)
	log.Info("pipeline.completed", "artifacts", len(res.Artifacts.Files()))
	return res
}

// RenderProfile writes every configured format for p into outputDir.
func (o *Orchestrator) RenderProfile(ctx context.Context, p *profile.Profile, outputDir string) (Artifacts, map[render.Format]error, error) {
	if outputDir == "" {
		outputDir = o.opts.OutputDir
	}
	dir, err := store.NewDir(outputDir)
	if err != nil {
		return Artifacts{}, nil, err
	}
	unlock, err := o.locks.Lock(ctx, dir.Root())
	if err != nil {
		return Artifacts{}, nil, err
	}
	defer unlock()

	arts, errs := o.renderAll(dir, p)
	return arts, errs, nil
}

func (o *Orchestrator) structureWithRetry(ctx context.Context, log *slog.Logger, text string) (*profile.Profile, error) {
	for attempt := 0; ; attempt++ {
		p, err := o.structurer.Structure(ctx, text)
		if err == nil || !IsRetryable(err) || attempt >= MaxRetries {
			return p, err
		}
		wait := retryDelay(err, attempt, o.backoff)
		log.Warn("pipeline.structure_retry", "attempt", attempt+1, "wait_ms", wait.Milliseconds(), "error", err)

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
}

// renderAll renders formats concurrently. A failing renderer never stops
// the others.
func (o *Orchestrator) renderAll(dir *store.Dir, p *profile.Profile) (Artifacts, map[render.Format]error) {
	var (
		mu   sync.Mutex
		arts Artifacts
		errs = map[render.Format]error{}
		g    errgroup.Group
	)
	for _, f := range o.opts.Formats {
		g.Go(func() error {
			path, err := o.renderOne(dir, f, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[f] = err
				return nil
			}
			arts.set(f, path)
			return nil
		})
	}
	_ = g.Wait()

	for f, err := range errs {
		o.log.Error("pipeline.render_failed", "format", f, "error", err)
	}
	if len(errs) == 0 {
		return arts, nil
	}
	return arts, errs
}

func (o *Orchestrator) renderOne(dir *store.Dir, f render.Format, p *profile.Profile) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	r, err := o.renderer(f)
	if err != nil {
		return "", err
	}
	data, err := r.Render(p)
	if err != nil {
		return "", err
	}
	return dir.WriteAtomic(store.ArtifactName(r.Extension()), data)
}

func (o *Orchestrator) publish(ctx context.Context, log *slog.Logger, res *Result) {
	if o.mirror == nil {
		return
	}
	files := append([]string{res.RawPath}, res.Artifacts.Files()...)
	if res.ProvenancePath != "" {
		files = append(files, res.ProvenancePath)
	}
	if err := o.mirror.Publish(context.WithoutCancel(ctx), res.RunID, files); err != nil {
		log.Warn("pipeline.mirror_failed", "error", err)
	}
}

func (o *Orchestrator) fail(log *slog.Logger, res *Result, stage Stage, err error) *Result {
	res.Outcome, res.Stage, res.Err = Failure, stage, err
	log.Error("pipeline.failed", "stage", stage, "error", err)
	return res
}

func (o *Orchestrator) partial(log *slog.Logger, res *Result, stage Stage, err error) *Result {
	res.Outcome, res.Stage, res.Err = PartialSuccess, stage, err
	log.Warn("pipeline.partial", "stage", stage, "raw_path", res.RawPath, "error", err)
	return res
}
