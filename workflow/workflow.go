package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/flowmate/ai"
	"github.com/poiesic/flowmate/core"
	"github.com/poiesic/flowmate/index"
	"github.com/poiesic/flowmate/language"
	"github.com/poiesic/flowmate/memory"
	"github.com/poiesic/flowmate/render"
	"github.com/poiesic/flowmate/retrieval"
)

// Indexer returns a searchable index for a document.
// Failures wrap core.ErrIndexUnavailable.
type Indexer interface {
	GetOrBuildScoped(ctx context.Context, scope, path string) (*index.Handle, error)
}

// Timeouts bound each step. Zero leaves a step bounded only by the
// request context.
type Timeouts struct {
	Classify time.Duration
	Index    time.Duration
	Retrieve time.Duration
	Generate time.Duration
	Render   time.Duration
}

// DefaultTimeouts returns the step timeouts used by New.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Classify: 30 * time.Second,
		Index:    10 * time.Minute,
		Retrieve: 30 * time.Second,
		Generate: 3 * time.Minute,
		Render:   30 * time.Second,
	}
}

// DefaultOutputDir receives rendered files unless WithOutputDir is given.
const DefaultOutputDir = "output"

// Workflow runs requests through the generation state machine.
// It is safe for concurrent use across sessions.
type Workflow struct {
	generator         ai.Generator
	classifier        ai.Generator
	indexer           Indexer
	enforcer          *language.Enforcer
	planner           *retrieval.Planner
	engine            *retrieval.Engine
	memory            *memory.Store
	renderers         map[core.TaskType]render.Renderer
	outputDir         string
	timeouts          Timeouts
	classifyMaxTokens int
	logger            *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClassifier sets the model used for intent classification.
// Defaults to the generator.
func WithClassifier(g ai.Generator) Option {
	return func(w *Workflow) {
		w.classifier = g
	}
}

func WithPlanner(p *retrieval.Planner) Option {
	return func(w *Workflow) {
		w.planner = p
	}
}

func WithEngine(e *retrieval.Engine) Option {
	return func(w *Workflow) {
		w.engine = e
	}
}

// WithMemory sets the conversation store. Defaults to a fresh store.
func WithMemory(m *memory.Store) Option {
	return func(w *Workflow) {
		w.memory = m
	}
}

// WithRenderer sets the renderer for a file-emitting task.
func WithRenderer(task core.TaskType, r render.Renderer) Option {
	return func(w *Workflow) {
		w.renderers[task] = r
	}
}

func WithOutputDir(dir string) Option {
	return func(w *Workflow) {
		w.outputDir = dir
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(w *Workflow) {
		w.timeouts = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// New creates a Workflow. Reports render to .docx and presentations to a
// Marp deck unless overridden with WithRenderer.
func New(generator ai.Generator, indexer Indexer, enforcer *language.Enforcer, opts ...Option) (*Workflow, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if enforcer == nil {
		return nil, ErrEnforcerRequired
	}
	w := &Workflow{
		generator: generator,
		indexer:   indexer,
		enforcer:  enforcer,
		renderers: map[core.TaskType]render.Renderer{
			core.TaskReport:       render.NewDocxRenderer(),
			core.TaskPresentation: render.NewSlideRenderer(),
		},
		outputDir:         DefaultOutputDir,
		timeouts:          DefaultTimeouts(),
		classifyMaxTokens: 16,
		logger:            slog.Default().With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.classifier == nil {
		w.classifier = w.generator
	}
	if w.planner == nil {
		w.planner = retrieval.NewPlanner()
	}
	if w.engine == nil {
		w.engine = retrieval.NewEngine()
	}
	if w.memory == nil {
		w.memory = memory.NewStore()
	}
	return w, nil
}

// Memory returns the conversation store.
func (w *Workflow) Memory() *memory.Store {
	return w.memory
}

type step struct {
	state   State
	failure string
	skip    func(*Run) bool
	run     func(context.Context, *Run, Request) error
}

// Execute runs req through every step and returns the finished run.
// Failures are reported on the run, never as a Go error.
func (w *Workflow) Execute(ctx context.Context, req Request) *Run {
	run := newRun(req)
	logger := w.logger.With("session", req.SessionID)

	switch {
	case strings.TrimSpace(req.Query) == "":
		run.fail(ErrQueryRequired, "요청 확인 실패: "+ErrQueryRequired.Error())
		return run
	case req.FilePath == "":
		run.fail(ErrFileRequired, "요청 확인 실패: "+ErrFileRequired.Error())
		return run
	}

	steps := []step{
		{state: StateIntentClassified, failure: "의도 분류 실패", run: w.classifyStep},
		{state: StateRetrieved, failure: "문서 검색 실패", run: w.retrieveStep},
		{state: StateGenerated, run: w.generateStep},
		{state: StateValidated, failure: "품질 검증 실패", run: w.validateStep},
		{state: StateOutputEmitted, failure: "파일 생성 실패", run: w.emitStep, skip: func(r *Run) bool {
			return !r.TaskType.EmitsFile()
		}},
	}
	for _, s := range steps {
		if s.skip != nil && s.skip(run) {
			continue
		}
		if err := s.run(ctx, run, req); err != nil {
			failure := s.failure
			if failure == "" {
				failure = generateFailure[run.TaskType]
			}
			message := failure + ": " + err.Error()
			if errors.Is(err, core.ErrEmptyResponse) {
				message = core.ErrEmptyResponse.Error()
			}
			logger.Warn("workflow step failed", "state", s.state, "task", run.TaskType, "err", err)
			run.fail(err, message)
			return run
		}
		run.enter(s.state)
	}

	run.Success = true
	if run.TaskType == core.TaskQuestionAnswer && req.SessionID != "" {
		w.memory.Session(req.SessionID).Append(req.Query, run.FinalResponse)
	}
	run.enter(StateDone)
	logger.Info("workflow complete", "task", run.TaskType, "fallback", run.UsedFallback, "output", run.OutputPath)
	return run
}

func (w *Workflow) classifyStep(ctx context.Context, run *Run, _ Request) error {
	ctx, cancel := withTimeout(ctx, w.timeouts.Classify)
	defer cancel()

	task, label, err := w.Classify(ctx, run.Query)
	if err != nil {
		return err
	}
	run.TaskType = task
	run.Label = label
	w.logger.Debug("intent classified", "label", label, "task", task)
	return nil
}

func (w *Workflow) retrieveStep(ctx context.Context, run *Run, req Request) error {
	run.Plan = w.planner.Plan(run.Query, run.TaskType)
	docContext, err := w.gatherContext(ctx, req, run.Plan)
	if err != nil {
		return err
	}
	run.Context = docContext.text
	run.Retrieved = docContext.chunks
	run.UsedFallback = docContext.fallback
	if docContext.fallback {
		run.Plan.TokenBudget = retrieval.FallbackTokens(run.Plan.TokenBudget)
	}
	return nil
}

func (w *Workflow) generateStep(ctx context.Context, run *Run, _ Request) error {
	var history string
	if run.TaskType == core.TaskQuestionAnswer && run.SessionID != "" {
		history = w.memory.Session(run.SessionID).Formatted()
	}
	prompt, err := taskPrompt(run.TaskType, run.Query, run.Context, history)
	if err != nil {
		return fmt.Errorf("format prompt: %w", err)
	}

	ctx, cancel := withTimeout(ctx, w.timeouts.Generate)
	defer cancel()
	out, err := w.generator.Generate(ctx, prompt, ai.GenerateOptions{
		System:    SystemPrompt,
		MaxTokens: run.Plan.TokenBudget,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrGenerationFailure, err)
	}
	run.RawResponse = out
	return nil
}

func (w *Workflow) validateStep(ctx context.Context, run *Run, _ Request) error {
	if strings.TrimSpace(run.RawResponse) == "" {
		return core.ErrEmptyResponse
	}
	outcome, err := w.enforcer.Enforce(ctx, run.RawResponse)
	if err != nil {
		return err
	}
	run.FinalResponse = outcome.Text
	run.Translated = outcome.Action == language.ActionTranslated
	return nil
}

func (w *Workflow) emitStep(ctx context.Context, run *Run, _ Request) error {
	r, ok := w.renderers[run.TaskType]
	if !ok || r == nil {
		return fmt.Errorf("%w: %s", ErrNoRenderer, run.TaskType)
	}
	ctx, cancel := withTimeout(ctx, w.timeouts.Render)
	defer cancel()

	out, err := r.Render(ctx, run.FinalResponse, render.OutputPath(w.outputDir, run.TaskType, r.Extension()))
	if err != nil {
		return err
	}
	run.OutputPath = out
	return nil
}

type retrieved struct {
	text     string
	chunks   int
	fallback bool
}

// gatherContext retrieves context for plan, falling back to the raw file
// when the index or the search is unavailable.
func (w *Workflow) gatherContext(ctx context.Context, req Request, plan retrieval.Plan) (retrieved, error) {
	logger := w.logger.With("path", req.FilePath)

	handle, err := func() (*index.Handle, error) {
		ctx, cancel := withTimeout(ctx, w.timeouts.Index)
		defer cancel()
		return w.indexer.GetOrBuildScoped(ctx, req.Scope, req.FilePath)
	}()
	if err == nil {
		ctx, cancel := withTimeout(ctx, w.timeouts.Retrieve)
		res, rerr := w.engine.Retrieve(ctx, handle, req.Query, plan)
		cancel()
		if rerr == nil {
			logger.Debug("context retrieved", "chunks", len(res.Chunks), "label", plan.Label, "k", plan.K)
			return retrieved{text: res.Text, chunks: len(res.Chunks)}, nil
		}
		err = rerr
	}
	if !errors.Is(err, core.ErrIndexUnavailable) && !errors.Is(err, core.ErrRetrievalFailure) {
		return retrieved{}, err
	}

	logger.Warn("using raw file fallback", "err", err)
	text, ferr := retrieval.ReadFallback(req.FilePath)
	if ferr != nil {
		return retrieved{}, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, ferr)
	}
	if text == "" {
		return retrieved{}, fmt.Errorf("%w: %w", core.ErrRetrievalFailure, errEmptyContext)
	}
	return retrieved{text: text, fallback: true}, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
