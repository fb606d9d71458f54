package boot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
)

// State is the boot lifecycle position
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateRuntimeLoading
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateRuntimeLoading:
		return "runtime_loading"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Platform is the runtime the application assemblies execute in
type Platform interface {
	Start(ctx context.Context, assemblyURLs []string, onLoaded func(url string)) error
	CallEntryPoint(assemblyName, entryPoint string, args []any) error
}

// Option configures a Sequencer
type Option func(*Sequencer)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records boot progress and outcome
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Sequencer) {
		s.metrics = metrics
	}
}

// WithObserver subscribes obs before boot starts
func WithObserver(obs Observer) Option {
	return func(s *Sequencer) {
		s.observers = append(s.observers, obs)
	}
}

// Sequencer runs a single boot: manifest, runtime start alongside embedded
// resources, then the entry point.
type Sequencer struct {
	fetcher   ManifestFetcher
	platform  Platform
	document  Document
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	observers []Observer

	progress *Progress
	manifest *Manifest

	mu    sync.Mutex
	state State
}

// NewSequencer creates a sequencer. It owns its Progress.
func NewSequencer(fetcher ManifestFetcher, platform Platform, document Document, opts ...Option) *Sequencer {
	s := &Sequencer{
		fetcher:  fetcher,
		platform: platform,
		document: document,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.progress = NewProgress(s.metrics)
	for _, obs := range s.observers {
		s.progress.Subscribe(obs)
	}
	return s
}

// Progress returns the progress observers subscribe to
func (s *Sequencer) Progress() *Progress {
	return s.progress
}

// State returns the current lifecycle state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Manifest returns the parsed manifest once fetched
func (s *Sequencer) Manifest() *Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// Boot runs the sequence once. Every outcome except ErrAlreadyStarted
// produces exactly one completion or failure notification.
func (s *Sequencer) Boot(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateNotStarted {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateStarting
	s.mu.Unlock()

	start := time.Now()
	if err := s.run(ctx); err != nil {
		s.setState(StateFailed)
		s.metrics.RecordBootOutcome("failed", time.Since(start))
		s.logger.Error("Boot failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		s.progress.Fail(err)
		return err
	}

	s.setState(StateRunning)
	s.metrics.RecordBootOutcome("running", time.Since(start))
	s.logger.Info("Boot complete",
		zap.String("progress", s.progress.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.progress.Complete()
	return nil
}

func (s *Sequencer) run(ctx context.Context) error {
	manifest, err := s.fetcher.FetchManifest(ctx)
	if err != nil {
		return &StartError{Reason: "failed to fetch boot manifest", Err: err}
	}

	s.mu.Lock()
	s.manifest = manifest
	s.mu.Unlock()

	if !manifest.LinkerEnabled {
		s.logger.Info("Running in development mode; assemblies are not trimmed by the linker")
	}

	s.progress.Start(manifest.TotalResources())

	loader := NewResourceLoader(s.document, s.progress, s.logger)
	resourcesDone := make(chan error, 1)
	go func() {
		resourcesDone <- loader.LoadAll(ctx, manifest.Resources())
	}()

	s.setState(StateRuntimeLoading)

	// Referenced assemblies are progress steps, one per manifest entry; the
	// main assembly is accounted for by the entry point call.
	assemblyURLs := manifest.AssemblyURLs()
	pending := make(map[string]int, len(assemblyURLs))
	for _, url := range assemblyURLs[1:] {
		pending[url]++
	}
	remaining := len(assemblyURLs) - 1
	var pendingMu sync.Mutex
	onLoaded := func(url string) {
		pendingMu.Lock()
		defer pendingMu.Unlock()
		if pending[url] > 0 {
			pending[url]--
			remaining--
			s.progress.Increment()
		}
	}

	if err := s.platform.Start(ctx, assemblyURLs, onLoaded); err != nil {
		return &StartError{Reason: "failed to start platform", Err: err}
	}

	// Platforms that do not report per assembly still account for each one
	pendingMu.Lock()
	s.progress.Add(remaining)
	remaining = 0
	clear(pending)
	pendingMu.Unlock()

	if err := <-resourcesDone; err != nil {
		return fmt.Errorf("failed to load embedded resources: %w", err)
	}

	if err := s.platform.CallEntryPoint(manifest.MainAssemblyName(), manifest.EntryPoint, nil); err != nil {
		return &StartError{Reason: "failed to call entry point", Err: err}
	}
	s.progress.Increment()
	return nil
}

func (s *Sequencer) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}
