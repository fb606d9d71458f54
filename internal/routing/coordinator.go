package routing

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/navigation"
)

// Coordinator resolves locations to handlers. It is initialized exactly once
// for its lifetime.
type Coordinator struct {
	interceptor navigation.Interceptor
	logger      *zap.Logger
	metrics     *monitoring.Metrics

	mu          sync.RWMutex
	initialized bool
	table       *Table
	baseURI     string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records route outcomes.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = metrics
	}
}

// NewCoordinator creates an uninitialized coordinator that will arm
// interception through interceptor.
func NewCoordinator(interceptor navigation.Interceptor, opts ...Option) *Coordinator {
	c := &Coordinator{
		interceptor: interceptor,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize stores the route table and base URI and arms navigation
// interception. A failed arm call is reported, but the coordinator stays
// initialized: routing works, only client-side interception is missing.
func (c *Coordinator) Initialize(table *Table, baseURI string) error {
	c.mu.Lock()
	if c.initialized {
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if table == nil {
		c.mu.Unlock()
		return ErrNilTable
	}
	if baseURI == "" || !strings.HasSuffix(baseURI, "/") {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidBaseURI, baseURI)
	}
	c.table = table
	c.baseURI = baseURI
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("Routing initialized",
		zap.String("base_uri", baseURI),
		zap.Int("routes", table.Len()),
	)

	if err := c.interceptor.EnableInterception(); err != nil {
		c.logger.Error("Navigation interception failed", zap.Error(err))
		return err
	}
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (c *Coordinator) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// BaseURI returns the base URI, empty before initialization.
func (c *Coordinator) BaseURI() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURI
}

// RouteContext normalizes path into a fresh, unmatched route context.
func (c *Coordinator) RouteContext(path string) (*RouteContext, error) {
	c.mu.RLock()
	initialized, baseURI := c.initialized, c.baseURI
	c.mu.RUnlock()

	if !initialized {
		return nil, ErrNotInitialized
	}

	relative, err := Normalize(baseURI, path)
	if err != nil {
		return nil, err
	}
	return &RouteContext{Path: relative}, nil
}

// Route resolves an absolute location to a handler, or NoMatch.
func (c *Coordinator) Route(path string) (HandlerID, error) {
	ctx, err := c.RouteContext(path)
	if err != nil {
		var notContained *URINotContainedError
		if errors.As(err, &notContained) {
			c.metrics.RecordRoute("not_contained")
		}
		return NoMatch, err
	}

	c.mu.RLock()
	table := c.table
	c.mu.RUnlock()
	table.Route(ctx)

	if !ctx.Matched() {
		c.metrics.RecordRoute("no_match")
		c.logger.Debug("No route matched", zap.String("path", ctx.Path))
		return NoMatch, nil
	}

	c.metrics.RecordRoute("matched")
	return ctx.Handler, nil
}
