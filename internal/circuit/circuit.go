package circuit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/navigation"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/shared/id"
)

var (
	// ErrNilConnection is returned when attaching a nil connection
	ErrNilConnection = errors.New("circuit: nil connection")
	// ErrRetired is returned when attaching to a circuit removed by the sweeper
	ErrRetired = errors.New("circuit: retired")
)

// Circuit is the server-side state of one remote application: its
// interceptor and routing survive browser reconnects.
type Circuit struct {
	ID        id.CircuitID
	CreatedAt time.Time

	interceptor *navigation.Remote
	coordinator *routing.Coordinator
	logger      *zap.Logger

	mu             sync.Mutex
	conn           navigation.Connection
	hooks          []func(navigation.Connection)
	disconnectedAt time.Time
	retired        bool
}

// New creates a circuit and initializes its routing. Interception is
// requested immediately and armed when the first connection attaches.
func New(cid id.CircuitID, table *routing.Table, baseURI string, logger *zap.Logger, metrics *monitoring.Metrics) (*Circuit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("circuit_id", cid.String()))

	now := time.Now()
	c := &Circuit{
		ID:        cid,
		CreatedAt: now,
		logger:    logger,
	}
	// Unattached circuits expire like disconnected ones
	c.disconnectedAt = now

	c.interceptor = navigation.NewRemote(navigation.DefaultCallback, logger).
		WithArmObserver(metrics.RecordInterceptionArm)
	c.interceptor.Register(c)

	c.coordinator = routing.NewCoordinator(c.interceptor,
		routing.WithLogger(logger),
		routing.WithMetrics(metrics),
	)
	if err := c.coordinator.Initialize(table, baseURI); err != nil {
		return nil, fmt.Errorf("failed to initialize circuit routing: %w", err)
	}

	return c, nil
}

// OnAttach implements navigation.AttachNotifier
func (c *Circuit) OnAttach(fn func(navigation.Connection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Attach makes conn the circuit's connection and runs attach hooks
func (c *Circuit) Attach(conn navigation.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	c.mu.Lock()
	if c.retired {
		c.mu.Unlock()
		return ErrRetired
	}
	c.conn = conn
	c.disconnectedAt = time.Time{}
	hooks := append([]func(navigation.Connection){}, c.hooks...)
	c.mu.Unlock()

	c.logger.Info("Connection attached to circuit")
	for _, hook := range hooks {
		hook(conn)
	}
	return nil
}

// Detach drops conn if it is still attached and starts the retention clock
func (c *Circuit) Detach(conn navigation.Connection) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.disconnectedAt = time.Now()
	c.mu.Unlock()

	c.interceptor.DetachConnection(conn)
	c.logger.Info("Connection detached from circuit")
}

// Connected reports whether a live connection is attached
func (c *Circuit) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.Connected()
}

// DisconnectedAt reports when the last connection detached
func (c *Circuit) DisconnectedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectedAt, c.conn == nil && !c.disconnectedAt.IsZero()
}

// retire marks the circuit retired if it has been without a connection for
// at least retention at now. A retired circuit accepts no further attaches.
func (c *Circuit) retire(now time.Time, retention time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retired {
		return true
	}
	if c.conn != nil || c.disconnectedAt.IsZero() || now.Sub(c.disconnectedAt) < retention {
		return false
	}
	c.retired = true
	return true
}

// Route resolves a browser location to a handler
func (c *Circuit) Route(location string) (routing.HandlerID, error) {
	return c.coordinator.Route(location)
}

// BaseURI returns the base URI routing was initialized with
func (c *Circuit) BaseURI() string {
	return c.coordinator.BaseURI()
}

// InterceptionRequested reports whether routing asked for interception
func (c *Circuit) InterceptionRequested() bool {
	return c.interceptor.Requested()
}
