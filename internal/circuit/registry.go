package circuit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/routing"
	"github.com/GriffinCanCode/AgentOS/uihost/internal/shared/id"
)

// ErrNotFound is returned for unknown or expired circuits
var ErrNotFound = errors.New("circuit not found")

// Registry tracks live circuits
type Registry struct {
	circuits sync.Map
	count    atomic.Int64

	table   *routing.Table
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewRegistry creates a registry whose circuits route with table
func NewRegistry(table *routing.Table, logger *zap.Logger, metrics *monitoring.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		table:   table,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Create starts a new circuit rooted at the browser's base URI
func (r *Registry) Create(baseURI string) (*Circuit, error) {
	c, err := New(id.NewCircuitID(), r.table, baseURI, r.logger, r.metrics)
	if err != nil {
		return nil, err
	}

	r.circuits.Store(c.ID, c)
	r.metrics.SetCircuitsActive(int(r.count.Add(1)))
	r.logger.Info("Circuit created", zap.String("circuit_id", c.ID.String()))
	return c, nil
}

// Get retrieves a circuit by ID
func (r *Registry) Get(cid id.CircuitID) (*Circuit, error) {
	val, ok := r.circuits.Load(cid)
	if !ok {
		return nil, ErrNotFound
	}
	return val.(*Circuit), nil
}

// Remove deletes a circuit
func (r *Registry) Remove(cid id.CircuitID) bool {
	if _, loaded := r.circuits.LoadAndDelete(cid); !loaded {
		return false
	}
	r.metrics.SetCircuitsActive(int(r.count.Add(-1)))
	return true
}

// Len returns the number of circuits
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Sweep removes circuits that have been disconnected longer than retention
func (r *Registry) Sweep(retention time.Duration) int {
	now := r.now()
	var expired []id.CircuitID

	r.circuits.Range(func(key, value any) bool {
		if since, ok := value.(*Circuit).DisconnectedAt(); ok && now.Sub(since) >= retention {
			expired = append(expired, key.(id.CircuitID))
		}
		return true
	})

	removed := 0
	for _, cid := range expired {
		if r.expire(cid, now, retention) {
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("Swept disconnected circuits", zap.Int("removed", removed), zap.Int("remaining", r.Len()))
	}
	return removed
}

// expire removes cid if it is still idle; a circuit resumed since it was
// collected is kept.
func (r *Registry) expire(cid id.CircuitID, now time.Time, retention time.Duration) bool {
	c, err := r.Get(cid)
	if err != nil || !c.retire(now, retention) {
		return false
	}
	return r.Remove(cid)
}

// RunSweeper sweeps every interval until ctx is done
func (r *Registry) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(retention)
		}
	}
}
