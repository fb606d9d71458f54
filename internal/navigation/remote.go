package navigation

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Connection is the transport link to an attached browser.
type Connection interface {
	Connected() bool
	InvokeAsync(identifier string, args ...any) error
}

// AttachNotifier lets interested parties hear about connection attaches.
type AttachNotifier interface {
	OnAttach(fn func(Connection))
}

// ArmObserver is told about every arm call issued on a connection.
type ArmObserver func(variant string)

// Remote arms interception over a persistent connection. A request made
// while no live connection exists is remembered and replayed on attach.
type Remote struct {
	mu        sync.Mutex
	requested bool
	conn      Connection

	callback Callback
	logger   *zap.Logger
	onArm    ArmObserver
}

// NewRemote creates a Remote interceptor with no connection attached.
func NewRemote(callback Callback, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		callback: callback,
		logger:   logger,
	}
}

// WithArmObserver sets a hook called after each successful arm call.
func (r *Remote) WithArmObserver(fn ArmObserver) *Remote {
	r.mu.Lock()
	r.onArm = fn
	r.mu.Unlock()
	return r
}

// Register subscribes to the notifier's attach hook.
func (r *Remote) Register(n AttachNotifier) {
	n.OnAttach(func(conn Connection) {
		if err := r.AttachConnection(conn); err != nil {
			r.logger.Warn("Failed to arm navigation interception on attach", zap.Error(err))
		}
	})
}

// EnableInterception implements Interceptor. It arms immediately when a
// live connection is attached and otherwise defers until the next attach.
// Each call with a live connection issues its own arm call.
func (r *Remote) EnableInterception() error {
	r.mu.Lock()
	r.requested = true
	conn := r.conn
	r.mu.Unlock()

	if conn == nil || !conn.Connected() {
		r.logger.Debug("Navigation interception deferred until connection attaches")
		return nil
	}
	return r.arm(conn)
}

// AttachConnection makes conn the active connection and replays a pending
// interception request on it.
func (r *Remote) AttachConnection(conn Connection) error {
	if conn == nil {
		return fmt.Errorf("navigation: cannot attach nil connection")
	}

	r.mu.Lock()
	r.conn = conn
	requested := r.requested
	r.mu.Unlock()

	if !requested {
		return nil
	}
	return r.arm(conn)
}

// DetachConnection clears the back reference if conn is still the active one.
func (r *Remote) DetachConnection(conn Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == conn {
		r.conn = nil
	}
}

// Requested reports whether interception has been asked for.
func (r *Remote) Requested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requested
}

func (r *Remote) arm(conn Connection) error {
	if err := conn.InvokeAsync(EnableInterceptionIdentifier, r.callback.args()...); err != nil {
		return fmt.Errorf("failed to enable navigation interception: %w", err)
	}

	r.mu.Lock()
	onArm := r.onArm
	r.mu.Unlock()
	if onArm != nil {
		onArm("remote")
	}

	r.logger.Debug("Navigation interception armed", zap.String("variant", "remote"))
	return nil
}
