package navigation

import (
	"fmt"

	"go.uber.org/zap"
)

// Bridge invokes functions on the in-process runtime.
type Bridge interface {
	Invoke(identifier string, args ...any) (any, error)
}

// Local arms interception directly on the in-process runtime. It holds no
// state; repeated calls are harmless because the runtime side is idempotent.
type Local struct {
	bridge   Bridge
	callback Callback
	logger   *zap.Logger
	onArm    ArmObserver
}

// NewLocal creates a Local interceptor bound to bridge.
func NewLocal(bridge Bridge, callback Callback, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		bridge:   bridge,
		callback: callback,
		logger:   logger,
	}
}

// WithArmObserver sets a hook called after each successful arm call.
func (l *Local) WithArmObserver(fn ArmObserver) *Local {
	l.onArm = fn
	return l
}

// EnableInterception implements Interceptor.
func (l *Local) EnableInterception() error {
	if _, err := l.bridge.Invoke(EnableInterceptionIdentifier, l.callback.args()...); err != nil {
		return fmt.Errorf("failed to enable navigation interception: %w", err)
	}
	if l.onArm != nil {
		l.onArm("local")
	}
	l.logger.Debug("Navigation interception armed", zap.String("variant", "local"))
	return nil
}
