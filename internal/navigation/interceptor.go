package navigation

// EnableInterceptionIdentifier is the interop function that arms link
// interception on the browser side.
const EnableInterceptionIdentifier = "navigation.enableInterception"

// Interceptor arms browser navigation interception.
type Interceptor interface {
	EnableInterception() error
}

// Callback names the receiver of location-changed notifications.
type Callback struct {
	Assembly string
	Method   string
}

// DefaultCallback is the receiver used by the host.
var DefaultCallback = Callback{
	Assembly: "ComponentHost",
	Method:   "NotifyLocationChanged",
}

func (c Callback) args() []any {
	return []any{c.Assembly, c.Method}
}
