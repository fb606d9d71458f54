package sandbox

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/GriffinCanCode/AgentOS/uihost/internal/infrastructure/httpclient"
)

var (
	ErrClosed            = errors.New("runtime closed")
	ErrAlreadyStarted    = errors.New("runtime already started")
	ErrUnknownAssembly   = errors.New("assembly not loaded")
	ErrNotCallable       = errors.New("identifier is not callable")
	ErrMIMETypeRefused   = errors.New("refused resource with disallowed MIME type")
	ErrNoResourceAddress = errors.New("element has no resource address")
)

// Config defines runtime configuration
type Config struct {
	Timeout          time.Duration // Per-evaluation timeout, 0 disables
	MaxCallStackSize int
	EnableConsole    bool
}

// DefaultConfig returns runtime defaults
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		MaxCallStackSize: 1024,
		EnableConsole:    true,
	}
}

// LogEntry represents console output
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// Fetcher retrieves remote resources
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*httpclient.Resource, error)
}

// LocationListener receives navigations issued by application code.
// intercepted reports whether interception was armed at the time.
type LocationListener func(uri string, intercepted bool)

// ScriptError carries a JavaScript exception out of the runtime
type ScriptError struct {
	Source string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// AssemblyName derives the name an assembly is registered under from its
// URL: the last path segment without query, fragment or extension.
func AssemblyName(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	base := path.Base(url)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
