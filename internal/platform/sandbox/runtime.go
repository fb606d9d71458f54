package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type navigation struct {
	uri         string
	intercepted bool
}

// Runtime hosts application assemblies in a goja VM. All VM access is
// serialized by mu; host functions exposed to scripts run with mu held and
// therefore only touch state guarded by stateMu.
type Runtime struct {
	vm      *goja.Runtime
	config  Config
	fetcher Fetcher
	logger  *zap.Logger
	mu      sync.Mutex

	assemblies map[string]*goja.Object
	started    bool
	closed     bool

	stateMu         sync.Mutex
	interceptAsm    string
	interceptMethod string
	intercepting    bool
	pending         []navigation
	listeners       []LocationListener
	console         []LogEntry
}

// New creates a runtime. fetcher may be nil when assemblies are evaluated
// directly through EvaluateScript.
func New(config Config, fetcher Fetcher, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runtime{
		vm:         goja.New(),
		config:     config,
		fetcher:    fetcher,
		logger:     logger,
		assemblies: make(map[string]*goja.Object),
	}

	if config.MaxCallStackSize > 0 {
		r.vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Start fetches every assembly concurrently, then evaluates them in the
// given order. onLoaded is called once per assembly after it evaluates.
func (r *Runtime) Start(ctx context.Context, assemblyURLs []string, onLoaded func(url string)) error {
	if r.fetcher == nil {
		return errors.New("runtime has no fetcher")
	}

	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return ErrClosed
	case r.started:
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	sources := make([]string, len(assemblyURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, url := range assemblyURLs {
		g.Go(func() error {
			res, err := r.fetcher.Fetch(gctx, url)
			if err != nil {
				return fmt.Errorf("failed to fetch assembly %s: %w", url, err)
			}
			sources[i] = string(res.Body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, url := range assemblyURLs {
		if err := r.loadAssembly(ctx, url, sources[i]); err != nil {
			return err
		}
		if onLoaded != nil {
			onLoaded(url)
		}
	}

	r.logger.Info("Runtime started", zap.Int("assemblies", len(assemblyURLs)))
	return nil
}

// LoadAssembly evaluates source as a module body and registers its exports
// under AssemblyName(url).
func (r *Runtime) LoadAssembly(ctx context.Context, url, source string) error {
	return r.loadAssembly(ctx, url, source)
}

func (r *Runtime) loadAssembly(ctx context.Context, url, source string) error {
	name := AssemblyName(url)
	wrapped := "(function(exports){\n" + source + "\n})"

	err := r.locked(ctx, func() error {
		val, err := r.vm.RunScript(url, wrapped)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(val)
		if !ok {
			return ErrNotCallable
		}
		exports := r.vm.NewObject()
		if _, err := fn(goja.Undefined(), exports); err != nil {
			return err
		}
		r.assemblies[name] = exports
		return nil
	})
	if err != nil {
		return &ScriptError{Source: url, Err: err}
	}

	r.logger.Debug("Assembly loaded", zap.String("assembly", name), zap.String("url", url))
	return nil
}

// CallEntryPoint invokes entryPoint exported by assemblyName. A rejected
// promise is reported as an error.
func (r *Runtime) CallEntryPoint(assemblyName, entryPoint string, args []any) error {
	err := r.locked(context.Background(), func() error {
		exports, ok := r.assemblies[assemblyName]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAssembly, assemblyName)
		}
		fn, ok := goja.AssertFunction(exports.Get(entryPoint))
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrNotCallable, assemblyName, entryPoint)
		}
		val, err := fn(exports, r.toValues(args)...)
		if err != nil {
			return err
		}
		return promiseError(val)
	})
	if err != nil {
		return &ScriptError{Source: assemblyName + "." + entryPoint, Err: err}
	}
	return nil
}

// Invoke calls a global function by dotted identifier, e.g.
// "navigation.enableInterception".
func (r *Runtime) Invoke(identifier string, args ...any) (any, error) {
	var result any
	err := r.locked(context.Background(), func() error {
		this, target, err := r.resolve(identifier)
		if err != nil {
			return err
		}
		fn, ok := goja.AssertFunction(target)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCallable, identifier)
		}
		val, err := fn(this, r.toValues(args)...)
		if err != nil {
			return err
		}
		result = exportValue(val)
		return nil
	})
	return result, err
}

// EvaluateScript runs source in the global scope
func (r *Runtime) EvaluateScript(ctx context.Context, name, source string) (any, error) {
	var result any
	err := r.locked(ctx, func() error {
		val, err := r.vm.RunScript(name, source)
		if err != nil {
			return err
		}
		result = exportValue(val)
		return nil
	})
	if err != nil {
		return nil, &ScriptError{Source: name, Err: err}
	}
	return result, nil
}

// OnLocationChanged registers a listener for navigations issued through
// navigation.navigateTo. Listeners run outside the VM lock, in order.
func (r *Runtime) OnLocationChanged(fn LocationListener) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Interception reports the armed callback, if any
func (r *Runtime) Interception() (assembly, method string, enabled bool) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.interceptAsm, r.interceptMethod, r.intercepting
}

// Console returns captured console output
func (r *Runtime) Console() []LogEntry {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return append([]LogEntry{}, r.console...)
}

// Assemblies lists loaded assembly names
func (r *Runtime) Assemblies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.assemblies))
	for name := range r.assemblies {
		names = append(names, name)
	}
	return names
}

// Close releases the VM
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.vm = nil
	r.assemblies = nil
	return nil
}

// locked runs fn with the VM lock held and an interrupt armed for the
// configured timeout or ctx cancellation. Navigations queued by fn are
// dispatched after the lock is released.
func (r *Runtime) locked(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}

	done := make(chan struct{})
	var timeout <-chan time.Time
	if r.config.Timeout > 0 {
		timer := time.NewTimer(r.config.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}
	vm := r.vm
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-timeout:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	err := fn()
	close(done)
	<-watcher
	vm.ClearInterrupt()
	r.mu.Unlock()

	r.flushNavigations()
	return err
}

func (r *Runtime) flushNavigations() {
	r.stateMu.Lock()
	pending := r.pending
	r.pending = nil
	listeners := append([]LocationListener{}, r.listeners...)
	r.stateMu.Unlock()

	for _, nav := range pending {
		for _, fn := range listeners {
			fn(nav.uri, nav.intercepted)
		}
	}
}

func (r *Runtime) resolve(identifier string) (goja.Value, goja.Value, error) {
	var this goja.Value = goja.Undefined()
	var current goja.Value = r.vm.GlobalObject()
	for _, part := range strings.Split(identifier, ".") {
		obj, ok := current.(*goja.Object)
		if !ok || part == "" {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotCallable, identifier)
		}
		this = obj
		current = obj.Get(part)
		if current == nil || goja.IsUndefined(current) || goja.IsNull(current) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotCallable, identifier)
		}
	}
	return this, current, nil
}

func (r *Runtime) toValues(args []any) []goja.Value {
	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = r.vm.ToValue(arg)
	}
	return values
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

func promiseError(val goja.Value) error {
	if val == nil {
		return nil
	}
	p, ok := val.Export().(*goja.Promise)
	if !ok || p.State() != goja.PromiseStateRejected {
		return nil
	}
	return fmt.Errorf("entry point rejected: %v", p.Result())
}
