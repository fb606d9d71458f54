package sandbox

import (
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// setupGlobals configures global objects and host interop
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	nav := r.vm.NewObject()
	if err := nav.Set("enableInterception", r.enableInterception); err != nil {
		return err
	}
	if err := nav.Set("navigateTo", r.navigateTo); err != nil {
		return err
	}
	return r.vm.Set("navigation", nav)
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.stateMu.Lock()
		r.console = append(r.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
		r.stateMu.Unlock()

		r.logger.Debug("Script console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

// enableInterception(assembly, method) arms link interception. Repeat calls
// replace the callback.
func (r *Runtime) enableInterception(call goja.FunctionCall) goja.Value {
	assembly := call.Argument(0).String()
	method := call.Argument(1).String()

	r.stateMu.Lock()
	r.interceptAsm = assembly
	r.interceptMethod = method
	r.intercepting = true
	r.stateMu.Unlock()

	r.logger.Debug("Interception enabled",
		zap.String("assembly", assembly),
		zap.String("method", method),
	)
	return goja.Undefined()
}

// navigateTo(uri) records a navigation. When interception is armed and the
// callback assembly is loaded, its method is called with (uri, true).
func (r *Runtime) navigateTo(call goja.FunctionCall) goja.Value {
	uri := call.Argument(0).String()

	r.stateMu.Lock()
	intercepted := r.intercepting
	assembly, method := r.interceptAsm, r.interceptMethod
	r.pending = append(r.pending, navigation{uri: uri, intercepted: intercepted})
	r.stateMu.Unlock()

	if !intercepted {
		return goja.Undefined()
	}
	// Running inside the VM with mu held
	if exports, ok := r.assemblies[assembly]; ok {
		if fn, ok := goja.AssertFunction(exports.Get(method)); ok {
			if _, err := fn(exports, r.vm.ToValue(uri), r.vm.ToValue(true)); err != nil {
				if ex, ok := err.(*goja.Exception); ok {
					panic(ex.Value())
				}
				panic(r.vm.NewGoError(err))
			}
		}
	}
	return goja.Undefined()
}
