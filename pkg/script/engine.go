// Package script compiles user-authored event handler code into
// callables. Handler code is an ECMAScript function body executed with
// exactly two parameters, event and component, and no other bindings.
//
// This is the system's deliberately dynamic, unsandboxed scripting
// surface: handler code runs with whatever the interpreter can reach,
// and no security guarantee is made. Compile and runtime errors are
// caught per invocation and logged; a throwing handler never crashes
// the render pass or aborts sibling handlers. The exported artifact
// applies the same contract with the browser's native Function.
package script

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
)

// Handler is a compiled event handler. Invoking it never panics.
type Handler func(event, component any)

// Engine compiles handler source into Handlers. One engine serves one
// editing session; compiled programs are cached by source text.
type Engine struct {
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*goja.Program
}

// NewEngine creates an engine. A nil logger falls back to the default.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger.With("component", "script"),
		cache:  make(map[string]*goja.Program),
	}
}

// Compile wraps the source text as a function body taking (event,
// component) and returns the callable. A syntax error is reported once
// at compile time rather than on every invocation.
func (e *Engine) Compile(code string) (Handler, error) {
	prog, err := e.program(code)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("script: evaluate handler: %w", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("script: handler did not evaluate to a function")
	}

	return func(event, component any) {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("handler panicked", "error", fmt.Sprint(r))
			}
		}()
		if _, err := fn(goja.Undefined(), vm.ToValue(event), vm.ToValue(component)); err != nil {
			e.logger.Error("handler failed", "error", err)
		}
	}, nil
}

// MustCompile compiles the handler and swallows errors into a logged
// no-op. The render pass uses it so one broken handler cannot take
// down its siblings.
func (e *Engine) MustCompile(code string) Handler {
	h, err := e.Compile(code)
	if err != nil {
		e.logger.Error("handler compile failed", "error", err)
		return func(event, component any) {}
	}
	return h
}

func (e *Engine) program(code string) (*goja.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prog, ok := e.cache[code]; ok {
		return prog, nil
	}
	src := "(function(event, component) {\n" + code + "\n})"
	prog, err := goja.Compile("handler", src, false)
	if err != nil {
		return nil, fmt.Errorf("script: compile handler: %w", err)
	}
	e.cache[code] = prog
	return prog, nil
}
