// Package hooks implements structural (duck-typed) discovery of which
// optional lifecycle hooks a handler implements, and invocation of those
// hooks at the right points in an attempt. Method-shape matching is
// computed once per concrete type and cached, replacing runtime proxying
// with one-time reflection.
package hooks

import (
	"reflect"
	"sync"
)

var (
	errorType = reflect.TypeOf((*error)(nil)).Elem()
	boolType  = reflect.TypeOf(false)
)

// Methods records which optional hooks a handler type implements.
// Computed once per concrete type and cached for the process lifetime in
// a process-wide, read-mostly map with idempotent writes.
type Methods struct {
	Before  bool
	After   bool
	Success bool
	Failure bool
	Error   bool
	Halt    bool
}

// Dispatcher discovers and invokes lifecycle hooks.
type Dispatcher struct {
	cache sync.Map // reflect.Type -> Methods
}

// New returns a Dispatcher.
func New() *Dispatcher { return &Dispatcher{} }

// MethodsFor returns (computing and caching if necessary) the HandlerMethods
// for handler's concrete type.
func (d *Dispatcher) MethodsFor(handler any) Methods {
	t := reflect.TypeOf(handler)
	if cached, ok := d.cache.Load(t); ok {
		return cached.(Methods)
	}
	m := detect(t)
	actual, _ := d.cache.LoadOrStore(t, m)
	return actual.(Methods)
}

// detect probes handler's method set for each hook's shape. A hook
// matches when a method of the same name exists with identical arity and
// parameter/return types.
func detect(t reflect.Type) Methods {
	return Methods{
		Before:  matchesNoArgBoolReturn(t, "Before"),
		After:   matchesNoArgNoReturn(t, "After"),
		Success: matchesNoArgNoReturn(t, "Success"),
		Failure: matchesNoArgNoReturn(t, "Failure"),
		Error:   matchesErrorArgNoReturn(t, "Error"),
		Halt:    matchesBoolArgNoReturn(t, "Halt"),
	}
}

func matchesNoArgBoolReturn(t reflect.Type, name string) bool {
	m, ok := t.MethodByName(name)
	if !ok {
		return false
	}
	ft := m.Func.Type()
	return ft.NumIn() == 1 && ft.NumOut() == 1 && ft.Out(0) == boolType
}

func matchesNoArgNoReturn(t reflect.Type, name string) bool {
	m, ok := t.MethodByName(name)
	if !ok {
		return false
	}
	ft := m.Func.Type()
	return ft.NumIn() == 1 && ft.NumOut() == 0
}

func matchesErrorArgNoReturn(t reflect.Type, name string) bool {
	m, ok := t.MethodByName(name)
	if !ok {
		return false
	}
	ft := m.Func.Type()
	return ft.NumIn() == 2 && ft.In(1) == errorType && ft.NumOut() == 0
}

func matchesBoolArgNoReturn(t reflect.Type, name string) bool {
	m, ok := t.MethodByName(name)
	if !ok {
		return false
	}
	ft := m.Func.Type()
	return ft.NumIn() == 2 && ft.In(1) == boolType && ft.NumOut() == 0
}

// Hook interfaces. A handler implements a hook by satisfying the
// corresponding interface; these exist so invocation is a plain type
// assertion once Methods has confirmed the shape matches.
type (
	beforeHook  interface{ Before() bool }
	afterHook   interface{ After() }
	successHook interface{ Success() }
	failureHook interface{ Failure() }
	errorHook   interface{ Error(error) }
	haltHook    interface{ Halt(bool) }
)

// InvokeBefore runs Before() if present, returning (result, true). If
// absent it returns (true, false) so callers can treat "no Before" as
// "proceed" without a branch.
func (d *Dispatcher) InvokeBefore(handler any, m Methods) (result bool, present bool) {
	if !m.Before {
		return true, false
	}
	h, ok := handler.(beforeHook)
	if !ok {
		return true, false
	}
	return h.Before(), true
}

// InvokeAfter runs After() if present.
func (d *Dispatcher) InvokeAfter(handler any, m Methods) {
	if !m.After {
		return
	}
	if h, ok := handler.(afterHook); ok {
		h.After()
	}
}

// InvokeSuccess runs Success() if present.
func (d *Dispatcher) InvokeSuccess(handler any, m Methods) {
	if !m.Success {
		return
	}
	if h, ok := handler.(successHook); ok {
		h.Success()
	}
}

// InvokeFailure runs Failure() if present.
func (d *Dispatcher) InvokeFailure(handler any, m Methods) {
	if !m.Failure {
		return
	}
	if h, ok := handler.(failureHook); ok {
		h.Failure()
	}
}

// InvokeError runs Error(e) if present.
func (d *Dispatcher) InvokeError(handler any, m Methods, err error) {
	if !m.Error {
		return
	}
	if h, ok := handler.(errorHook); ok {
		h.Error(err)
	}
}

// InvokeHalt runs Halt(immediate) if present.
func (d *Dispatcher) InvokeHalt(handler any, m Methods, immediate bool) {
	if !m.Halt {
		return
	}
	if h, ok := handler.(haltHook); ok {
		h.Halt(immediate)
	}
}
