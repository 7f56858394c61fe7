package hooks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fullHandler struct {
	beforeResult bool
	order        []string
	lastErr      error
	lastHalt     bool
}

func (h *fullHandler) Perform() bool { h.order = append(h.order, "perform"); return true }
func (h *fullHandler) Before() bool  { h.order = append(h.order, "before"); return h.beforeResult }
func (h *fullHandler) After()        { h.order = append(h.order, "after") }
func (h *fullHandler) Success()      { h.order = append(h.order, "success") }
func (h *fullHandler) Failure()      { h.order = append(h.order, "failure") }
func (h *fullHandler) Error(e error) { h.lastErr = e; h.order = append(h.order, "error") }
func (h *fullHandler) Halt(immediate bool) {
	h.lastHalt = immediate
	h.order = append(h.order, "halt")
}

type bareHandler struct{}

func (h *bareHandler) Perform() bool { return true }

// wrongShapeHandler declares methods with the right names but wrong
// signatures; none should match.
type wrongShapeHandler struct{}

func (h *wrongShapeHandler) Perform() bool  { return true }
func (h *wrongShapeHandler) Before() string { return "nope" }
func (h *wrongShapeHandler) After() bool    { return true }
func (h *wrongShapeHandler) Error(s string) {}
func (h *wrongShapeHandler) Halt(n int)     {}

func TestDispatcher_DetectsAllHooks(t *testing.T) {
	d := New()
	m := d.MethodsFor(&fullHandler{})
	assert.True(t, m.Before)
	assert.True(t, m.After)
	assert.True(t, m.Success)
	assert.True(t, m.Failure)
	assert.True(t, m.Error)
	assert.True(t, m.Halt)
}

func TestDispatcher_BareHandlerHasNoHooks(t *testing.T) {
	d := New()
	m := d.MethodsFor(&bareHandler{})
	assert.False(t, m.Before)
	assert.False(t, m.After)
	assert.False(t, m.Success)
	assert.False(t, m.Failure)
	assert.False(t, m.Error)
	assert.False(t, m.Halt)
}

func TestDispatcher_RejectsWrongSignatures(t *testing.T) {
	d := New()
	m := d.MethodsFor(&wrongShapeHandler{})
	assert.False(t, m.Before)
	assert.False(t, m.After)
	assert.False(t, m.Error)
	assert.False(t, m.Halt)
}

func TestDispatcher_InvokeBefore_AbsentMeansProceed(t *testing.T) {
	d := New()
	h := &bareHandler{}
	m := d.MethodsFor(h)
	result, present := d.InvokeBefore(h, m)
	require.False(t, present)
	assert.True(t, result)
}

func TestDispatcher_InvocationOrder(t *testing.T) {
	d := New()
	h := &fullHandler{beforeResult: true}
	m := d.MethodsFor(h)

	result, present := d.InvokeBefore(h, m)
	require.True(t, present)
	require.True(t, result)

	h.Perform()
	d.InvokeSuccess(h, m)
	d.InvokeFailure(h, m) // Failure can fire on the same attempt as Success
	d.InvokeAfter(h, m)

	assert.Equal(t, []string{"before", "perform", "success", "failure", "after"}, h.order)
}

func TestDispatcher_InvokeError(t *testing.T) {
	d := New()
	h := &fullHandler{}
	m := d.MethodsFor(h)
	boom := errors.New("boom")
	d.InvokeError(h, m, boom)
	assert.Equal(t, boom, h.lastErr)
}

func TestDispatcher_InvokeHalt(t *testing.T) {
	d := New()
	h := &fullHandler{}
	m := d.MethodsFor(h)
	d.InvokeHalt(h, m, true)
	assert.True(t, h.lastHalt)
}
