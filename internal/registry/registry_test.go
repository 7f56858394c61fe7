package registry

import (
	"testing"

	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	Greeting string `json:"greeting"`
	calls    int
}

func (h *fakeHandler) Perform() bool {
	h.calls++
	return true
}

type notAHandler struct{}

func TestRegistry_Resolve_Unknown(t *testing.T) {
	r := New(NewStaticResolver())
	_, ok := r.Resolve(models.HandlerReference{Namespace: "jobs", Entrypoint: "missing"})
	assert.False(t, ok)
}

func TestRegistry_Resolve_MissingPerformCapability(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.Register("jobs.not_a_handler", &notAHandler{})

	r := New(resolver)
	_, ok := r.Resolve(models.HandlerReference{Namespace: "jobs", Entrypoint: "not_a_handler"})
	assert.False(t, ok)
}

func TestRegistry_Resolve_CachesByReference(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.Register("jobs.greet", &fakeHandler{})

	r := New(resolver)
	ref := models.HandlerReference{Namespace: "jobs", Entrypoint: "greet"}

	first, ok := r.Resolve(ref)
	require.True(t, ok)
	second, ok := r.Resolve(ref)
	require.True(t, ok)

	assert.Same(t, first, second)
}

func TestRegistry_Resolve_DistinctPayloadsDoNotAlias(t *testing.T) {
	resolver := NewStaticResolver()
	resolver.Register("jobs.greet", &fakeHandler{})

	r := New(resolver)
	a, ok := r.Resolve(models.HandlerReference{Namespace: "jobs", Entrypoint: "greet", InstancePayload: `{"greeting":"hi"}`})
	require.True(t, ok)
	b, ok := r.Resolve(models.HandlerReference{Namespace: "jobs", Entrypoint: "greet", InstancePayload: `{"greeting":"bye"}`})
	require.True(t, ok)

	assert.NotSame(t, a, b)
	assert.Equal(t, "hi", a.(*fakeHandler).Greeting)
	assert.Equal(t, "bye", b.(*fakeHandler).Greeting)
}
