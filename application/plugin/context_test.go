package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/domain/entities"
)

type bareRoot struct{ RootContextDefaults }

type bareHttp struct{ HttpContextDefaults }

type counterContext struct {
	HttpContextDefaults
	seen int
}

func (c *counterContext) OnHttpRequestHeaders(int, bool) entities.Action {
	c.seen++
	return entities.ActionPause
}

func TestDefaults(t *testing.T) {
	var root RootContext = bareRoot{}
	assert.True(t, root.OnVMStart(0))
	assert.True(t, root.OnConfigure(10))
	assert.True(t, root.OnDone())
	_, ok := root.NewHttpContext(2)
	assert.False(t, ok)
	_, ok = root.ContextType()
	assert.False(t, ok)

	var http HttpContext = bareHttp{}
	assert.Equal(t, entities.ActionContinue, http.OnHttpRequestHeaders(1, false))
	assert.Equal(t, entities.ActionContinue, http.OnHttpRequestBody(13, true))
	assert.Equal(t, entities.ActionContinue, http.OnHttpRequestTrailers(0))
	assert.True(t, http.OnDone())
}

func TestDefaultRootContext(t *testing.T) {
	root := NewDefaultRootContext[counterContext](1)

	typ, ok := root.ContextType()
	require.True(t, ok)
	assert.Equal(t, entities.ContextTypeHttpContext, typ)

	first, ok := root.NewHttpContext(2)
	require.True(t, ok)
	second, ok := root.NewHttpContext(3)
	require.True(t, ok)

	assert.Equal(t, entities.ActionPause, first.OnHttpRequestHeaders(0, false))
	assert.Equal(t, 1, first.(*counterContext).seen)
	assert.Equal(t, 0, second.(*counterContext).seen, "each stream gets a fresh zero value")
}

func TestDefaultRootContext_WithDispatcher(t *testing.T) {
	d := NewDispatcher()
	d.SetRootContext(NewDefaultRootContext[counterContext])

	require.NoError(t, d.CreateContext(1, 0))
	require.NoError(t, d.CreateContext(2, 1))
	action, err := d.OnHttpRequestHeaders(2, 0, true)
	require.NoError(t, err)
	assert.Equal(t, entities.ActionPause, action)
}
