package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/hostfuncs"
)

// abiOnlyModule exports an empty proxy_abi_version_0_2_0 and nothing else.
var abiOnlyModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: () -> ()
	0x03, 0x02, 0x01, 0x00, // function 0 has type 0
	0x07, 0x1b, 0x01, 0x17, // export section, one entry, 23-byte name
	'p', 'r', 'o', 'x', 'y', '_', 'a', 'b', 'i', '_', 'v', 'e', 'r', 's', 'i', 'o', 'n', '_', '0', '_', '2', '_', '0',
	0x00, 0x00, // func 0
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // code: no locals, end
}

var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func newExecutor(t *testing.T, opts ...Option) *Executor {
	t.Helper()
	ctx := context.Background()
	e, err := NewExecutor(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, e.Close(ctx))
	})
	return e
}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, e)
	if e != nil {
		err := e.Close(ctx)
		assert.NoError(t, err)
	}
}

func TestNewExecutor_HostOptions(t *testing.T) {
	e := newExecutor(t, WithHostOptions(hostfuncs.WithStoreValue("state_demo", "Foo", []byte("3"))))

	v, status := e.State().GetState("state_demo", "Foo")
	assert.Equal(t, entities.StatusOK, status)
	assert.Equal(t, []byte("3"), v)
}

func TestNewExecutor_WithState(t *testing.T) {
	state, err := hostfuncs.NewState()
	require.NoError(t, err)

	e := newExecutor(t, WithState(state), WithMemoryLimitPages(64))
	assert.Same(t, state, e.State())
}

func TestNewExecutor_DuplicateService(t *testing.T) {
	svc := func(context.Context, string, []byte) ([]byte, error) { return nil, nil }
	_, err := NewExecutor(context.Background(), WithHostOptions(
		hostfuncs.WithService("id_2", svc),
		hostfuncs.WithService("id_2", svc),
	))
	assert.ErrorContains(t, err, "failed to create host state")
}

func TestLoadPlugin_InvalidBytes(t *testing.T) {
	e := newExecutor(t)
	_, err := e.LoadPlugin(context.Background(), []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to compile module")
}

func TestLoadPlugin_NotProxyWasm(t *testing.T) {
	e := newExecutor(t)
	_, err := e.LoadPlugin(context.Background(), emptyModule)
	assert.ErrorIs(t, err, ErrNotProxyWasm)
}

func TestLoadPlugin_ABIMarkerOnly(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t)

	p, err := e.LoadPlugin(ctx, abiOnlyModule)
	require.NoError(t, err)
	defer p.Close(ctx)

	ok, err := p.GetID(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = p.StartPlugin(ctx)
	assert.ErrorContains(t, err, `export "proxy_on_context_create" not found`)
}

func TestLoadPlugin_TwoInstances(t *testing.T) {
	ctx := context.Background()
	e := newExecutor(t)

	a, err := e.LoadPlugin(ctx, abiOnlyModule)
	require.NoError(t, err)
	b, err := e.LoadPlugin(ctx, abiOnlyModule)
	require.NoError(t, err)
	assert.NotSame(t, a.Module(), b.Module())
}

func TestNextContextID(t *testing.T) {
	p := &PluginInstance{}
	assert.Equal(t, uint32(1), p.NextContextID())
	assert.Equal(t, uint32(2), p.NextContextID())
}

func TestResponse_Paused(t *testing.T) {
	assert.False(t, Response{Actions: []entities.Action{entities.ActionContinue}}.Paused())
	assert.True(t, Response{Actions: []entities.Action{entities.ActionContinue, entities.ActionPause}}.Paused())
}
