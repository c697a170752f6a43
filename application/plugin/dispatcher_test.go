package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mosn/layotto/domain/entities"
	sdkerrors "github.com/mosn/layotto/domain/errors"
)

type recordingHttpContext struct {
	HttpContextDefaults
	calls   []string
	deleted bool
	verdict entities.Action
}

func (c *recordingHttpContext) OnHttpRequestHeaders(numHeaders int, endOfStream bool) entities.Action {
	c.calls = append(c.calls, "headers")
	return c.verdict
}

func (c *recordingHttpContext) OnHttpRequestBody(bodySize int, endOfStream bool) entities.Action {
	c.calls = append(c.calls, "body")
	return c.verdict
}

func (c *recordingHttpContext) OnDelete() {
	c.deleted = true
}

type typedRoot struct {
	RootContextDefaults
	children map[uint32]*recordingHttpContext
	typed    bool
	refuse   bool
	vmStarts []int
}

func (r *typedRoot) OnVMStart(size int) bool {
	r.vmStarts = append(r.vmStarts, size)
	return true
}

func (r *typedRoot) OnConfigure(size int) bool {
	return size > 0
}

func (r *typedRoot) ContextType() (entities.ContextType, bool) {
	return entities.ContextTypeHttpContext, r.typed
}

func (r *typedRoot) NewHttpContext(contextID uint32) (HttpContext, bool) {
	if r.refuse {
		return nil, false
	}
	c := &recordingHttpContext{verdict: entities.ActionPause}
	r.children[contextID] = c
	return c, true
}

type DispatcherSuite struct {
	suite.Suite
	d    *Dispatcher
	root *typedRoot
}

func (s *DispatcherSuite) SetupTest() {
	s.d = NewDispatcher()
	s.root = &typedRoot{typed: true, children: map[uint32]*recordingHttpContext{}}
	s.d.SetRootContext(func(uint32) RootContext { return s.root })
}

func (s *DispatcherSuite) requireViolation(err error, sentinel error, msgAndArgs ...any) {
	s.T().Helper()
	s.Require().Error(err, msgAndArgs...)
	s.ErrorIs(err, sentinel, msgAndArgs...)
	var cv *sdkerrors.ContractViolationError
	s.Require().ErrorAs(err, &cv)
	s.True(sdkerrors.IsFatal(err))
}

func (s *DispatcherSuite) TestRootThenStream() {
	s.Require().NoError(s.d.CreateContext(1, 0))
	s.Require().NoError(s.d.CreateContext(2, 1))

	rootID, ok := s.d.RootContextID(2)
	s.True(ok)
	s.Equal(uint32(1), rootID)

	action, err := s.d.OnHttpRequestBody(2, 13, true)
	s.Require().NoError(err)
	s.Equal(entities.ActionPause, action, "verdict is returned verbatim")

	action, err = s.d.OnHttpRequestHeaders(2, 3, false)
	s.Require().NoError(err)
	s.Equal(entities.ActionPause, action)

	action, err = s.d.OnHttpRequestTrailers(2, 0)
	s.Require().NoError(err)
	s.Equal(entities.ActionContinue, action, "default trailers callback continues")

	s.Equal([]string{"body", "headers"}, s.root.children[2].calls)
}

func (s *DispatcherSuite) TestDuplicateContextID() {
	s.Require().NoError(s.d.CreateContext(1, 0))
	s.requireViolation(s.d.CreateContext(1, 0), sdkerrors.ErrDuplicateContextID)

	s.Require().NoError(s.d.CreateContext(2, 1))
	s.requireViolation(s.d.CreateContext(2, 1), sdkerrors.ErrDuplicateContextID)
	s.requireViolation(s.d.CreateContext(2, 0), sdkerrors.ErrDuplicateContextID, "id is live as a stream")
}

func (s *DispatcherSuite) TestRecreateAfterDelete() {
	s.Require().NoError(s.d.CreateContext(1, 0))
	s.Require().NoError(s.d.CreateContext(2, 1))
	s.Require().NoError(s.d.OnDelete(2))
	s.True(s.root.children[2].deleted)

	s.Require().NoError(s.d.CreateContext(2, 1))
}

func (s *DispatcherSuite) TestUnknownContextID() {
	s.Require().NoError(s.d.CreateContext(1, 0))

	_, err := s.d.OnHttpRequestHeaders(7, 0, false)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)
	_, err = s.d.OnHttpRequestBody(7, 0, false)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)
	_, err = s.d.OnHttpRequestTrailers(7, 0)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)
	_, err = s.d.OnDone(7)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)
	s.requireViolation(s.d.OnDelete(7), sdkerrors.ErrUnknownContextID)

	_, err = s.d.OnVMStart(7, 0)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)

	_, err = s.d.OnHttpRequestBody(1, 0, false)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID, "a root is not a stream")
}

func (s *DispatcherSuite) TestMissingRootFactory() {
	d := NewDispatcher()
	err := d.CreateContext(1, 0)
	s.requireViolation(err, sdkerrors.ErrMissingRootFactory)
}

func (s *DispatcherSuite) TestUnknownRootContext() {
	s.requireViolation(s.d.CreateContext(2, 1), sdkerrors.ErrUnknownRootContext)
}

func (s *DispatcherSuite) TestUntypedRoot() {
	s.root.typed = false
	s.Require().NoError(s.d.CreateContext(1, 0))
	s.requireViolation(s.d.CreateContext(2, 1), sdkerrors.ErrUnknownContextType)
}

func (s *DispatcherSuite) TestRootRefusesChild() {
	s.root.refuse = true
	s.Require().NoError(s.d.CreateContext(1, 0))
	s.requireViolation(s.d.CreateContext(2, 1), sdkerrors.ErrFactoryReturnedNone)

	_, err := s.d.OnHttpRequestHeaders(2, 0, false)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID, "nothing was inserted")
}

func (s *DispatcherSuite) TestStreamFactoryOverridesRoot() {
	var gotIDs [2]uint32
	global := &recordingHttpContext{verdict: entities.ActionContinue}
	s.d.SetHttpContext(func(contextID, rootContextID uint32) HttpContext {
		gotIDs = [2]uint32{contextID, rootContextID}
		return global
	})

	s.Require().NoError(s.d.CreateContext(1, 0))
	s.Require().NoError(s.d.CreateContext(2, 1))
	s.Equal([2]uint32{2, 1}, gotIDs)
	s.Empty(s.root.children, "the root factory is bypassed")

	_, err := s.d.OnHttpRequestHeaders(2, 1, true)
	s.Require().NoError(err)
	s.Equal([]string{"headers"}, global.calls)
}

func (s *DispatcherSuite) TestStreamFactoryWithoutRoot() {
	called := false
	s.d.SetHttpContext(func(uint32, uint32) HttpContext {
		called = true
		return &recordingHttpContext{}
	})

	s.requireViolation(s.d.CreateContext(5, 9), sdkerrors.ErrUnknownRootContext)
	s.False(called, "the factory never sees an unknown root")
	_, linked := s.d.RootContextID(5)
	s.False(linked)
}

func (s *DispatcherSuite) TestRootLifecycle() {
	s.Require().NoError(s.d.CreateContext(1, 0))

	ok, err := s.d.OnVMStart(1, 42)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal([]int{42}, s.root.vmStarts)

	ok, err = s.d.OnConfigure(1, 0)
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.d.OnDone(1)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.d.OnDelete(1))
	_, err = s.d.OnVMStart(1, 0)
	s.requireViolation(err, sdkerrors.ErrUnknownContextID)
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestViolationCarriesIDs(t *testing.T) {
	d := NewDispatcher()
	err := d.CreateContext(4, 3)
	require.Error(t, err)

	var cv *sdkerrors.ContractViolationError
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, uint32(4), cv.ContextID)
	assert.Equal(t, uint32(3), cv.ParentID)
	assert.Contains(t, err.Error(), "parent_context_id=3")
}
