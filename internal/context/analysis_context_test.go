package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumeWithoutLabelIsOpaque(t *testing.T) {
	ctx := NewAnalysisContext()
	assert.True(t, ctx.LogicalLine)
	assert.Equal(t, Opaque(), ctx.Consume())

	ctx.Label(Class("a"))
	ctx.Label(Function("f"))
	assert.Equal(t, Function("f"), ctx.Consume())
	assert.Nil(t, ctx.Pending)
	assert.Equal(t, Opaque(), ctx.Consume())
}

func TestClassAndFunctionState(t *testing.T) {
	ctx := NewAnalysisContext()

	ctx.EnterClass("a", false)
	assert.True(t, ctx.CountsClassMetrics())
	ctx.EnterFunction("f")
	ctx.InMethod = true

	ctx.LeaveFunction()
	assert.False(t, ctx.HasFunction)
	assert.False(t, ctx.InMethod)
	assert.Empty(t, ctx.Function)

	ctx.LeaveClass()
	ctx.EnterClass("t", true)
	assert.False(t, ctx.CountsClassMetrics())
	ctx.LeaveClass()
	assert.False(t, ctx.TestClass)
	assert.False(t, ctx.HasClass)
}

func TestFrameKindString(t *testing.T) {
	tests := []struct {
		kind FrameKind
		want string
	}{
		{FrameOpaque, "opaque"},
		{FrameAnonymous, "anonymous"},
		{FrameClass, "class"},
		{FrameFunction, "function"},
		{FrameKind(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}
