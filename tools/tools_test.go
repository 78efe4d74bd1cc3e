package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name   string
	result string
	err    error
}

func (t *fakeTool) Name() string               { return t.name }
func (t *fakeTool) Description() string        { return "fake" }
func (t *fakeTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (t *fakeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return t.result, t.err
}

func TestRegistryOrderIsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "c"})
	r.Register(&fakeTool{name: "a"})
	r.Register(&fakeTool{name: "b"})

	decls := r.Declarations()
	require.Len(t, decls, 3)
	assert.Equal(t, "c", decls[0].Name)
	assert.Equal(t, "a", decls[1].Name)
	assert.Equal(t, "b", decls[2].Name)
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "dup", result: "first"})
	r.Register(&fakeTool{name: "other"})
	r.Register(&fakeTool{name: "dup", result: "second"})

	decls := r.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, "dup", decls[0].Name)

	res := r.Dispatch(context.Background(), Invocation{ID: "1", Name: "dup", Arguments: "{}"})
	assert.Equal(t, "second", res.Content)
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Dispatch(context.Background(), Invocation{ID: "id-7", Name: "does_not_exist", Arguments: "{}"})
	assert.Equal(t, "id-7", res.ToolCallID)
	assert.Contains(t, res.Content, "unknown tool")
	assert.Contains(t, res.Content, "does_not_exist")
}

func TestDispatchInvalidArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "f"})
	res := r.Dispatch(context.Background(), Invocation{ID: "x", Name: "f", Arguments: "{broken"})
	assert.Equal(t, "x", res.ToolCallID)
	assert.Contains(t, res.Content, "invalid arguments")
}

func TestDispatchNullArgumentsIsInvalid(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "f", result: "ran"})
	res := r.Dispatch(context.Background(), Invocation{ID: "x", Name: "f", Arguments: "null"})
	assert.Equal(t, "x", res.ToolCallID)
	assert.Contains(t, res.Content, "invalid arguments")
}

func TestDispatchEmptyArgumentsMeansNoArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeTool{name: "f", result: "ran"})
	res := r.Dispatch(context.Background(), Invocation{ID: "x", Name: "f", Arguments: ""})
	assert.Equal(t, "ran", res.Content)
}

func TestDispatchHandlerFailure(t *testing.T) {
	r := DefaultRegistry()
	res := r.Dispatch(context.Background(), Invocation{
		ID:        "calc-1",
		Name:      "calculate",
		Arguments: `{"expression":"system('rm -rf /')"}`,
	})
	assert.Equal(t, "calc-1", res.ToolCallID)
	assert.Contains(t, res.Content, "execution error")
}

func TestDispatchCalculateScenario(t *testing.T) {
	r := DefaultRegistry()
	res := r.Dispatch(context.Background(), Invocation{
		ID:        "calc-2",
		Name:      "calculate",
		Arguments: `{"expression":"2+2"}`,
	})
	assert.Equal(t, "calc-2", res.ToolCallID)
	assert.Contains(t, res.Content, "4")
}
