// Package tools holds the named capabilities the model can invoke and the
// dispatcher that executes them.
//
// Dispatch never fails: an unknown tool, unparsable arguments or a handler
// error all become a textual Result, so the model always receives a reply
// for every call it makes and a degraded answer is preferred over an
// aborted turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool defines the interface for any capability the model can call.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-schema-shaped declaration of the tool's
	// arguments, advertised to the model on every request.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Declaration is the advertised form of a registered tool.
type Declaration struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Invocation is one model-requested call, consumed exactly once by
// Dispatch. Arguments is raw JSON text, expected to be an object.
type Invocation struct {
	ID        string
	Name      string
	Arguments string
}

// Result is the reply for one invocation. It is produced even on failure;
// the failure text becomes the content.
type Result struct {
	ToolCallID string
	Content    string
}

// Registry holds the available tools in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// DefaultRegistry creates a registry with the builtin tools registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CalculateTool{})
	r.Register(&CurrentTimeTool{})
	r.Register(&RandomTool{})
	return r
}

// Register adds a tool. Registering a name that already exists replaces
// the prior entry while keeping its position in the advertised order.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Declarations returns the registered tools in registration order.
func (r *Registry) Declarations() []Declaration {
	decls := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		decls = append(decls, Declaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return decls
}

// Dispatch executes one invocation and always returns a Result whose
// ToolCallID matches the invocation.
func (r *Registry) Dispatch(ctx context.Context, inv Invocation) Result {
	t, ok := r.tools[inv.Name]
	if !ok {
		return Result{
			ToolCallID: inv.ID,
			Content:    fmt.Sprintf("unknown tool %q", inv.Name),
		}
	}

	raw := strings.TrimSpace(inv.Arguments)
	if raw == "" {
		raw = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return Result{
			ToolCallID: inv.ID,
			Content:    fmt.Sprintf("invalid arguments for %s: %v", inv.Name, err),
		}
	}
	// "null" unmarshals into a nil map without error but is not an object.
	if args == nil {
		return Result{
			ToolCallID: inv.ID,
			Content:    fmt.Sprintf("invalid arguments for %s: not a JSON object", inv.Name),
		}
	}

	out, err := t.Execute(ctx, args)
	if err != nil {
		return Result{
			ToolCallID: inv.ID,
			Content:    fmt.Sprintf("execution error in %s: %v", inv.Name, err),
		}
	}
	return Result{ToolCallID: inv.ID, Content: out}
}
