package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/groupmesh/core"
)

// Registry is an explicit name -> Tool mapping. Tools are registered up
// front and resolved by name when a model emits a tool call; an unknown
// name or a duplicate registration is an error rather than a silent no-op.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry, optionally pre-populated with
// the given tools. Registration errors during construction panic, since a
// duplicate name in a literal tool list is a programming error.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}

	return r
}

// Register adds a tool under its declared name. Registering a second tool
// under an existing name is an error.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := t.Name()
	if name == "" {
		return fmt.Errorf("cannot register tool with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	r.tools[name] = t

	return nil
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]

	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// All returns the registered tools keyed by name (a copy).
func (r *Registry) All() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Tool, len(r.tools))
	for name, t := range r.tools {
		out[name] = t
	}

	return out
}

// Execute resolves a tool by name, decodes its JSON argument payload and
// invokes it. An unknown tool name yields a *ToolError with code
// UNKNOWN_TOOL; malformed JSON arguments yield VALIDATION_ERROR.
func (r *Registry) Execute(toolCtx *core.ToolContext, name, rawArgs string) (any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("no tool registered under name %q", name),
			Code:    "UNKNOWN_TOOL",
		}
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("malformed tool arguments: %v", err),
				Code:    "VALIDATION_ERROR",
			}
		}
	}

	return t.Call(toolCtx, args)
}
