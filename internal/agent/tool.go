package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Tool is one callable exposed to a model. InputSchema is a JSON Schema
// document describing the expected input object.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Run         func(ctx context.Context, input json.RawMessage) (string, error)
}

// Registry holds the tools available to an agent invocation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

// Register adds a tool, replacing any prior tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
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

// specs returns the tool declarations in wire order.
func (r *Registry) specs() []anthropicTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	specs := make([]anthropicTool, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		specs = append(specs, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return specs
}

// invoke runs the named tool and returns its output serialized for the
// model's tool_result block.
func (r *Registry) invoke(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t.Run(ctx, input)
}

// JSONTool wraps a typed handler into a Tool Run function: the model's input
// object is decoded into I, and the handler's result is re-encoded as JSON.
func JSONTool[I any](handler func(ctx context.Context, input I) (any, error)) func(ctx context.Context, input json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var input I
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &input); err != nil {
				return "", fmt.Errorf("decoding tool input: %w", err)
			}
		}
		out, err := handler(ctx, input)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("encoding tool output: %w", err)
		}
		return string(encoded), nil
	}
}
