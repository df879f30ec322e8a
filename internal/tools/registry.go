package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// ParamType is the primitive type tag of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Category groups tools for catalog views.
type Category string

const (
	CategoryCode   Category = "code"
	CategoryWeb    Category = "web"
	CategoryData   Category = "data"
	CategoryImage  Category = "image"
	CategoryFile   Category = "file"
	CategorySystem Category = "system"
)

// Param describes one tool parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
}

// Tool is a named capability. Entries are immutable once registered.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    Category `json:"category"`
	Params      []Param `json:"parameters"`
	Run         func(ctx context.Context, params map[string]any) (any, error) `json:"-"`
}

// Result is the uniform envelope returned from every invocation attempt.
// Exactly one of Result and Error is populated.
type Result struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Registry holds the tool catalog. It is built once at startup and passed to
// the handlers that need it; registration after startup is a caller bug.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool under its name. A second registration under the same
// name is rejected; use Replace when overwriting is intended.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("tool must have a name")
	}
	if t.Run == nil {
		return fmt.Errorf("tool %q has no run function", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Replace installs a tool under its name, overwriting any existing entry.
func (r *Registry) Replace(t *Tool) {
	if t == nil || t.Name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// ByCategory returns the registered tools in the given category,
// in registration order.
func (r *Registry) ByCategory(c Category) []*Tool {
	var out []*Tool
	for _, t := range r.List() {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

// Invoke looks up the tool, validates the parameters against its declared
// schema, runs it, and wraps the outcome in the envelope. It never returns
// an unhandled fault from the tool body.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) Result {
	t, ok := r.Get(name)
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("Tool %q not found", name)}
	}
	resolved, err := resolveParams(t, params)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	value, err := t.Run(ctx, resolved)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Tool execution failed"
		}
		return Result{Success: false, Error: msg}
	}
	return Result{Success: true, Result: value}
}

// resolveParams checks required parameters are present (failing fast on the
// first missing one), type-checks every supplied value against its declared
// primitive type collecting all violations, and fills declared defaults for
// absent optional parameters.
func resolveParams(t *Tool, params map[string]any) (map[string]any, error) {
	for _, p := range t.Params {
		if !p.Required {
			continue
		}
		if _, present := params[p.Name]; !present {
			return nil, fmt.Errorf("Missing required parameter: %s", p.Name)
		}
	}

	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = v
	}

	var violations []string
	for _, p := range t.Params {
		v, present := resolved[p.Name]
		if !present {
			if p.Default != nil {
				resolved[p.Name] = p.Default
			}
			continue
		}
		if !matchesType(v, p.Type) {
			violations = append(violations, fmt.Sprintf("parameter %q must be a %s", p.Name, p.Type))
		}
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("invalid parameters: %s", strings.Join(violations, "; "))
	}
	return resolved, nil
}

func matchesType(v any, t ParamType) bool {
	if v == nil {
		return false
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, json.Number:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

// FunctionSchema is a tool rendered in the provider function-calling format.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  FunctionParams `json:"parameters"`
}

type FunctionParams struct {
	Type       string                      `json:"type"`
	Properties map[string]FunctionProperty `json:"properties"`
	Required   []string                    `json:"required"`
}

type FunctionProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Functions renders the catalog as provider function declarations, in
// registration order.
func (r *Registry) Functions() []FunctionSchema {
	all := r.List()
	out := make([]FunctionSchema, 0, len(all))
	for _, t := range all {
		props := make(map[string]FunctionProperty, len(t.Params))
		required := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			props[p.Name] = FunctionProperty{Type: string(p.Type), Description: p.Description}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, FunctionSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  FunctionParams{Type: "object", Properties: props, Required: required},
		})
	}
	return out
}
