package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func newEchoTool(name string, category Category) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its input",
		Category:    category,
		Params: []Param{
			{Name: "text", Type: TypeString, Description: "text to echo", Required: true},
			{Name: "repeat", Type: TypeNumber, Description: "repetitions", Required: false, Default: 1},
			{Name: "upper", Type: TypeBoolean, Description: "uppercase the output", Required: false},
		},
		Run: func(ctx context.Context, params map[string]any) (any, error) {
			text := params["text"].(string)
			n := intParam(params["repeat"], 1)
			out := strings.Repeat(text, n)
			if upper, _ := params["upper"].(bool); upper {
				out = strings.ToUpper(out)
			}
			return out, nil
		},
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("echo", CategorySystem)); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.Register(newEchoTool("echo", CategorySystem)); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if len(r.List()) != 1 {
		t.Fatalf("failed registration must not grow the catalog")
	}
}

func TestReplaceOverwrites(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("echo", CategorySystem)); err != nil {
		t.Fatalf("register: %v", err)
	}
	replacement := newEchoTool("echo", CategoryData)
	r.Replace(replacement)

	got, ok := r.Get("echo")
	if !ok || got.Category != CategoryData {
		t.Fatalf("replace did not install the new descriptor")
	}
	if len(r.List()) != 1 {
		t.Fatalf("replace must not duplicate the entry")
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Invoke(context.Background(), "nope", nil)
	if res.Success {
		t.Fatalf("expected failure envelope")
	}
	if res.Error != `Tool "nope" not found` {
		t.Fatalf("unexpected error message: %q", res.Error)
	}
	if res.Result != nil {
		t.Fatalf("failure envelope must not carry a result")
	}
}

func TestInvokeMissingRequiredParam(t *testing.T) {
	r := NewRegistry()
	invoked := false
	tool := newEchoTool("echo", CategorySystem)
	inner := tool.Run
	tool.Run = func(ctx context.Context, params map[string]any) (any, error) {
		invoked = true
		return inner(ctx, params)
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := r.Invoke(context.Background(), "echo", map[string]any{"repeat": 2})
	if res.Success {
		t.Fatalf("expected failure envelope")
	}
	if res.Error != "Missing required parameter: text" {
		t.Fatalf("unexpected error message: %q", res.Error)
	}
	if invoked {
		t.Fatalf("tool body must not run when a required parameter is absent")
	}
}

func TestInvokeCollectsTypeViolations(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("echo", CategorySystem)); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "echo", map[string]any{
		"text":   42,
		"repeat": "three",
	})
	if res.Success {
		t.Fatalf("expected failure envelope")
	}
	if !strings.Contains(res.Error, `parameter "text" must be a string`) ||
		!strings.Contains(res.Error, `parameter "repeat" must be a number`) {
		t.Fatalf("expected every violation reported, got %q", res.Error)
	}
}

func TestInvokeAppliesDefaults(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("echo", CategorySystem)); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if !res.Success {
		t.Fatalf("invoke failed: %s", res.Error)
	}
	if res.Result != "hi" {
		t.Fatalf("default repeat of 1 expected, got %v", res.Result)
	}
	if res.Error != "" {
		t.Fatalf("success envelope must not carry an error")
	}
}

func TestInvokeWrapsExecutionFailure(t *testing.T) {
	r := NewRegistry()
	boom := &Tool{
		Name:        "boom",
		Description: "always fails",
		Category:    CategorySystem,
		Run: func(ctx context.Context, params map[string]any) (any, error) {
			return nil, fmt.Errorf("kaboom")
		},
	}
	if err := r.Register(boom); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Invoke(context.Background(), "boom", nil)
	if res.Success || res.Error != "kaboom" {
		t.Fatalf("expected wrapped execution failure, got %+v", res)
	}
	if res.Result != nil {
		t.Fatalf("failure envelope must not carry a result")
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"c", "a", "b"} {
		if err := r.Register(newEchoTool(name, CategorySystem)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	var got []string
	for _, tool := range r.List() {
		got = append(got, tool.Name)
	}
	if strings.Join(got, ",") != "c,a,b" {
		t.Fatalf("expected registration order, got %v", got)
	}
}

func TestByCategory(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("w", CategoryWeb)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(newEchoTool("s", CategorySystem)); err != nil {
		t.Fatalf("register: %v", err)
	}
	web := r.ByCategory(CategoryWeb)
	if len(web) != 1 || web[0].Name != "w" {
		t.Fatalf("unexpected category filter result: %v", web)
	}
}

func TestFunctionsRendering(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(newEchoTool("echo", CategorySystem)); err != nil {
		t.Fatalf("register: %v", err)
	}
	fns := r.Functions()
	if len(fns) != 1 {
		t.Fatalf("expected one function schema, got %d", len(fns))
	}
	fn := fns[0]
	if fn.Name != "echo" || fn.Parameters.Type != "object" {
		t.Fatalf("unexpected schema: %+v", fn)
	}
	prop, ok := fn.Parameters.Properties["text"]
	if !ok || prop.Type != "string" {
		t.Fatalf("expected text property of type string, got %+v", fn.Parameters.Properties)
	}
	if len(fn.Parameters.Required) != 1 || fn.Parameters.Required[0] != "text" {
		t.Fatalf("expected required=[text], got %v", fn.Parameters.Required)
	}
}
