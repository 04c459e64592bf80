package tool

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/arunse/coursechat/pkg/utils/logging"
)

// Registry holds the tools available to the model and dispatches function
// calls to them by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// New creates a registry with the given tools registered in order.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. A tool whose declaration has no name is rejected.
// Registering a second tool under an existing name replaces the first.
func (r *Registry) Register(t Tool) error {
	spec := t.Spec()
	if spec == nil || spec.Name == "" {
		return goerr.New("tool has no name")
	}

	if _, ok := r.tools[spec.Name]; ok {
		logging.Default().Warn("replacing already registered tool", "name", spec.Name)
	} else {
		r.order = append(r.order, spec.Name)
	}
	r.tools[spec.Name] = t

	return nil
}

// Specs returns the function declarations of all registered tools in
// registration order, wrapped for the Gemini API.
func (r *Registry) Specs() []*genai.Tool {
	if len(r.order) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Spec())
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Dispatch runs the tool named by the function call. An unknown name yields
// a sentinel result for the model rather than an error.
func (r *Registry) Dispatch(ctx context.Context, fc genai.FunctionCall) (*Result, error) {
	t, ok := r.tools[fc.Name]
	if !ok {
		return &Result{Text: fmt.Sprintf("Tool '%s' not found", fc.Name)}, nil
	}

	return t.Execute(ctx, fc.Args)
}
