package tool

import (
	"context"

	"github.com/arunse/coursechat/pkg/model"
	"google.golang.org/genai"
)

// Result is the outcome of one tool invocation. Citations belong to this
// call only; concurrent or repeated calls never share them.
type Result struct {
	Text      string
	Citations []model.Citation
}

// Tool is a capability the model can invoke through function calling.
type Tool interface {
	// Spec returns the function declaration advertised to the model.
	Spec() *genai.FunctionDeclaration

	// Execute runs the tool with the model-provided arguments. Expected
	// failures (nothing found, unknown course) are reported inside the
	// Result text so the model can react to them; the error return is for
	// infrastructure faults only.
	Execute(ctx context.Context, args map[string]any) (*Result, error)
}

// Retriever is the retrieval surface the built-in tools depend on.
type Retriever interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult
	ResolveCourseName(ctx context.Context, name string) (string, error)
	GetCourseMetadata(ctx context.Context, title string) (map[string]any, error)
	GetLessonLink(ctx context.Context, title string, lesson int) string
}
