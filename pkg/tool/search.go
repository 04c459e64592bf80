package tool

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/arunse/coursechat/pkg/model"
)

// Search retrieves course content matching a query, with optional course
// and lesson narrowing.
type Search struct {
	retriever Retriever
}

func NewSearch(retriever Retriever) *Search {
	return &Search{retriever: retriever}
}

func (x *Search) Spec() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        genai.TypeInteger,
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (x *Search) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	query, _ := args["query"].(string)
	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	result := x.retriever.Search(ctx, query, courseName, lessonNumber)
	if result.Err != "" {
		return &Result{Text: result.Err}, nil
	}
	if result.IsEmpty() {
		var scope strings.Builder
		if courseName != "" {
			fmt.Fprintf(&scope, " in course '%s'", courseName)
		}
		if lessonNumber != nil && *lessonNumber != 0 {
			fmt.Fprintf(&scope, " in lesson %d", *lessonNumber)
		}
		return &Result{Text: fmt.Sprintf("No relevant content found%s.", scope.String())}, nil
	}

	return x.formatResults(ctx, result.Hits), nil
}

// formatResults renders hits as labelled blocks and collects one citation
// per hit. Lesson links are attached only when the lesson and the course
// title are both known.
func (x *Search) formatResults(ctx context.Context, hits []model.Hit) *Result {
	var blocks []string
	var citations []model.Citation

	for _, hit := range hits {
		title, _ := hit.Metadata["course_title"].(string)
		if title == "" {
			title = "unknown"
		}
		lesson := intArg(hit.Metadata, "lesson_number")

		header := fmt.Sprintf("[%s]", title)
		label := title
		if lesson != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", title, *lesson)
			label = fmt.Sprintf("%s - Lesson %d", title, *lesson)
		}

		citation := model.Citation{Label: label}
		if lesson != nil && title != "unknown" {
			citation.Link = x.retriever.GetLessonLink(ctx, title, *lesson)
		}

		blocks = append(blocks, header+"\n"+hit.Document)
		citations = append(citations, citation)
	}

	return &Result{
		Text:      strings.Join(blocks, "\n\n"),
		Citations: citations,
	}
}
