package tool_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/arunse/coursechat/pkg/model"
	"github.com/arunse/coursechat/pkg/tool"
)

type mockRetriever struct {
	search            func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult
	resolveCourseName func(ctx context.Context, name string) (string, error)
	getCourseMetadata func(ctx context.Context, title string) (map[string]any, error)
	getLessonLink     func(ctx context.Context, title string, lesson int) string
}

func (x *mockRetriever) Search(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
	return x.search(ctx, query, courseName, lessonNumber)
}

func (x *mockRetriever) ResolveCourseName(ctx context.Context, name string) (string, error) {
	return x.resolveCourseName(ctx, name)
}

func (x *mockRetriever) GetCourseMetadata(ctx context.Context, title string) (map[string]any, error) {
	return x.getCourseMetadata(ctx, title)
}

func (x *mockRetriever) GetLessonLink(ctx context.Context, title string, lesson int) string {
	if x.getLessonLink != nil {
		return x.getLessonLink(ctx, title, lesson)
	}
	return ""
}

func TestSearchToolSpec(t *testing.T) {
	s := tool.NewSearch(&mockRetriever{})
	spec := s.Spec()
	gt.Equal(t, spec.Name, "search_course_content")
	gt.Map(t, spec.Parameters.Properties).HasKey("query")
	gt.Map(t, spec.Parameters.Properties).HasKey("course_name")
	gt.Map(t, spec.Parameters.Properties).HasKey("lesson_number")
	gt.A(t, spec.Parameters.Required).Length(1)
	gt.Equal(t, spec.Parameters.Required[0], "query")
}

func TestSearchToolExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("formats hits and collects citations", func(t *testing.T) {
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return &model.SearchResult{Hits: []model.Hit{
					{
						Document: "MCP servers expose tools.",
						Metadata: map[string]any{"course_title": "Intro to MCP", "lesson_number": float64(1)},
					},
					{
						Document: "HTML structures the page.",
						Metadata: map[string]any{"course_title": "Web Dev", "lesson_number": float64(2)},
					},
				}}
			},
			getLessonLink: func(ctx context.Context, title string, lesson int) string {
				return "https://example.com/" + title
			},
		}
		s := tool.NewSearch(retriever)

		result, err := s.Execute(ctx, map[string]any{"query": "servers"})
		gt.NoError(t, err)
		gt.Equal(t, result.Text,
			"[Intro to MCP - Lesson 1]\nMCP servers expose tools.\n\n[Web Dev - Lesson 2]\nHTML structures the page.")

		gt.A(t, result.Citations).Length(2)
		gt.Equal(t, result.Citations[0].Label, "Intro to MCP - Lesson 1")
		gt.Equal(t, result.Citations[0].Link, "https://example.com/Intro to MCP")
		gt.Equal(t, result.Citations[1].Label, "Web Dev - Lesson 2")
	})

	t.Run("empty result mentions raw course hint and lesson", func(t *testing.T) {
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return &model.SearchResult{}
			},
		}
		s := tool.NewSearch(retriever)

		result, err := s.Execute(ctx, map[string]any{
			"query":         "servers",
			"course_name":   "MCP",
			"lesson_number": float64(5),
		})
		gt.NoError(t, err)
		gt.Equal(t, result.Text, "No relevant content found in course 'MCP' in lesson 5.")
		gt.A(t, result.Citations).Length(0)
	})

	t.Run("empty result omits lesson zero from the scope", func(t *testing.T) {
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return &model.SearchResult{}
			},
		}
		s := tool.NewSearch(retriever)

		result, err := s.Execute(ctx, map[string]any{
			"query":         "servers",
			"course_name":   "MCP",
			"lesson_number": float64(0),
		})
		gt.NoError(t, err)
		gt.Equal(t, result.Text, "No relevant content found in course 'MCP'.")
	})

	t.Run("retrieval error passes through verbatim", func(t *testing.T) {
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return model.ErrorResult("No course found matching 'Nope'")
			},
		}
		s := tool.NewSearch(retriever)

		result, err := s.Execute(ctx, map[string]any{"query": "servers", "course_name": "Nope"})
		gt.NoError(t, err)
		gt.Equal(t, result.Text, "No course found matching 'Nope'")
	})

	t.Run("no link for unknown course or missing lesson", func(t *testing.T) {
		linkCalls := 0
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return &model.SearchResult{Hits: []model.Hit{
					{Document: "orphan chunk", Metadata: map[string]any{}},
					{Document: "course level", Metadata: map[string]any{"course_title": "Web Dev"}},
				}}
			},
			getLessonLink: func(ctx context.Context, title string, lesson int) string {
				linkCalls++
				return "https://example.com"
			},
		}
		s := tool.NewSearch(retriever)

		result, err := s.Execute(ctx, map[string]any{"query": "anything"})
		gt.NoError(t, err)
		gt.Equal(t, result.Text, "[unknown]\norphan chunk\n\n[Web Dev]\ncourse level")
		gt.Equal(t, result.Citations[0].Label, "unknown")
		gt.Equal(t, result.Citations[0].Link, "")
		gt.Equal(t, result.Citations[1].Link, "")
		gt.Equal(t, linkCalls, 0)
	})

	t.Run("citations are independent per call", func(t *testing.T) {
		hits := []model.Hit{{
			Document: "chunk",
			Metadata: map[string]any{"course_title": "Intro to MCP", "lesson_number": float64(1)},
		}}
		retriever := &mockRetriever{
			search: func(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
				return &model.SearchResult{Hits: hits}
			},
		}
		s := tool.NewSearch(retriever)

		first, err := s.Execute(ctx, map[string]any{"query": "a"})
		gt.NoError(t, err)
		second, err := s.Execute(ctx, map[string]any{"query": "b"})
		gt.NoError(t, err)

		first.Citations[0].Label = "mutated"
		gt.Equal(t, second.Citations[0].Label, "Intro to MCP - Lesson 1")
	})
}
