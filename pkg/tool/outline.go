package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/arunse/coursechat/pkg/index"
	"github.com/arunse/coursechat/pkg/model"
)

// Outline returns the full lesson listing of a course from catalog metadata.
type Outline struct {
	retriever Retriever
}

func NewOutline(retriever Retriever) *Outline {
	return &Outline{retriever: retriever}
}

func (x *Outline) Spec() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course including title, link, and all lessons",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"course_name": {
					Type:        genai.TypeString,
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

func (x *Outline) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	courseName, _ := args["course_name"].(string)

	title, err := x.retriever.ResolveCourseName(ctx, courseName)
	if err != nil {
		if errors.Is(err, index.ErrCourseNotFound) {
			return &Result{Text: fmt.Sprintf("No course found matching '%s'", courseName)}, nil
		}
		return &Result{Text: fmt.Sprintf("Error retrieving course outline: %v", err)}, nil
	}

	metadata, err := x.retriever.GetCourseMetadata(ctx, title)
	if err != nil {
		return &Result{Text: fmt.Sprintf("Error retrieving course outline: %v", err)}, nil
	}
	if metadata == nil {
		return &Result{Text: fmt.Sprintf("No metadata found for course '%s'", title)}, nil
	}

	return formatOutline(title, metadata), nil
}

func formatOutline(title string, metadata map[string]any) *Result {
	courseLink, _ := metadata["course_link"].(string)
	instructor, _ := metadata["instructor"].(string)
	rawLessons, _ := metadata["lessons_json"].(string)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", title)
	if courseLink != "" {
		fmt.Fprintf(&b, "\nCourse Link: %s", courseLink)
	}
	if instructor != "" {
		fmt.Fprintf(&b, "\nInstructor: %s", instructor)
	}

	lessons := model.ParseLessons(rawLessons)
	if len(lessons) == 0 {
		b.WriteString("\n\nNo lesson information available.")
	} else {
		sort.Slice(lessons, func(i, j int) bool {
			return lessons[i].Number < lessons[j].Number
		})

		fmt.Fprintf(&b, "\n\n**Course Outline (%d lessons):**", len(lessons))
		for _, lesson := range lessons {
			lessonTitle := lesson.Title
			if lessonTitle == "" {
				lessonTitle = "Untitled Lesson"
			}
			fmt.Fprintf(&b, "\n• Lesson %d: %s", lesson.Number, lessonTitle)
			if lesson.Link != "" {
				fmt.Fprintf(&b, "\n  Link: %s", lesson.Link)
			}
		}
	}

	return &Result{
		Text:      b.String(),
		Citations: []model.Citation{{Label: title, Link: courseLink}},
	}
}
