package course

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Analytics is a summary of the indexed catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Catalog is the read surface used for analytics.
type Catalog interface {
	ListCourseTitles(ctx context.Context) ([]string, error)
	GetCourseCount(ctx context.Context) (int, error)
}

// List returns the catalog summary.
func List(ctx context.Context, catalog Catalog) (*Analytics, error) {
	titles, err := catalog.ListCourseTitles(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list courses")
	}

	count, err := catalog.GetCourseCount(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count courses")
	}

	return &Analytics{
		TotalCourses: count,
		CourseTitles: titles,
	}, nil
}
