package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/m-mizutani/goerr/v2"

	"github.com/arunse/coursechat/pkg/adapter"
	"github.com/arunse/coursechat/pkg/model"
)

// Collection names. The catalog holds one record per course keyed by title,
// the content collection holds the chunked course material.
const (
	CatalogCollection = "course_catalog"
	ContentCollection = "course_content"
)

// ErrCourseNotFound is returned when a course name hint resolves to nothing.
var ErrCourseNotFound = goerr.New("course not found")

// Index is the retrieval layer over the two vector collections. Every query
// is embedded with the same model used at ingestion time.
type Index struct {
	db           adapter.Chroma
	gemini       adapter.Gemini
	maxResults   int
	embeddingDim int
}

type Option func(*Index)

func WithMaxResults(n int) Option {
	return func(x *Index) {
		x.maxResults = n
	}
}

func WithEmbeddingDim(dim int) Option {
	return func(x *Index) {
		x.embeddingDim = dim
	}
}

func New(db adapter.Chroma, gemini adapter.Gemini, opts ...Option) *Index {
	x := &Index{
		db:           db,
		gemini:       gemini,
		maxResults:   5,
		embeddingDim: 768,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ResolveCourseName maps a partial or fuzzy course name to the exact catalog
// title via a nearest-neighbor lookup. There is no similarity threshold: the
// best catalog match always wins when the catalog is non-empty.
func (x *Index) ResolveCourseName(ctx context.Context, name string) (string, error) {
	vec, err := x.gemini.Embedding(ctx, name, x.embeddingDim)
	if err != nil {
		return "", goerr.Wrap(err, "failed to embed course name", goerr.V("name", name))
	}

	hits, err := x.db.Query(ctx, CatalogCollection, vec, 1, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to query catalog", goerr.V("name", name))
	}
	if len(hits.Metadatas) == 0 {
		return "", goerr.Wrap(ErrCourseNotFound, "no catalog match", goerr.V("name", name))
	}

	title, ok := hits.Metadatas[0]["title"].(string)
	if !ok || title == "" {
		return "", goerr.Wrap(ErrCourseNotFound, "catalog record has no title", goerr.V("name", name))
	}

	return title, nil
}

// Search retrieves content chunks relevant to the query, optionally narrowed
// to one course and lesson. Failures are folded into the result's error
// message so the caller can hand them to the model as-is.
func (x *Index) Search(ctx context.Context, query, courseName string, lessonNumber *int) *model.SearchResult {
	var resolvedTitle string
	if courseName != "" {
		title, err := x.ResolveCourseName(ctx, courseName)
		if err != nil {
			if errors.Is(err, ErrCourseNotFound) {
				return model.ErrorResult(fmt.Sprintf("No course found matching '%s'", courseName))
			}
			return model.ErrorResult(fmt.Sprintf("Search error: %v", err))
		}
		resolvedTitle = title
	}

	vec, err := x.gemini.Embedding(ctx, query, x.embeddingDim)
	if err != nil {
		return model.ErrorResult(fmt.Sprintf("Search error: %v", err))
	}

	where := model.BuildFilter(resolvedTitle, lessonNumber)
	hits, err := x.db.Query(ctx, ContentCollection, vec, x.maxResults, where)
	if err != nil {
		return model.ErrorResult(fmt.Sprintf("Search error: %v", err))
	}

	result := &model.SearchResult{}
	for i, doc := range hits.Documents {
		hit := model.Hit{Document: doc}
		if i < len(hits.Metadatas) {
			hit.Metadata = hits.Metadatas[i]
		}
		if i < len(hits.Distances) {
			hit.Distance = hits.Distances[i]
		}
		result.Hits = append(result.Hits, hit)
	}

	sort.SliceStable(result.Hits, func(i, j int) bool {
		return result.Hits[i].Distance < result.Hits[j].Distance
	})

	return result
}

// GetCourseMetadata returns the catalog record for the exact course title,
// or nil when the course is unknown.
func (x *Index) GetCourseMetadata(ctx context.Context, title string) (map[string]any, error) {
	md, err := x.db.Get(ctx, CatalogCollection, title)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get course metadata", goerr.V("title", title))
	}
	return md, nil
}

// GetLessonLink returns the link for one lesson of a course, or "" when the
// course, lesson, or link is missing.
func (x *Index) GetLessonLink(ctx context.Context, title string, lesson int) string {
	md, err := x.GetCourseMetadata(ctx, title)
	if err != nil || md == nil {
		return ""
	}

	raw, _ := md["lessons_json"].(string)
	for _, l := range model.ParseLessons(raw) {
		if l.Number == lesson {
			return l.Link
		}
	}

	return ""
}

// ListCourseTitles returns all catalog titles in sorted order.
func (x *Index) ListCourseTitles(ctx context.Context) ([]string, error) {
	ids, err := x.db.ListIDs(ctx, CatalogCollection)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list course titles")
	}
	sort.Strings(ids)
	return ids, nil
}

// GetCourseCount returns the number of courses in the catalog.
func (x *Index) GetCourseCount(ctx context.Context) (int, error) {
	count, err := x.db.Count(ctx, CatalogCollection)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count courses")
	}
	return count, nil
}

// AddCourse inserts one catalog record. The course title is both the record
// ID and the document text so that title embeddings drive name resolution.
func (x *Index) AddCourse(ctx context.Context, course *model.Course) error {
	vec, err := x.gemini.Embedding(ctx, course.Title, x.embeddingDim)
	if err != nil {
		return goerr.Wrap(err, "failed to embed course title", goerr.V("title", course.Title))
	}

	lessonsJSON, err := marshalLessons(course.Lessons)
	if err != nil {
		return goerr.Wrap(err, "failed to serialize lessons", goerr.V("title", course.Title))
	}

	metadata := map[string]any{
		"title":        course.Title,
		"instructor":   course.Instructor,
		"course_link":  course.Link,
		"lessons_json": lessonsJSON,
		"lesson_count": len(course.Lessons),
	}

	return x.db.Add(ctx, CatalogCollection,
		[]string{course.Title},
		[]string{course.Title},
		[]map[string]any{metadata},
		[][]float32{vec},
	)
}

// AddChunks inserts content chunks for a course. Each chunk is embedded
// individually.
func (x *Index) AddChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var (
		ids       []string
		documents []string
		metadatas []map[string]any
		vectors   [][]float32
	)
	for _, chunk := range chunks {
		vec, err := x.gemini.Embedding(ctx, chunk.Content, x.embeddingDim)
		if err != nil {
			return goerr.Wrap(err, "failed to embed chunk", goerr.V("id", chunk.ID()))
		}

		metadata := map[string]any{
			"course_title": chunk.CourseTitle,
			"chunk_index":  chunk.Index,
		}
		if chunk.LessonNumber != nil {
			metadata["lesson_number"] = *chunk.LessonNumber
		}

		ids = append(ids, chunk.ID())
		documents = append(documents, chunk.Content)
		metadatas = append(metadatas, metadata)
		vectors = append(vectors, vec)
	}

	return x.db.Add(ctx, ContentCollection, ids, documents, metadatas, vectors)
}

func marshalLessons(lessons []model.Lesson) (string, error) {
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	raw, err := json.Marshal(lessons)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Clear drops both collections.
func (x *Index) Clear(ctx context.Context) error {
	if err := x.db.Reset(ctx, CatalogCollection); err != nil {
		return err
	}
	return x.db.Reset(ctx, ContentCollection)
}
