package course

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/arunse/coursechat/pkg/model"
	"github.com/arunse/coursechat/pkg/utils/logging"
)

// Ingestor is the index surface the loader writes to.
type Ingestor interface {
	AddCourse(ctx context.Context, course *model.Course) error
	AddChunks(ctx context.Context, chunks []*model.Chunk) error
	ListCourseTitles(ctx context.Context) ([]string, error)
}

// Document is the on-disk course description format. Chunking happens
// upstream; each lesson carries its pre-chunked content.
type Document struct {
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Instructor string `yaml:"instructor"`
	Lessons    []struct {
		Number int      `yaml:"number"`
		Title  string   `yaml:"title"`
		Link   string   `yaml:"link"`
		Chunks []string `yaml:"chunks"`
	} `yaml:"lessons"`
}

// LoadResult summarizes one ingestion run.
type LoadResult struct {
	CoursesAdded int
	ChunksAdded  int
	Skipped      int
}

// Load ingests the course documents in the given files. Courses whose title
// is already in the catalog are skipped, so re-running a load is safe.
func Load(ctx context.Context, ingestor Ingestor, paths []string) (*LoadResult, error) {
	existing, err := ingestor.ListCourseTitles(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list existing courses")
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	result := &LoadResult{}
	for _, path := range paths {
		doc, err := readDocument(path)
		if err != nil {
			return nil, err
		}

		if known[doc.Title] {
			logging.From(ctx).Info("skipping already ingested course", "title", doc.Title)
			result.Skipped++
			continue
		}

		course, chunks := convert(doc)
		if err := ingestor.AddCourse(ctx, course); err != nil {
			return nil, goerr.Wrap(err, "failed to add course", goerr.V("title", doc.Title))
		}
		if err := ingestor.AddChunks(ctx, chunks); err != nil {
			return nil, goerr.Wrap(err, "failed to add chunks", goerr.V("title", doc.Title))
		}

		known[doc.Title] = true
		result.CoursesAdded++
		result.ChunksAdded += len(chunks)
		logging.From(ctx).Info("ingested course", "title", doc.Title, "chunks", len(chunks))
	}

	return result, nil
}

func readDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read course file", goerr.V("path", path))
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse course file", goerr.V("path", path))
	}
	if doc.Title == "" {
		return nil, goerr.New("course file has no title", goerr.V("path", path))
	}

	return &doc, nil
}

// convert maps a document to its catalog record and content chunks. Chunk
// indexes are contiguous across lessons within one course.
func convert(doc *Document) (*model.Course, []*model.Chunk) {
	course := &model.Course{
		Title:      doc.Title,
		Link:       doc.Link,
		Instructor: doc.Instructor,
	}

	var chunks []*model.Chunk
	index := 0
	for _, lesson := range doc.Lessons {
		course.Lessons = append(course.Lessons, model.Lesson{
			Number: lesson.Number,
			Title:  lesson.Title,
			Link:   lesson.Link,
		})

		number := lesson.Number
		for _, content := range lesson.Chunks {
			chunks = append(chunks, &model.Chunk{
				Content:      content,
				CourseTitle:  doc.Title,
				LessonNumber: &number,
				Index:        index,
			})
			index++
		}
	}

	return course, chunks
}
