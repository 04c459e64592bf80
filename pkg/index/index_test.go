package index_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/arunse/coursechat/pkg/adapter"
	"github.com/arunse/coursechat/pkg/index"
	"github.com/arunse/coursechat/pkg/model"
)

type mockGemini struct {
	adapter.Gemini
	embedding func(ctx context.Context, text string, dim int) ([]float32, error)
}

func (x *mockGemini) Embedding(ctx context.Context, text string, dim int) ([]float32, error) {
	if x.embedding != nil {
		return x.embedding(ctx, text, dim)
	}
	return make([]float32, dim), nil
}

type mockChroma struct {
	adapter.Chroma
	query   func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error)
	get     func(ctx context.Context, collection, id string) (map[string]any, error)
	listIDs func(ctx context.Context, collection string) ([]string, error)
	count   func(ctx context.Context, collection string) (int, error)
}

func (x *mockChroma) Query(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
	return x.query(ctx, collection, embedding, k, where)
}

func (x *mockChroma) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	return x.get(ctx, collection, id)
}

func (x *mockChroma) ListIDs(ctx context.Context, collection string) ([]string, error) {
	return x.listIDs(ctx, collection)
}

func (x *mockChroma) Count(ctx context.Context, collection string) (int, error) {
	return x.count(ctx, collection)
}

func TestResolveCourseName(t *testing.T) {
	ctx := context.Background()

	t.Run("best catalog match wins", func(t *testing.T) {
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				gt.Equal(t, collection, index.CatalogCollection)
				gt.Equal(t, k, 1)
				return &adapter.QueryHits{
					Documents: []string{"Intro to MCP"},
					Metadatas: []map[string]any{{"title": "Intro to MCP"}},
					Distances: []float64{0.3},
				}, nil
			},
		}
		idx := index.New(db, &mockGemini{})

		title, err := idx.ResolveCourseName(ctx, "MCP")
		gt.NoError(t, err)
		gt.Equal(t, title, "Intro to MCP")
	})

	t.Run("empty catalog", func(t *testing.T) {
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				return &adapter.QueryHits{}, nil
			},
		}
		idx := index.New(db, &mockGemini{})

		_, err := idx.ResolveCourseName(ctx, "anything")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, index.ErrCourseNotFound))
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown course short-circuits before content query", func(t *testing.T) {
		contentQueried := false
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				if collection == index.ContentCollection {
					contentQueried = true
				}
				return &adapter.QueryHits{}, nil
			},
		}
		idx := index.New(db, &mockGemini{})

		result := idx.Search(ctx, "what is a server", "Nonexistent", nil)
		gt.Equal(t, result.Err, "No course found matching 'Nonexistent'")
		gt.False(t, contentQueried)
	})

	t.Run("backend failure becomes search error", func(t *testing.T) {
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				return nil, errors.New("connection refused")
			},
		}
		idx := index.New(db, &mockGemini{})

		result := idx.Search(ctx, "what is a server", "", nil)
		gt.S(t, result.Err).Contains("Search error:")
		gt.S(t, result.Err).Contains("connection refused")
	})

	t.Run("filter uses resolved title, not the raw hint", func(t *testing.T) {
		lesson := 2
		var gotWhere model.Predicate
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				if collection == index.CatalogCollection {
					return &adapter.QueryHits{
						Documents: []string{"Intro to MCP"},
						Metadatas: []map[string]any{{"title": "Intro to MCP"}},
					}, nil
				}
				gotWhere = where
				return &adapter.QueryHits{}, nil
			},
		}
		idx := index.New(db, &mockGemini{})

		result := idx.Search(ctx, "servers", "MCP", &lesson)
		gt.Equal(t, result.Err, "")

		and, ok := gotWhere.(model.And)
		gt.True(t, ok)
		left, ok := and.Left.(model.Equals)
		gt.True(t, ok)
		gt.Equal(t, left.Value, any("Intro to MCP"))
		right, ok := and.Right.(model.Equals)
		gt.True(t, ok)
		gt.Equal(t, right.Value, any(2))
	})

	t.Run("hits ordered by distance", func(t *testing.T) {
		db := &mockChroma{
			query: func(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*adapter.QueryHits, error) {
				return &adapter.QueryHits{
					Documents: []string{"far", "near"},
					Metadatas: []map[string]any{{}, {}},
					Distances: []float64{0.9, 0.1},
				}, nil
			},
		}
		idx := index.New(db, &mockGemini{})

		result := idx.Search(ctx, "anything", "", nil)
		gt.A(t, result.Hits).Length(2)
		gt.Equal(t, result.Hits[0].Document, "near")
		gt.Equal(t, result.Hits[1].Document, "far")
	})

	t.Run("embedding failure becomes search error", func(t *testing.T) {
		gemini := &mockGemini{
			embedding: func(ctx context.Context, text string, dim int) ([]float32, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		idx := index.New(&mockChroma{}, gemini)

		result := idx.Search(ctx, "anything", "", nil)
		gt.S(t, result.Err).Contains("Search error:")
	})
}

func TestGetLessonLink(t *testing.T) {
	ctx := context.Background()

	t.Run("known lesson", func(t *testing.T) {
		db := &mockChroma{
			get: func(ctx context.Context, collection, id string) (map[string]any, error) {
				return map[string]any{
					"lessons_json": `[{"lesson_number":1,"lesson_title":"Intro","lesson_link":"https://example.com/l1"}]`,
				}, nil
			},
		}
		idx := index.New(db, &mockGemini{})
		gt.Equal(t, idx.GetLessonLink(ctx, "Intro to MCP", 1), "https://example.com/l1")
	})

	t.Run("malformed lessons degrade to empty link", func(t *testing.T) {
		db := &mockChroma{
			get: func(ctx context.Context, collection, id string) (map[string]any, error) {
				return map[string]any{"lessons_json": "{broken"}, nil
			},
		}
		idx := index.New(db, &mockGemini{})
		gt.Equal(t, idx.GetLessonLink(ctx, "Intro to MCP", 1), "")
	})

	t.Run("missing course", func(t *testing.T) {
		db := &mockChroma{
			get: func(ctx context.Context, collection, id string) (map[string]any, error) {
				return nil, nil
			},
		}
		idx := index.New(db, &mockGemini{})
		gt.Equal(t, idx.GetLessonLink(ctx, "Nope", 1), "")
	})
}

func TestListCourseTitles(t *testing.T) {
	ctx := context.Background()
	db := &mockChroma{
		listIDs: func(ctx context.Context, collection string) ([]string, error) {
			return []string{"Web Dev", "Intro to MCP"}, nil
		},
	}
	idx := index.New(db, &mockGemini{})

	titles, err := idx.ListCourseTitles(ctx)
	gt.NoError(t, err)
	gt.A(t, titles).Length(2)
	gt.Equal(t, titles[0], "Intro to MCP")
	gt.Equal(t, titles[1], "Web Dev")
}
