package adapter

import (
	"context"
	"encoding/json"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/m-mizutani/goerr/v2"

	"github.com/arunse/coursechat/pkg/model"
)

// QueryHits is the raw result of a nearest-neighbor query, aligned by index.
type QueryHits struct {
	Documents []string
	Metadatas []map[string]any
	Distances []float64
}

type Chroma interface {
	Query(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*QueryHits, error)
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	ListIDs(ctx context.Context, collection string) ([]string, error)
	Add(ctx context.Context, collection string, ids, documents []string, metadatas []map[string]any, vectors [][]float32) error
	Count(ctx context.Context, collection string) (int, error)
	Reset(ctx context.Context, collection string) error
}

type ChromaClient struct {
	client      chromago.Client
	collections map[string]chromago.Collection
	mu          sync.Mutex
}

func NewChroma(baseURL string) (*ChromaClient, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create chroma client", goerr.V("url", baseURL))
	}

	return &ChromaClient{
		client:      client,
		collections: map[string]chromago.Collection{},
	}, nil
}

func (x *ChromaClient) collection(ctx context.Context, name string) (chromago.Collection, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if col, ok := x.collections[name]; ok {
		return col, nil
	}

	col, err := x.client.GetOrCreateCollection(ctx, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get or create collection", goerr.V("collection", name))
	}
	x.collections[name] = col

	return col, nil
}

func whereFilter(p model.Predicate) (chromago.WhereClause, error) {
	switch pred := p.(type) {
	case nil:
		return nil, nil
	case model.Equals:
		switch v := pred.Value.(type) {
		case string:
			return chromago.EqString(pred.Field, v), nil
		case int:
			return chromago.EqInt(pred.Field, v), nil
		default:
			return nil, goerr.New("unsupported filter value type", goerr.V("field", pred.Field))
		}
	case model.And:
		left, err := whereFilter(pred.Left)
		if err != nil {
			return nil, err
		}
		right, err := whereFilter(pred.Right)
		if err != nil {
			return nil, err
		}
		return chromago.And(left, right), nil
	default:
		return nil, goerr.New("unsupported predicate type")
	}
}

// metadataToMap converts a chroma document metadata into a plain map via a
// JSON round trip. Numeric values come back as float64. A malformed record
// degrades to an empty map.
func metadataToMap(md chromago.DocumentMetadata) map[string]any {
	result := map[string]any{}
	if md == nil {
		return result
	}

	raw, err := json.Marshal(md)
	if err != nil {
		return map[string]any{}
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]any{}
	}

	return result
}

func metadataFromMap(m map[string]any) (chromago.DocumentMetadata, error) {
	var attrs []*chromago.MetaAttribute
	for k, v := range m {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		default:
			return nil, goerr.New("unsupported metadata value type", goerr.V("key", k))
		}
	}

	return chromago.NewDocumentMetadata(attrs...), nil
}

func (x *ChromaClient) Query(ctx context.Context, collection string, embedding []float32, k int, where model.Predicate) (*QueryHits, error) {
	col, err := x.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(k),
	}
	if where != nil {
		filter, err := whereFilter(where)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromago.WithWhereQuery(filter))
	}

	resp, err := col.Query(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query collection", goerr.V("collection", collection))
	}

	hits := &QueryHits{}
	for _, group := range resp.GetDocumentsGroups() {
		for _, doc := range group {
			hits.Documents = append(hits.Documents, doc.ContentString())
		}
	}
	for _, group := range resp.GetMetadatasGroups() {
		for _, md := range group {
			hits.Metadatas = append(hits.Metadatas, metadataToMap(md))
		}
	}
	for _, group := range resp.GetDistancesGroups() {
		for _, d := range group {
			hits.Distances = append(hits.Distances, float64(d))
		}
	}
	for len(hits.Distances) < len(hits.Documents) {
		hits.Distances = append(hits.Distances, 0)
	}

	return hits, nil
}

func (x *ChromaClient) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	col, err := x.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	resp, err := col.Get(ctx, chromago.WithIDsGet(chromago.DocumentID(id)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get record", goerr.V("collection", collection), goerr.V("id", id))
	}

	metadatas := resp.GetMetadatas()
	if len(metadatas) == 0 {
		return nil, nil
	}

	return metadataToMap(metadatas[0]), nil
}

func (x *ChromaClient) ListIDs(ctx context.Context, collection string) ([]string, error) {
	col, err := x.collection(ctx, collection)
	if err != nil {
		return nil, err
	}

	resp, err := col.Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records", goerr.V("collection", collection))
	}

	var ids []string
	for _, id := range resp.GetIDs() {
		ids = append(ids, string(id))
	}

	return ids, nil
}

func (x *ChromaClient) Add(ctx context.Context, collection string, ids, documents []string, metadatas []map[string]any, vectors [][]float32) error {
	col, err := x.collection(ctx, collection)
	if err != nil {
		return err
	}

	docIDs := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chromago.DocumentID(id)
	}

	docMetadatas := make([]chromago.DocumentMetadata, len(metadatas))
	for i, md := range metadatas {
		converted, err := metadataFromMap(md)
		if err != nil {
			return err
		}
		docMetadatas[i] = converted
	}

	embeds := make([]embeddings.Embedding, len(vectors))
	for i, vec := range vectors {
		embeds[i] = embeddings.NewEmbeddingFromFloat32(vec)
	}

	if err := col.Add(ctx,
		chromago.WithIDs(docIDs...),
		chromago.WithTexts(documents...),
		chromago.WithMetadatas(docMetadatas...),
		chromago.WithEmbeddings(embeds...),
	); err != nil {
		return goerr.Wrap(err, "failed to add records", goerr.V("collection", collection), goerr.V("count", len(ids)))
	}

	return nil
}

func (x *ChromaClient) Count(ctx context.Context, collection string) (int, error) {
	col, err := x.collection(ctx, collection)
	if err != nil {
		return 0, err
	}

	count, err := col.Count(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count records", goerr.V("collection", collection))
	}

	return int(count), nil
}

func (x *ChromaClient) Reset(ctx context.Context, collection string) error {
	x.mu.Lock()
	delete(x.collections, collection)
	x.mu.Unlock()

	if err := x.client.DeleteCollection(ctx, collection); err != nil {
		return goerr.Wrap(err, "failed to delete collection", goerr.V("collection", collection))
	}

	return nil
}
