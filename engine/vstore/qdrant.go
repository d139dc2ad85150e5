package vstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/Arjun3125/doctrine-ingest/engine/domain"
)

// CombinedCollection is the single collection backing SearchCombined; every
// domain's nodes live here too, each carrying a "domain" payload field.
// SearchCombined applies no domain filter (§4.I).
const CombinedCollection = "doctrine_combined"

const domainCollectionPrefix = "doctrine_domain_"

// QdrantStore is the production VectorStore backend, addressing the
// combined index via CombinedCollection and each domain's own index via a
// separate per-domain collection — the same gRPC client the teacher's
// engine/semantic package already uses for its own Qdrant access.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	dims        int
}

// NewQdrantStore dials Qdrant at addr. dims is the embedding dimensionality
// used when lazily creating collections.
func NewQdrantStore(addr string, dims int) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vstore: dial qdrant %s: %w", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		dims:        dims,
	}, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantStore) Close() error { return q.conn.Close() }

func domainCollection(dom domain.Domain) string {
	return domainCollectionPrefix + string(dom)
}

func (q *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	list, err := q.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == name {
			return nil
		}
	}
	_, err = q.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(q.dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vstore: create collection %s: %w", name, err)
	}
	return nil
}

func recordToPoint(r Record) *pb.PointStruct {
	payload := map[string]*pb.Value{
		"domain":         {Kind: &pb.Value_StringValue{StringValue: string(r.Domain)}},
		"category":       {Kind: &pb.Value_StringValue{StringValue: r.Category}},
		"text":           {Kind: &pb.Value_StringValue{StringValue: r.Text}},
		"weight":         {Kind: &pb.Value_DoubleValue{DoubleValue: float64(r.Weight)}},
		"source_book":    {Kind: &pb.Value_StringValue{StringValue: r.SourceBook}},
		"source_chapter": {Kind: &pb.Value_StringValue{StringValue: r.SourceChapter}},
	}
	return &pb.PointStruct{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
		Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: r.Embedding}}},
		Payload: payload,
	}
}

func (q *QdrantStore) upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := q.ensureCollection(ctx, collection); err != nil {
		return err
	}
	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = recordToPoint(r)
	}
	wait := true
	_, err := q.points.Upsert(ctx, &pb.UpsertPoints{CollectionName: collection, Wait: &wait, Points: points})
	if err != nil {
		return fmt.Errorf("vstore: upsert %d points into %s: %w", len(records), collection, err)
	}
	return nil
}

// InsertCombined validates dom and upserts a single record into CombinedCollection.
func (q *QdrantStore) InsertCombined(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, sourceBook, sourceChapter string, weight float32) (string, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return "", err
	}
	rec := Record{ID: uuid.NewString(), Domain: dom, Category: category, Text: text, Embedding: embedding, Weight: weight, SourceBook: sourceBook, SourceChapter: sourceChapter}
	if err := q.upsert(ctx, CombinedCollection, []Record{rec}); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// InsertDomain validates dom and upserts a single record into that domain's own collection.
func (q *QdrantStore) InsertDomain(ctx context.Context, dom domain.Domain, category, text string, embedding []float32, weight float32) (string, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return "", err
	}
	rec := Record{ID: uuid.NewString(), Domain: dom, Category: category, Text: text, Embedding: embedding, Weight: weight}
	if err := q.upsert(ctx, domainCollection(dom), []Record{rec}); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// InsertCombinedBatch upserts many records into CombinedCollection, skipping
// any with an invalid domain rather than failing the whole batch.
func (q *QdrantStore) InsertCombinedBatch(ctx context.Context, records []Record) ([]string, error) {
	valid := make([]Record, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if err := domain.ValidateDomain(r.Domain); err != nil {
			continue
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		valid = append(valid, r)
		ids = append(ids, r.ID)
	}
	if err := q.upsert(ctx, CombinedCollection, valid); err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertDomainBatch groups records by domain and upserts each group into its
// own collection, skipping any with an invalid domain.
func (q *QdrantStore) InsertDomainBatch(ctx context.Context, records []Record) ([]string, error) {
	byDomain := make(map[domain.Domain][]Record)
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if err := domain.ValidateDomain(r.Domain); err != nil {
			continue
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		byDomain[r.Domain] = append(byDomain[r.Domain], r)
		ids = append(ids, r.ID)
	}
	for dom, recs := range byDomain {
		if err := q.upsert(ctx, domainCollection(dom), recs); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (q *QdrantStore) search(ctx context.Context, collection string, query []float32, topK int, filter *pb.Filter) ([]Record, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         query,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter:         filter,
	}
	resp, err := q.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vstore: search %s: %w", collection, err)
	}
	out := make([]Record, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		payload := r.GetPayload()
		out[i] = Record{
			ID:            r.GetId().GetUuid(),
			Score:         r.GetScore(),
			Domain:        domain.Domain(payload["domain"].GetStringValue()),
			Category:      payload["category"].GetStringValue(),
			Text:          payload["text"].GetStringValue(),
			SourceBook:    payload["source_book"].GetStringValue(),
			SourceChapter: payload["source_chapter"].GetStringValue(),
			Weight:        float32(payload["weight"].GetDoubleValue()),
		}
	}
	return out, nil
}

// SearchCombined performs k-NN search over CombinedCollection. Score is
// Qdrant's native cosine similarity, returned as is: it is not scaled by the
// record's weight, and results keep Qdrant's order. SearchDomain behaves
// the same way.
func (q *QdrantStore) SearchCombined(ctx context.Context, query []float32, topK int) ([]Record, error) {
	return q.search(ctx, CombinedCollection, query, topK, nil)
}

// SearchDomain performs k-NN search scoped to dom's own collection.
func (q *QdrantStore) SearchDomain(ctx context.Context, dom domain.Domain, query []float32, topK int) ([]Record, error) {
	if err := domain.ValidateDomain(dom); err != nil {
		return nil, err
	}
	return q.search(ctx, domainCollection(dom), query, topK, nil)
}
