// Package qdrant implements vectorstore.Store backed by a Qdrant collection
// over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

const (
	readyPollInterval    = 1 * time.Second
	defaultReadyAttempts = 60

	// mmrFetchFactor oversamples candidates before MMR re-selection.
	mmrFetchFactor = 4
)

// Store implements vectorstore.Store using Qdrant.
type Store struct {
	conn          *grpc.ClientConn
	points        pb.PointsClient
	collections   pb.CollectionsClient
	collection    string
	dimension     int
	apiKey        string
	readyAttempts int
}

// New connects to a Qdrant instance. The connection is lazy; EnsureIndex
// performs the first round trip.
func New(ctx context.Context, cfg vectorstore.Config) (vectorstore.Store, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	attempts := cfg.ReadyAttempts
	if attempts <= 0 {
		attempts = defaultReadyAttempts
	}
	return &Store{
		conn:          conn,
		points:        pb.NewPointsClient(conn),
		collections:   pb.NewCollectionsClient(conn),
		collection:    cfg.IndexName,
		dimension:     cfg.Dimension,
		apiKey:        cfg.APIKey,
		readyAttempts: attempts,
	}, nil
}

// EnsureIndex creates the collection (cosine metric, configured dimension)
// if missing and polls until it reports green, bounded by readyAttempts.
func (s *Store) EnsureIndex(ctx context.Context) error {
	ctx = s.withAuth(ctx)

	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: listing collections: %v", vectorstore.ErrUnavailable, err)
	}
	exists := false
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			exists = true
			break
		}
	}

	if !exists {
		_, err = s.collections.Create(ctx, &pb.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: &pb.VectorsConfig{
				Config: &pb.VectorsConfig_Params{
					Params: &pb.VectorParams{
						Size:     uint64(s.dimension),
						Distance: pb.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("qdrant create collection: %w", err)
		}
	}

	for attempt := 0; attempt < s.readyAttempts; attempt++ {
		info, err := s.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: s.collection})
		if err == nil && info.GetResult().GetStatus() == pb.CollectionStatus_Green {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
	return fmt.Errorf("%w: collection %q not ready after %d attempts", vectorstore.ErrUnavailable, s.collection, s.readyAttempts)
}

func (s *Store) Store(ctx context.Context, chunks []corpus.Chunk, vectors [][]float32) ([]string, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("qdrant store: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	points := make([]*pb.PointStruct, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		payload := map[string]*pb.Value{
			"id":          {Kind: &pb.Value_StringValue{StringValue: c.ID}},
			"text":        {Kind: &pb.Value_StringValue{StringValue: c.Text}},
			"source":      {Kind: &pb.Value_StringValue{StringValue: c.Metadata.Source}},
			"page":        {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.Metadata.Page)}},
			"total_pages": {Kind: &pb.Value_IntegerValue{IntegerValue: int64(c.Metadata.TotalPages)}},
		}
		points[i] = &pb.PointStruct{
			Id:      pointID(c.ID),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[i]}}},
			Payload: payload,
		}
		ids[i] = c.ID
	}

	_, err := s.points.Upsert(s.withAuth(ctx), &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant upsert: %w", err)
	}
	return ids, nil
}

func (s *Store) Query(ctx context.Context, vector []float32, strategy vectorstore.SearchStrategy, k int) ([]vectorstore.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("qdrant query: k must be positive, got %d", k)
	}
	ctx = s.withAuth(ctx)

	switch strategy {
	case vectorstore.StrategyMMR:
		return s.queryMMR(ctx, vector, k)
	case vectorstore.StrategySimilarity, "":
		return s.querySimilarity(ctx, vector, k)
	}
	return nil, fmt.Errorf("qdrant query: unknown strategy %q", strategy)
}

func (s *Store) querySimilarity(ctx context.Context, vector []float32, k int) ([]vectorstore.ScoredChunk, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	results := make([]vectorstore.ScoredChunk, len(resp.GetResult()))
	for i, pt := range resp.GetResult() {
		results[i] = vectorstore.ScoredChunk{
			Chunk: chunkFromPayload(pt.GetPayload()),
			Score: pt.GetScore(),
		}
	}
	return results, nil
}

// queryMMR oversamples by mmrFetchFactor, then re-selects k diverse results
// client side. Qdrant has no native MMR.
func (s *Store) queryMMR(ctx context.Context, vector []float32, k int) ([]vectorstore.ScoredChunk, error) {
	fetch := k * mmrFetchFactor
	if fetch < 20 {
		fetch = 20
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(fetch),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}

	hits := resp.GetResult()
	candidates := make([][]float32, len(hits))
	for i, pt := range hits {
		candidates[i] = pt.GetVectors().GetVector().GetData()
	}

	var results []vectorstore.ScoredChunk
	for _, idx := range vectorstore.MaximalMarginalRelevance(vector, candidates, k) {
		pt := hits[idx]
		results = append(results, vectorstore.ScoredChunk{
			Chunk: chunkFromPayload(pt.GetPayload()),
			Score: pt.GetScore(),
		})
	}
	return results, nil
}

// Exists returns the subset of chunk ids already present, via a batched
// point lookup. This is the dedup primitive the ingestion pipeline uses.
func (s *Store) Exists(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	resp, err := s.points.Get(s.withAuth(ctx), &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant get points: %w", err)
	}

	var present []string
	for _, pt := range resp.GetResult() {
		if id := pt.GetPayload()["id"].GetStringValue(); id != "" {
			present = append(present, id)
		}
	}
	return present, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// withAuth attaches the api-key metadata for Qdrant Cloud; local instances
// run without one.
func (s *Store) withAuth(ctx context.Context) context.Context {
	if s.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
}

// pointID maps a content hash to a deterministic UUID point id, so the same
// chunk always lands on the same point regardless of which run wrote it.
func pointID(chunkID string) *pb.PointId {
	u := uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID))
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: u.String()}}
}

func chunkFromPayload(payload map[string]*pb.Value) corpus.Chunk {
	return corpus.Chunk{
		ID:   payload["id"].GetStringValue(),
		Text: payload["text"].GetStringValue(),
		Metadata: corpus.Metadata{
			Source:     payload["source"].GetStringValue(),
			Page:       int(payload["page"].GetIntegerValue()),
			TotalPages: int(payload["total_pages"].GetIntegerValue()),
		},
	}
}

var _ vectorstore.Store = (*Store)(nil)
