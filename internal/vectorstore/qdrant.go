// Package vectorstore mirrors the passage index into a Qdrant collection.
package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/storage"
)

// QdrantStore keeps a copy of every committed passage in Qdrant and serves
// vector queries from it.
type QdrantStore struct {
	client     *qdrant.Client
	collection string

	mu    sync.Mutex
	ready int // vector size of the ensured collection, 0 if unknown
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr, collection string) (*QdrantStore, error) {
	host, port, err := grpcAddress(urlStr)
	if err != nil {
		return nil, err
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client:     client,
		collection: collection,
	}, nil
}

// grpcAddress derives the gRPC host and port from the HTTP URL.
func grpcAddress(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			port = httpPort + 1
		}
	}
	return host, port, nil
}

// Collection returns the mirrored collection name.
func (s *QdrantStore) Collection() string {
	return s.collection
}

// Close releases the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// UpsertPassages writes every vectored passage as a point. The collection is
// created on first use with the size of the first vector.
func (s *QdrantStore) UpsertPassages(ctx context.Context, passages []indexer.Passage) error {
	logger := contextutil.LoggerFromContext(ctx)

	points := make([]*qdrant.PointStruct, 0, len(passages))
	dims := 0
	for _, p := range passages {
		if pt := passagePoint(p); pt != nil {
			points = append(points, pt)
			if dims == 0 {
				dims = len(p.Vector)
			}
		}
	}
	if len(points) == 0 {
		return nil
	}

	if err := s.ensure(ctx, dims); err != nil {
		return err
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", s.collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", s.collection, "count", len(points))
	return nil
}

// DeleteNotes removes every point belonging to noteIDs.
func (s *QdrantStore) DeleteNotes(ctx context.Context, noteIDs []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(noteIDs) == 0 {
		return nil
	}
	exists, err := s.CollectionExists(ctx)
	if err != nil || !exists {
		return err
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(noteFilter(noteIDs)),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", s.collection, "notes", len(noteIDs), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted note points", "collection", s.collection, "notes", len(noteIDs))
	return nil
}

// Reset drops the collection. The next upsert recreates it.
func (s *QdrantStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	s.ready = 0
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection reset", "collection", s.collection)
	return nil
}

// Search returns the passage ids closest to query, honoring flag filters.
func (s *QdrantStore) Search(ctx context.Context, query []float32, filters storage.Filters, limit int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	k := uint64(limit)
	queryReq := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &k,
		Filter:         buildFilter(filters),
		WithPayload:    qdrant.NewWithPayloadInclude(payloadPassageID),
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", s.collection, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		id := passageIDOf(point.GetPayload())
		if id == "" {
			continue
		}
		results = append(results, SearchResult{PassageID: id, Score: point.GetScore()})
	}

	logger.DebugContext(ctx, "search completed", "collection", s.collection, "limit", limit, "results", len(results))
	return results, nil
}

// CollectionExists checks if the collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

func (s *QdrantStore) ensure(ctx context.Context, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready == vectorSize {
		return nil
	}
	if err := s.EnsureCollection(ctx, vectorSize); err != nil {
		return err
	}
	s.ready = vectorSize
	return nil
}

// EnsureCollection ensures the collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches.
// If it doesn't exist, creates it with the specified vector size.
func (s *QdrantStore) EnsureCollection(ctx context.Context, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return err
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      payloadNoteID,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to index note_id: %w", err)
		}
		return nil
	}

	info, err := s.GetCollectionInfo(ctx)
	if err != nil {
		return err
	}
	if info.VectorSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if info.VectorSize != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, info.VectorSize)
	}

	logger.DebugContext(ctx, "collection validated", "collection", s.collection, "vector_size", vectorSize)
	return nil
}

// GetCollectionInfo returns information about the collection including point count.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var vectorSize int
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if vectorsConfig := config.GetParams().GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				vectorSize = int(params.GetSize())
			}
		}
	}

	status := "unknown"
	if info.Status != 0 {
		status = info.Status.String()
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: int(info.GetPointsCount()),
		Status:      status,
	}, nil
}
