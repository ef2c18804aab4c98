// Package vectorstore implements C8: embedding persistence and similarity
// retrieval over the chunk_index collection. Grounded on the teacher's
// models/chunk_index.go document shape and services/pdf_service.go's
// BulkWrite upsert pattern (both since adapted/removed from the tree, their
// shape carried forward here); retrieval itself has no teacher precedent
// since the original chat routes called Gemini directly without a vector
// search step, so the cosine-similarity scan and parent/sibling expansion
// are new, grounded on spec.md §4.8.
package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"legaldoc-pipeline/internal/ai"
	"legaldoc-pipeline/internal/config"
	"legaldoc-pipeline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// chunkDoc is the persisted shape of a single indexed chunk.
type chunkDoc struct {
	ChunkID    string    `bson:"chunk_id"`
	DocumentID string    `bson:"document_id"`
	SectionID  string    `bson:"section_id"`
	ParentID   *string   `bson:"parent_id,omitempty"`
	ChunkType  string    `bson:"chunk_type"`
	Position   int       `bson:"position"`
	Content    string    `bson:"content"`
	Vector     []float32 `bson:"vector"`
}

// ResultCache is the narrow cache interface C8 needs from C12, kept small
// the same way anonymizer.MappingStore is, so this package doesn't depend
// on the concrete Redis client.
type ResultCache interface {
	GetCachedQuery(ctx context.Context, key string) ([]models.RetrievalResult, bool, error)
	SetCachedQuery(ctx context.Context, key string, results []models.RetrievalResult, ttlSeconds int) error
}

// Store is the Mongo-backed vector index.
type Store struct {
	coll  *mongo.Collection
	cfg   *config.Config
	cache ResultCache
}

func New(client *mongo.Client, cfg *config.Config, cache ResultCache) *Store {
	return &Store{
		coll:  client.Database(cfg.DBName).Collection("chunk_index"),
		cfg:   cfg,
		cache: cache,
	}
}

// IndexChunks embeds every chunk's content and upserts it into the index,
// per spec.md §4.8's index_chunks operation.
func (s *Store) IndexChunks(ctx context.Context, documentID string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models_ := make([]mongo.WriteModel, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		vec, err := ai.GenerateEmbedding(ctx, s.cfg, c.Content, ai.KindPassage)
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", c.ID, err)
		}
		c.Embedding = vec

		doc := chunkDoc{
			ChunkID:    c.ID,
			DocumentID: documentID,
			SectionID:  c.SectionID,
			ParentID:   c.ParentID,
			ChunkType:  string(c.ChunkType),
			Position:   c.Position,
			Content:    c.Content,
			Vector:     vec,
		}

		filter := bson.M{"chunk_id": doc.ChunkID}
		update := bson.M{"$set": doc}
		models_ = append(models_, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}

	_, err := s.coll.BulkWrite(ctx, models_, options.BulkWrite().SetOrdered(false))
	return err
}

// Retrieve embeds the query and returns the top-k most similar chunks for
// a document, descending by similarity with position ascending as a
// tiebreak, each carrying parent and sibling content, per spec.md §4.8.
func (s *Store) Retrieve(ctx context.Context, documentID, queryText string, topK int) ([]models.RetrievalResult, error) {
	queryVec, err := ai.GenerateEmbedding(ctx, s.cfg, queryText, ai.KindQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	cursor, err := s.coll.Find(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []chunkDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	byID := make(map[string]chunkDoc, len(docs))
	byParent := make(map[string][]chunkDoc)
	for _, d := range docs {
		byID[d.ChunkID] = d
		if d.ParentID != nil {
			byParent[*d.ParentID] = append(byParent[*d.ParentID], d)
		}
	}

	type scored struct {
		doc        chunkDoc
		similarity float64
	}
	scoredDocs := make([]scored, 0, len(docs))
	for _, d := range docs {
		scoredDocs = append(scoredDocs, scored{doc: d, similarity: dot(queryVec, d.Vector)})
	}

	sort.Slice(scoredDocs, func(i, j int) bool {
		if scoredDocs[i].similarity != scoredDocs[j].similarity {
			return scoredDocs[i].similarity > scoredDocs[j].similarity
		}
		return scoredDocs[i].doc.Position < scoredDocs[j].doc.Position
	})

	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	if topK > len(scoredDocs) {
		topK = len(scoredDocs)
	}

	results := make([]models.RetrievalResult, 0, topK)
	for _, sd := range scoredDocs[:topK] {
		results = append(results, s.toResult(sd.doc, sd.similarity, byID, byParent))
	}
	return results, nil
}

// RetrieveContextBatch resolves parent/sibling context for a set of chunk
// ids with two queries however many ids are given (the target chunks, then
// every chunk of their documents), so there is no per-chunk N+1 lookup. It
// is not a single round trip.
func (s *Store) RetrieveContextBatch(ctx context.Context, chunkIDs []string) (map[string]models.RetrievalResult, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{"chunk_id": bson.M{"$in": chunkIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var targets []chunkDoc
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	docIDs := make(map[string]struct{})
	for _, t := range targets {
		docIDs[t.DocumentID] = struct{}{}
	}
	docIDList := make([]string, 0, len(docIDs))
	for id := range docIDs {
		docIDList = append(docIDList, id)
	}

	allCursor, err := s.coll.Find(ctx, bson.M{"document_id": bson.M{"$in": docIDList}})
	if err != nil {
		return nil, err
	}
	defer allCursor.Close(ctx)

	var all []chunkDoc
	if err := allCursor.All(ctx, &all); err != nil {
		return nil, err
	}

	byID := make(map[string]chunkDoc, len(all))
	byParent := make(map[string][]chunkDoc)
	for _, d := range all {
		byID[d.ChunkID] = d
		if d.ParentID != nil {
			byParent[*d.ParentID] = append(byParent[*d.ParentID], d)
		}
	}

	out := make(map[string]models.RetrievalResult, len(targets))
	for _, t := range targets {
		out[t.ChunkID] = s.toResult(t, 0, byID, byParent)
	}
	return out, nil
}

func (s *Store) toResult(d chunkDoc, similarity float64, byID map[string]chunkDoc, byParent map[string][]chunkDoc) models.RetrievalResult {
	result := models.RetrievalResult{
		ChunkID:    d.ChunkID,
		SectionID:  d.SectionID,
		Content:    d.Content,
		Similarity: similarity,
	}
	if d.ParentID != nil {
		if parent, ok := byID[*d.ParentID]; ok {
			result.ParentContent = parent.Content
		}
	}
	siblings := byParent[parentKey(d)]
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].Position < siblings[j].Position })
	for _, sib := range siblings {
		if sib.ChunkID == d.ChunkID {
			continue
		}
		result.SiblingContents = append(result.SiblingContents, sib.Content)
	}
	return result
}

func parentKey(d chunkDoc) string {
	if d.ParentID == nil {
		return ""
	}
	return *d.ParentID
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
