package ai

import (
	"context"
	"fmt"
	"math"

	"legaldoc-pipeline/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Kind distinguishes query-side from passage-side embedding text, since
// some model families require a distinct prefix token for each — the
// distinction is part of the embedder's contract, not the caller's
// concern, per spec.md §4.7.
type Kind string

const (
	KindQuery   Kind = "query"
	KindPassage Kind = "passage"
)

var kindPrefix = map[Kind]string{
	KindQuery:   "query: ",
	KindPassage: "passage: ",
}

// GenerateEmbedding returns an L2-normalized embedding vector for text,
// adapted from the teacher's internal/ai/embeddings.go (same genai
// text-embedding-004 call) with the query/passage prefix and the
// normalization spec.md §4.7 requires (so cosine similarity = dot product).
func GenerateEmbedding(ctx context.Context, cfg *config.Config, text string, kind Kind) ([]float32, error) {
	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		defer client.Close()

		model := client.EmbeddingModel(cfg.GoogleEmbeddingsModel)
		resp, err := model.EmbedContent(ctx, genai.Text(kindPrefix[kind]+text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}

		return l2Normalize(resp.Embedding.Values), nil

	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
