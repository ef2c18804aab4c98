// Package generation implements C9: the cite-first answer generator.
// Adapted from the teacher's internal/ai/gemini_client.go (circuit breaker,
// rate limiter, token accounting, otel span), with the call itself rewired
// to the cite-first prompt template and explicit retry loop spec.md §4.9
// requires in place of the teacher's single-shot call.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"legaldoc-pipeline/internal/config"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// legalAnalysisPrompt is the cite-first system prompt, grounded verbatim on
// original_source's core/gemini_client.py LEGAL_ANALYSIS_PROMPT.
const legalAnalysisPrompt = `You are a precise German legal document analyst.

**CRITICAL RULES:**
1. **ONLY use information from the provided sections below**
2. **ALWAYS cite section numbers (§X, Absatz Y, etc.) BEFORE making ANY claim**
3. **If information is NOT in provided sections, explicitly state: "Not found in provided sections"**
4. **Format every statement as: "According to [§X.Y / Absatz Z]: [your statement]"**
5. **Never paraphrase legal text - quote directly when possible**
6. **Never invent or assume information not explicitly stated**

**RESPONSE FORMAT:**
- Start each point with a citation
- Be concise but complete
- Use bullet points for clarity
- Flag any ambiguities or missing information

---

**PROVIDED SECTIONS:**

%s

---

**USER QUESTION:**

%s

**YOUR ANALYSIS:**
`

// Result is C9's return shape.
type Result struct {
	Answer       string
	LatencyMs    int64
	TokensUsed   int64
	ModelVersion string
}

// Client wraps genai with the resilience stack the teacher applies to every
// outbound Gemini call.
type Client struct {
	apiKey      string
	model       string
	client      *genai.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	limits := rateLimitsForTier(cfg.GeminiTier)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiGeneration",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	})

	return &Client{
		apiKey:      cfg.GeminiAPIKey,
		model:       cfg.GenerationModel,
		client:      client,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(limits.rpm)*0.9/60.0), limits.rpm/10+1),
	}, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Generate submits the cite-first prompt, making up to 3 attempts on
// transport/server errors with exponential backoff (base 2s, cap 10s), per spec.md
// §4.9. request_id is carried through every retry for correlation.
// contextText is the already-formatted PROVIDED SECTIONS block — the
// orchestrator builds it (section_id + similarity%) so the same text can be
// anonymized as a unit with the query before this call, per spec.md §4.13.
func (c *Client) Generate(ctx context.Context, requestID, query, contextText string) (Result, error) {
	tracer := otel.Tracer("generation-client")
	ctx, span := tracer.Start(ctx, "generation.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("generation.request_id", requestID),
		attribute.String("generation.model", c.model),
	)

	prompt := fmt.Sprintf(legalAnalysisPrompt, contextText, query)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	var lastErr error
	backoff := 2 * time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		start := time.Now()
		result, err := c.breaker.Execute(func() (interface{}, error) {
			model := c.client.GenerativeModel(c.model)
			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return nil, err
			}
			return resp, nil
		})

		if err == nil {
			resp := result.(*genai.GenerateContentResponse)
			latency := time.Since(start).Milliseconds()
			span.SetAttributes(attribute.Bool("generation.success", true))
			return Result{
				Answer:       extractText(resp),
				LatencyMs:    latency,
				TokensUsed:   extractTokenUsage(resp),
				ModelVersion: c.model,
			}, nil
		}

		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) {
			break
		}
		if attempt == 3 {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}

	span.SetAttributes(attribute.Bool("generation.error", true))
	return Result{}, fmt.Errorf("generation failed for request %s after retries: %w", requestID, lastErr)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}

func extractTokenUsage(resp *genai.GenerateContentResponse) int64 {
	if resp.UsageMetadata != nil {
		return int64(resp.UsageMetadata.TotalTokenCount)
	}
	return 0
}

type rateLimits struct {
	rpm int
}

func rateLimitsForTier(tier string) rateLimits {
	switch tier {
	case "tier1":
		return rateLimits{rpm: 1000}
	case "tier2":
		return rateLimits{rpm: 2000}
	default:
		return rateLimits{rpm: 10}
	}
}
