package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"legaldoc-pipeline/internal/logger"
	"legaldoc-pipeline/internal/pipeline"
	"legaldoc-pipeline/internal/verifier"
	"legaldoc-pipeline/models"
)

// contextSeparator splits the combined query+context text anonymized as a
// single unit so PII entity numbering stays consistent across both, per
// spec.md §4.13 step 6 ("generate an answer on anonymized context +
// anonymized query").
const contextSeparator = "\n\x00ANON_CONTEXT_SEPARATOR\x00\n"

// Query runs the retrieval-augmented answer pipeline of spec.md §4.13:
// quota, anonymize, retrieve, generate, deanonymize, verify (C10 and C11
// run concurrently), usage.
func (o *Orchestrator) Query(ctx context.Context, userID, documentID, queryText string, topK int) (models.QueryResponse, error) {
	if !o.kv.CheckQuota(ctx, userID, models.QuotaQueries, 1, o.cfg.QuotaQueriesPerMonth) {
		return models.QueryResponse{}, pipeline.New(pipeline.KindQuotaExceeded, "", "queries quota exceeded", nil)
	}

	requestID := newRequestID()

	if topK <= 0 {
		topK = o.cfg.DefaultTopK
	}

	// Query text is stripped of PII before it ever reaches retrieval's
	// embedding call, per spec.md §4.13 step 4. This redaction pass is not
	// itself persisted — the generation-bound mapping below is.
	redactedQuery := o.anonymizer.Redact(queryText)

	results, err := o.vectors.Retrieve(ctx, documentID, redactedQuery, topK)
	if err != nil {
		return models.QueryResponse{}, pipeline.New(pipeline.KindStoreUnavailable, requestID, "retrieval failed", err)
	}
	rawContext := formatContextBlock(results)

	combined := queryText + contextSeparator + rawContext
	anonCombined, _, err := o.anonymizer.Anonymize(ctx, combined, requestID)
	if err != nil {
		return models.QueryResponse{}, pipeline.New(pipeline.KindStoreUnavailable, requestID, "pii mapping store unavailable", err)
	}
	anonQuery, anonContext := splitAnonymized(anonCombined)

	genResult, err := o.generation.Generate(ctx, requestID, anonQuery, anonContext)
	if err != nil {
		return models.QueryResponse{}, pipeline.New(pipeline.KindGenerationError, requestID, "generation failed", err)
	}

	answer, found, err := o.anonymizer.Deanonymize(ctx, genResult.Answer, requestID)
	if err != nil {
		return models.QueryResponse{}, pipeline.New(pipeline.KindStoreUnavailable, requestID, "pii mapping lookup failed", err)
	}
	if !found {
		logger.Warn("pii mapping missing on deanonymize", "request_id", requestID, "reason", "ttl expiry or misuse")
	}

	// Steps 8 (citation verification) and 9 (independent fact-check) run
	// concurrently; both must finish before the final confidence composes.
	var (
		wg             sync.WaitGroup
		citationResult verifier.Result
		factResult     struct {
			IsSupported bool
			Details     string
		}
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		citationResult = verifier.Verify(answer, results, o.cfg.SentenceThreshold)
	}()
	go func() {
		defer wg.Done()
		if o.factcheck == nil {
			factResult.IsSupported, factResult.Details = true, "verifier unavailable"
			return
		}
		r := o.factcheck.Verify(ctx, answer, rawContext)
		factResult.IsSupported, factResult.Details = r.IsSupported, r.Details
	}()
	wg.Wait()

	isSupported := citationResult.IsSupported && factResult.IsSupported

	o.kv.IncrementUsage(ctx, userID, genResult.TokensUsed, 1, 0)
	_ = o.relational.LogQuery(ctx, requestID, userID, documentID, queryText, citationResult.Confidence, isSupported)

	return models.QueryResponse{
		Answer:            answer,
		Citations:         citationResult.Citations,
		Confidence:        citationResult.Confidence,
		UnsupportedClaims: citationResult.UnsupportedStatements,
		RequestID:         requestID,
		Metadata: map[string]any{
			"is_supported":       isSupported,
			"fact_check_details": factResult.Details,
			"latency_ms":         genResult.LatencyMs,
			"model_version":      genResult.ModelVersion,
		},
	}, nil
}

// formatContextBlock renders retrieved chunks as the PROVIDED SECTIONS
// block, each prefixed with its section_id and similarity percentage, per
// spec.md §4.13 step 5.
func formatContextBlock(results []models.RetrievalResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "[%s] (similarity: %.0f%%)\n%s\n", r.SectionID, r.Similarity*100, r.Content)
		if r.ParentContent != "" {
			fmt.Fprintf(&b, "Parent context: %s\n", r.ParentContent)
		}
		for _, sib := range r.SiblingContents {
			fmt.Fprintf(&b, "Related: %s\n", sib)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func splitAnonymized(combined string) (query, context string) {
	parts := strings.SplitN(combined, contextSeparator, 2)
	if len(parts) != 2 {
		return combined, ""
	}
	return parts[0], parts[1]
}
