// Package orchestrator implements C13: the two top-level pipeline
// operations, wiring every other component together. Grounded on the
// teacher's direct-goroutine fan-out style (no errgroup anywhere in the
// teacher's own code, so the C10/C11 concurrency here uses a plain
// sync.WaitGroup to match texture) seen in its synchronous
// services/pdf_service.go processing branch.
package orchestrator

import (
	"legaldoc-pipeline/internal/anonymizer"
	"legaldoc-pipeline/internal/config"
	"legaldoc-pipeline/internal/factcheck"
	"legaldoc-pipeline/internal/generation"
	"legaldoc-pipeline/internal/ocr"
	"legaldoc-pipeline/internal/store"
	"legaldoc-pipeline/internal/vectorstore"

	"github.com/google/uuid"
)

const renderDPI = 200

// Orchestrator wires C1-C12 into Ingest and Query, per spec.md §4.13.
type Orchestrator struct {
	cfg        *config.Config
	relational *store.Relational
	kv         *store.KV
	vectors    *vectorstore.Store
	anonymizer *anonymizer.Anonymizer
	ocrClient  *ocr.Client
	generation *generation.Client
	factcheck  *factcheck.Client
}

func New(
	cfg *config.Config,
	relational *store.Relational,
	kv *store.KV,
	vectors *vectorstore.Store,
	anon *anonymizer.Anonymizer,
	ocrClient *ocr.Client,
	genClient *generation.Client,
	factcheckClient *factcheck.Client,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		relational: relational,
		kv:         kv,
		vectors:    vectors,
		anonymizer: anon,
		ocrClient:  ocrClient,
		generation: genClient,
		factcheck:  factcheckClient,
	}
}

func newRequestID() string {
	return uuid.NewString()
}
