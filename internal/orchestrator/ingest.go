package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"legaldoc-pipeline/internal/classifier"
	"legaldoc-pipeline/internal/extractor"
	"legaldoc-pipeline/internal/merger"
	"legaldoc-pipeline/internal/ocr"
	"legaldoc-pipeline/internal/parser"
	"legaldoc-pipeline/internal/pipeline"
	"legaldoc-pipeline/models"

	"github.com/google/uuid"
)

// Ingest runs the full ingest pipeline of spec.md §4.13: quota, classify,
// dedupe, extract, parse, persist, embed+index, usage.
func (o *Orchestrator) Ingest(ctx context.Context, userID, filename string, data []byte) (models.IngestResponse, error) {
	if !o.kv.CheckQuota(ctx, userID, models.QuotaDocuments, 1, o.cfg.QuotaDocumentsPerMonth) {
		return models.IngestResponse{}, pipeline.New(pipeline.KindQuotaExceeded, "", "documents_indexed quota exceeded", nil)
	}

	classification, err := classifier.Classify(filename, data)
	if err != nil {
		if pe, ok := err.(*pipeline.Error); ok && pe.Kind == pipeline.KindClassificationError {
			return models.IngestResponse{}, pipeline.New(pipeline.KindUnsupportedFormat, "", pe.Message, pe.Cause)
		}
		return models.IngestResponse{}, err
	}

	if existing, err := o.relational.FindActiveByHash(ctx, userID, classification.Hash); err != nil {
		return models.IngestResponse{}, pipeline.New(pipeline.KindStoreUnavailable, "", "dedupe lookup failed", err)
	} else if existing != nil {
		return models.IngestResponse{DocumentID: existing.ID, ChunksCreated: 0}, nil
	}

	merged, err := o.extract(ctx, classification, data)
	if err != nil {
		return models.IngestResponse{}, err
	}

	documentID := uuid.NewString()
	chunks := parser.Parse(documentID, merged.FullText, parser.Options{
		MaxChunkSize: o.cfg.MaxChunkSize,
		ChunkOverlap: o.cfg.ChunkOverlap,
	})
	now := time.Now().UTC()
	for i := range chunks {
		chunks[i].CreatedAt = now
	}

	doc := models.Document{
		ID:               documentID,
		UserID:           userID,
		Filename:         filename,
		DocHash:          classification.Hash,
		FileSizeBytes:    classification.SizeBytes,
		UploadedAt:       now,
		Version:          1,
		Status:           models.DocumentActive,
		Kind:             classification.Kind,
		PageCount:        len(merged.Pages),
		TextLayerQuality: classification.TextLayerQuality,
		ExtractionStats: models.ExtractionStats{
			SourceHistogram:   merged.SourceHistogram,
			AverageConfidence: merged.AverageConfidence,
		},
	}

	if err := o.relational.SaveDocument(ctx, doc); err != nil {
		return models.IngestResponse{}, pipeline.New(pipeline.KindStoreUnavailable, "", "failed to persist document", err)
	}
	if err := o.relational.SaveChunks(ctx, chunks); err != nil {
		return models.IngestResponse{}, pipeline.New(pipeline.KindStoreUnavailable, "", "failed to persist chunks", err)
	}

	if err := o.vectors.IndexChunks(ctx, documentID, chunks); err != nil {
		return models.IngestResponse{}, pipeline.New(pipeline.KindStoreUnavailable, "", "failed to index chunks", err)
	}

	o.kv.IncrementUsage(ctx, userID, 0, 0, 1)

	return models.IngestResponse{DocumentID: documentID, ChunksCreated: len(chunks)}, nil
}

// extract implements step 4 of spec.md §4.13: per-kind text extraction,
// with the PDF embedded+OCR+merge path and a single-page path for every
// other recognized kind.
func (o *Orchestrator) extract(ctx context.Context, classification models.ClassificationResult, data []byte) (models.MergedDocument, error) {
	switch classification.Kind {
	case models.KindPDF:
		return o.extractPDF(ctx, classification, data)
	case models.KindDOCX:
		text, err := extractor.ExtractDOCX(data)
		if err != nil {
			return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to extract word-processor document", err)
		}
		return singlePageDocument(text), nil
	case models.KindODT:
		text, err := extractor.ExtractODT(data)
		if err != nil {
			return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to extract odt document", err)
		}
		return singlePageDocument(text), nil
	case models.KindEmail:
		email, err := extractor.ExtractEmail(data)
		if err != nil {
			return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to extract email", err)
		}
		return singlePageDocument(email.BodyText), nil
	case models.KindZip:
		return o.extractArchive(ctx, data)
	case models.KindLegacyDOC:
		text, err := extractor.ExtractLegacyDOC(data)
		if err != nil {
			return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to extract legacy word-processor document", err)
		}
		return singlePageDocument(text), nil
	default:
		return models.MergedDocument{}, pipeline.New(pipeline.KindUnsupportedFormat, "", fmt.Sprintf("no extractor for kind %q", classification.Kind), nil)
	}
}

// extractArchive implements the C19 archive-walk of spec.md §4.2 / SPEC_FULL
// §4.2A: every member of a zip is re-classified through C1 and routed back
// through extract(), then the per-member documents are concatenated into one
// MergedDocument. Members that re-classify as another zip are skipped —
// extractor.WalkArchive does not expand nested archives, and neither do we.
// Members C1 can't recognize (KindUnknown) are skipped rather than failing
// the whole ingest, since an archive commonly carries incidental files
// (thumbnails, manifests) alongside the documents that matter.
func (o *Orchestrator) extractArchive(ctx context.Context, data []byte) (models.MergedDocument, error) {
	entries, err := extractor.WalkArchive(data)
	if err != nil {
		return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to open archive", err)
	}

	merged := models.MergedDocument{SourceHistogram: map[models.MergeSource]int{}}
	var textParts []string
	var confidenceSum float64
	pageNum := 0

	for _, entry := range entries {
		classification, err := classifier.Classify(entry.Name, entry.Data)
		if err != nil || classification.Kind == models.KindUnknown || classification.Kind == models.KindZip {
			continue
		}

		entryDoc, err := o.extract(ctx, classification, entry.Data)
		if err != nil {
			continue
		}

		for _, p := range entryDoc.Pages {
			pageNum++
			p.PageNum = pageNum
			merged.Pages = append(merged.Pages, p)
			merged.SourceHistogram[p.Source]++
			confidenceSum += p.Confidence
		}
		if entryDoc.FullText != "" {
			textParts = append(textParts, fmt.Sprintf("# %s\n\n%s", entry.Name, entryDoc.FullText))
		}
	}

	if len(merged.Pages) == 0 {
		return models.MergedDocument{}, pipeline.New(pipeline.KindDegradedExtraction, "", "no recognizable content in archive", nil)
	}

	merged.FullText = strings.Join(textParts, "\n\n")
	merged.AverageConfidence = confidenceSum / float64(len(merged.Pages))
	return merged, nil
}

func singlePageDocument(text string) models.MergedDocument {
	return models.MergedDocument{
		FullText:          text,
		Pages:             []models.MergedPage{{PageNum: 1, Text: text, Source: models.SourceEmbedded, Confidence: 1.0, Reason: "non-pdf single-page extraction"}},
		SourceHistogram:   map[models.MergeSource]int{models.SourceEmbedded: 1},
		AverageConfidence: 1.0,
	}
}

// extractPDF runs embedded extraction, and — when the text layer needs it —
// renders every page and submits it to the OCR worker, merging the two
// per spec.md §4.4/§4.13. OCR unavailability degrades rather than fails the
// ingest, per spec.md §7 (DegradedExtraction), unless every page ends up
// empty.
func (o *Orchestrator) extractPDF(ctx context.Context, classification models.ClassificationResult, data []byte) (models.MergedDocument, error) {
	embeddedPages, err := extractor.ExtractEmbeddedPDFText(data)
	if err != nil {
		return models.MergedDocument{}, pipeline.New(pipeline.KindCorruptInput, "", "failed to extract pdf text layer", err)
	}

	var ocrResults []ocr.PageResult
	if classification.NeedsOCR {
		rendered, renderErr := extractor.RenderAllPages(ctx, data, renderDPI)
		if renderErr == nil {
			images := make([]string, 0, len(rendered))
			for _, r := range rendered {
				images = append(images, r.PNGBase64)
			}
			if results, submitErr := o.ocrClient.Submit(ctx, images, o.cfg.EnableHandwritingOCR); submitErr == nil {
				ocrResults = results
			}
			// Render or submit failure degrades to embedded-only text, per spec.md §7.
		}
	}

	merged := merger.Merge(embeddedPages, ocrResults, classification.TextLayerQuality, merger.Options{
		OCRConfidenceThreshold: o.cfg.OCRConfidenceThreshold,
	})

	if merged.FullText == "" {
		return models.MergedDocument{}, pipeline.New(pipeline.KindDegradedExtraction, "", "no text recovered from pdf after embedded+ocr extraction", nil)
	}

	return merged, nil
}
