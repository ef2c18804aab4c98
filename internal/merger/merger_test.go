package merger

import (
	"testing"

	"legaldoc-pipeline/internal/ocr"
	"legaldoc-pipeline/models"
)

func TestMerge_PoorQualityStrongOCR(t *testing.T) {
	embedded := []models.ExtractedPage{{PageNum: 1, Text: "low"}}
	ocrResults := []ocr.PageResult{{PageNum: 1, FullText: "clean", AvgConfidence: 0.90}}

	doc := Merge(embedded, ocrResults, models.QualityPoor, Options{OCRConfidenceThreshold: 0.75})

	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	page := doc.Pages[0]
	if page.Source != models.SourceOCR {
		t.Errorf("source = %q, want ocr", page.Source)
	}
	if page.Text != "clean" {
		t.Errorf("text = %q, want clean", page.Text)
	}
	if page.Confidence != 0.90 {
		t.Errorf("confidence = %v, want 0.90", page.Confidence)
	}
	if doc.SourceHistogram[models.SourceOCR] != 1 {
		t.Errorf("histogram[ocr] = %d, want 1", doc.SourceHistogram[models.SourceOCR])
	}
}

func TestMerge_PoorQualityWeakOCR(t *testing.T) {
	embedded := []models.ExtractedPage{{PageNum: 1, Text: "low"}}
	ocrResults := []ocr.PageResult{{PageNum: 1, FullText: "clean", AvgConfidence: 0.40}}

	doc := Merge(embedded, ocrResults, models.QualityPoor, Options{OCRConfidenceThreshold: 0.75})

	page := doc.Pages[0]
	if page.Source != models.SourceFallback {
		t.Errorf("source = %q, want fallback", page.Source)
	}
	if page.Text != "low" {
		t.Errorf("text = %q, want low", page.Text)
	}
	if page.Confidence != 0.60 {
		t.Errorf("confidence = %v, want 0.60", page.Confidence)
	}
}

func TestMerge_ExcellentQualityAlwaysTrustsEmbedded(t *testing.T) {
	embedded := []models.ExtractedPage{{PageNum: 1, Text: "embedded text"}}
	ocrResults := []ocr.PageResult{{PageNum: 1, FullText: "ocr text", AvgConfidence: 0.99}}

	doc := Merge(embedded, ocrResults, models.QualityExcellent, Options{OCRConfidenceThreshold: 0.75})

	page := doc.Pages[0]
	if page.Source != models.SourceEmbedded || page.Text != "embedded text" {
		t.Errorf("got source=%q text=%q, want embedded/embedded text", page.Source, page.Text)
	}
}

func TestMerge_NoneQualityAlwaysUsesOCR(t *testing.T) {
	embedded := []models.ExtractedPage{{PageNum: 1, Text: ""}}
	ocrResults := []ocr.PageResult{{PageNum: 1, FullText: "scanned text", AvgConfidence: 0.55}}

	doc := Merge(embedded, ocrResults, models.QualityNone, Options{OCRConfidenceThreshold: 0.75})

	page := doc.Pages[0]
	if page.Source != models.SourceOCR || page.Text != "scanned text" {
		t.Errorf("got source=%q text=%q, want ocr/scanned text", page.Source, page.Text)
	}
}

func TestMerge_NoOCRResultFallsBackToEmbedded(t *testing.T) {
	embedded := []models.ExtractedPage{{PageNum: 1, Text: "only embedded"}}

	doc := Merge(embedded, nil, models.QualityPoor, Options{OCRConfidenceThreshold: 0.75})

	page := doc.Pages[0]
	if page.Source != models.SourceEmbedded || page.Text != "only embedded" {
		t.Errorf("got source=%q text=%q, want embedded/only embedded", page.Source, page.Text)
	}
}

func TestMerge_SourceHistogramSumsToPageCount(t *testing.T) {
	embedded := []models.ExtractedPage{
		{PageNum: 1, Text: "a"},
		{PageNum: 2, Text: "b"},
		{PageNum: 3, Text: "c"},
	}
	ocrResults := []ocr.PageResult{
		{PageNum: 1, FullText: "a-ocr", AvgConfidence: 0.95},
		{PageNum: 3, Error: "timeout"},
	}

	doc := Merge(embedded, ocrResults, models.QualityGood, Options{OCRConfidenceThreshold: 0.75})

	sum := 0
	for _, count := range doc.SourceHistogram {
		sum += count
	}
	if sum != len(doc.Pages) {
		t.Errorf("histogram sum = %d, want %d", sum, len(doc.Pages))
	}
}
