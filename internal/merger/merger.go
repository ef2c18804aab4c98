// Package merger implements C4: deciding, per page, whether to trust the
// embedded text, the OCR result, or neither — ported line-for-line from
// the Python original's text_merger.py _merge_page decision table.
package merger

import (
	"strings"

	"legaldoc-pipeline/internal/ocr"
	"legaldoc-pipeline/models"
)

// Options configures the merge thresholds, mirroring config keys in
// spec.md §6.
type Options struct {
	OCRConfidenceThreshold float64 // default 0.75
}

// Merge decides a source for every page of a document and assembles the
// full reconstructed text, per spec.md §4.4.
func Merge(embeddedPages []models.ExtractedPage, ocrResults []ocr.PageResult, quality models.TextLayerQuality, opts Options) models.MergedDocument {
	ocrByPage := make(map[int]ocr.PageResult, len(ocrResults))
	for _, r := range ocrResults {
		if r.Error != "" {
			continue
		}
		ocrByPage[r.PageNum] = r
	}

	histogram := make(map[models.MergeSource]int)
	pages := make([]models.MergedPage, 0, len(embeddedPages))
	var confidenceSum float64

	for _, ep := range embeddedPages {
		ocrResult, hasOCR := ocrByPage[ep.PageNum]
		page := mergePage(ep, ocrResult, hasOCR, quality, opts)
		pages = append(pages, page)
		histogram[page.Source]++
		confidenceSum += page.Confidence
	}

	avgConfidence := 0.0
	if len(pages) > 0 {
		avgConfidence = confidenceSum / float64(len(pages))
	}

	var textParts []string
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		textParts = append(textParts, p.Text)
	}

	return models.MergedDocument{
		FullText:          strings.Join(textParts, "\n\n"),
		Pages:             pages,
		SourceHistogram:   histogram,
		AverageConfidence: avgConfidence,
	}
}

// mergePage applies the exact decision table of spec.md §4.4 / the Python
// original's _merge_page, evaluated in order.
func mergePage(ep models.ExtractedPage, ocrResult ocr.PageResult, hasOCR bool, quality models.TextLayerQuality, opts Options) models.MergedPage {
	if !hasOCR {
		return models.MergedPage{PageNum: ep.PageNum, Text: ep.Text, Source: models.SourceEmbedded, Confidence: 0.90, Reason: "no ocr result available"}
	}

	switch quality {
	case models.QualityExcellent:
		return models.MergedPage{PageNum: ep.PageNum, Text: ep.Text, Source: models.SourceEmbedded, Confidence: 0.95, Reason: "trust embedded"}
	case models.QualityGood:
		return models.MergedPage{PageNum: ep.PageNum, Text: ep.Text, Source: models.SourceEmbedded, Confidence: 0.85, Reason: "trust embedded"}
	case models.QualityNone:
		return models.MergedPage{PageNum: ep.PageNum, Text: ocrResult.FullText, Source: models.SourceOCR, Confidence: ocrResult.AvgConfidence, Reason: "no embedded text"}
	case models.QualityPoor:
		if ocrResult.AvgConfidence >= opts.OCRConfidenceThreshold {
			return models.MergedPage{PageNum: ep.PageNum, Text: ocrResult.FullText, Source: models.SourceOCR, Confidence: ocrResult.AvgConfidence, Reason: "ocr conf > threshold"}
		}
		return models.MergedPage{PageNum: ep.PageNum, Text: ep.Text, Source: models.SourceFallback, Confidence: 0.60, Reason: "low ocr conf, keep embedded"}
	default:
		return models.MergedPage{PageNum: ep.PageNum, Text: ep.Text, Source: models.SourceEmbedded, Confidence: 0.80, Reason: "unknown quality '" + string(quality) + "'"}
	}
}
