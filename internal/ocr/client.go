// Package ocr implements C3: the remote GPU OCR worker client.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"legaldoc-pipeline/internal/pipeline"
)

// Region is a single OCR-detected text region within a page.
type Region struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PageResult is one page's OCR output, per spec.md §4.3/§6.
type PageResult struct {
	PageNum             int      `json:"page_num"`
	FullText            string   `json:"full_text"`
	AvgConfidence       float64  `json:"avg_confidence"`
	TypedTextPct        float64  `json:"typed_text_pct"`
	HandwrittenTextPct  float64  `json:"handwritten_text_pct"`
	ProcessingTimeMs    int64    `json:"processing_time_ms"`
	Regions             []Region `json:"regions"`
	Error               string   `json:"error,omitempty"`
}

type submitRequest struct {
	Images           []string `json:"images"`
	EnableHandwriting bool    `json:"enable_handwriting"`
}

// Client is a request-driven HTTP client to the OCR worker, adapted from
// the teacher's services/ocr_client.go (health probe, context deadline,
// typed response struct).
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func NewClient(baseURL string, timeoutSeconds int) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// HealthCheck mirrors the teacher's GET /health probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return pipeline.New(pipeline.KindOCRUnavailable, "", "ocr worker unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pipeline.New(pipeline.KindOCRUnavailable, "", fmt.Sprintf("ocr worker health check returned %d", resp.StatusCode), nil)
	}
	return nil
}

// Submit sends a batch of base64-png page images to the OCR worker and
// returns per-page results. Pages that individually error are kept in the
// result slice with their Error field set (OCRPartialFailure, per §7);
// the merger treats such a page as having no OCR result and keeps its
// embedded text; it does not blank the page.
func (c *Client) Submit(ctx context.Context, images []string, enableHandwriting bool) ([]PageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(submitRequest{Images: images, EnableHandwriting: enableHandwriting})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, pipeline.New(pipeline.KindOCRTimeout, "", "ocr worker timed out", err)
		}
		return nil, pipeline.New(pipeline.KindOCRUnavailable, "", "ocr worker request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.New(pipeline.KindOCRUnavailable, "", fmt.Sprintf("ocr worker returned %d", resp.StatusCode), nil)
	}

	var results []PageResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	return results, nil
}

// AverageConfidence computes the mean avg_confidence across all
// successfully-OCR'd pages (errored pages excluded).
func AverageConfidence(results []PageResult) float64 {
	var sum float64
	var n int
	for _, r := range results {
		if r.Error != "" {
			continue
		}
		sum += r.AvgConfidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
