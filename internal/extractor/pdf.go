// Package extractor implements C2: pulling raw page/body text out of each
// recognized file kind.
package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"legaldoc-pipeline/models"
)

// ExtractEmbeddedPDFText returns the PDF's text layer, one entry per page,
// confidence fixed at 1.0 per spec.md §3 ("1.0 for embedded text").
// Grounded on the teacher's services/pdf_extractor.go extractWithGoPDF path.
func ExtractEmbeddedPDFText(data []byte) ([]models.ExtractedPage, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages := make([]models.ExtractedPage, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.ExtractedPage{PageNum: i, Confidence: 1.0})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, models.ExtractedPage{PageNum: i, Confidence: 1.0})
			continue
		}
		pages = append(pages, models.ExtractedPage{
			PageNum:    i,
			Text:       text,
			CharCount:  len(text),
			WordCount:  wordCount(text),
			Confidence: 1.0,
		})
	}
	return pages, nil
}

func wordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if !isSpace && !inWord {
			count++
			inWord = true
		} else if isSpace {
			inWord = false
		}
	}
	return count
}

// RenderedPage is a page rasterized to an image for OCR submission.
type RenderedPage struct {
	PageNum    int
	PNGBase64  string
	Width      int
	Height     int
	DPI        int
}

// RenderAllPages rasterizes every page of the PDF to PNG at the given dpi
// (zoom = dpi/72) for submission to C3. The ledongthuc/pdf reader used
// elsewhere in this package has no rasterizer of its own — rendering shells
// out to poppler's pdftoppm, the same external-binary pattern the teacher
// uses for its poppler text-extraction fallback (services/pdf_extractor.go
// invokes `pdftotext -layout` via os/exec).
func RenderAllPages(ctx context.Context, data []byte, dpi int) ([]RenderedPage, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf for render: %w", err)
	}
	total := reader.NumPage()

	tmpDir, err := os.MkdirTemp("", "pdf-render-*")
	if err != nil {
		return nil, fmt.Errorf("create render tmpdir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	srcPath := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(srcPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write source pdf: %w", err)
	}

	outPrefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", fmt.Sprintf("%d", dpi), srcPath, outPrefix)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm render: %w", err)
	}

	rendered := make([]RenderedPage, 0, total)
	for i := 1; i <= total; i++ {
		pagePath := fmt.Sprintf("%s-%d.png", outPrefix, i)
		pngBytes, err := os.ReadFile(pagePath)
		if err != nil {
			// pdftoppm zero-pads page numbers to the digit count of the page total.
			pagePath = fmt.Sprintf("%s-%0*d.png", outPrefix, len(fmt.Sprint(total)), i)
			pngBytes, err = os.ReadFile(pagePath)
			if err != nil {
				rendered = append(rendered, RenderedPage{PageNum: i, DPI: dpi})
				continue
			}
		}
		rendered = append(rendered, RenderedPage{
			PageNum:   i,
			PNGBase64: base64.StdEncoding.EncodeToString(pngBytes),
			DPI:       dpi,
		})
	}
	return rendered, nil
}
