package models

import "time"

// DocumentStatus is the lifecycle state of an ingested document.
type DocumentStatus string

const (
	DocumentActive   DocumentStatus = "active"
	DocumentArchived DocumentStatus = "archived"
	DocumentDeleted  DocumentStatus = "deleted"
)

// FileKind is the classifier's recognized file kind.
type FileKind string

const (
	KindPDF       FileKind = "pdf"
	KindDOCX      FileKind = "word-processor"
	KindODT       FileKind = "odt"
	KindEmail     FileKind = "email"
	KindZip       FileKind = "zip"
	KindLegacyDOC FileKind = "legacy-doc"
	KindUnknown   FileKind = "unknown"
)

// TextLayerQuality is the PDF coverage-derived quality bucket driving the
// page merger's per-page source decision.
type TextLayerQuality string

const (
	QualityExcellent TextLayerQuality = "excellent"
	QualityGood      TextLayerQuality = "good"
	QualityPoor      TextLayerQuality = "poor"
	QualityNone      TextLayerQuality = "none"
	QualityUnknown   TextLayerQuality = "unknown"
)

// ClassificationResult is C1's output.
type ClassificationResult struct {
	Kind   FileKind
	Hash   string // sha256 hex, lowercase
	SizeBytes int64

	// PDF-only fields.
	TotalPages       int
	PagesWithText    int
	TextCoveragePct  float64
	TextLayerQuality TextLayerQuality
	HasImages        bool
	NeedsOCR         bool
}

// Document is the persisted record of an ingested file.
type Document struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Filename    string         `json:"filename"`
	DocHash     string         `json:"doc_hash"`
	FileSizeBytes int64        `json:"file_size_bytes"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	Version     int            `json:"version"`
	Status      DocumentStatus `json:"status"`

	Kind             FileKind         `json:"kind"`
	Language         string           `json:"language,omitempty"`
	PageCount        int              `json:"page_count,omitempty"`
	TextLayerQuality TextLayerQuality `json:"text_layer_quality,omitempty"`

	ExtractionStats ExtractionStats `json:"extraction_stats"`
}

// ExtractionStats records how a document's pages were sourced, for audit.
type ExtractionStats struct {
	SourceHistogram map[MergeSource]int `json:"source_histogram"`
	AverageConfidence float64           `json:"average_confidence"`
}

// ChunkType classifies a chunk's structural role.
type ChunkType string

const (
	ChunkSection    ChunkType = "section"
	ChunkSubsection ChunkType = "subsection"
	ChunkParagraph  ChunkType = "paragraph"
	ChunkClause     ChunkType = "clause"
)

// Chunk is a section of a document, possibly nested under a parent chunk.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	SectionID  string    `json:"section_id"`
	ParentID   *string   `json:"parent_id,omitempty"`
	Content    string    `json:"content"`
	ChunkType  ChunkType `json:"chunk_type"`
	Position   int       `json:"position"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MergeSource is the per-page text provenance tag.
type MergeSource string

const (
	SourceEmbedded MergeSource = "embedded"
	SourceOCR      MergeSource = "ocr"
	SourceHybrid   MergeSource = "hybrid" // reserved, never emitted — spec.md §9
	SourceFallback MergeSource = "fallback"
)

// ExtractedPage is a single page's raw extracted text (embedded or OCR).
type ExtractedPage struct {
	PageNum    int
	Text       string
	CharCount  int
	WordCount  int
	Confidence float64 // 1.0 for embedded text, OCR-reported otherwise
}

// MergedPage is C4's decision for a single page.
type MergedPage struct {
	PageNum    int         `json:"page_num"`
	Text       string      `json:"text"`
	Source     MergeSource `json:"source"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason"`
}

// MergedDocument is the full-text reconstruction of a document plus audit data.
type MergedDocument struct {
	FullText          string              `json:"full_text"`
	Pages             []MergedPage        `json:"pages"`
	SourceHistogram   map[MergeSource]int `json:"source_histogram"`
	AverageConfidence float64             `json:"average_confidence"`
}
