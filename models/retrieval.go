package models

// RetrievalResult is a single chunk returned by the vector index, with
// its immediate hierarchical context attached so C9/C10 don't need a
// second round trip.
type RetrievalResult struct {
	ChunkID         string   `json:"chunk_id"`
	SectionID       string   `json:"section_id"`
	Content         string   `json:"content"`
	Similarity      float64  `json:"similarity"`
	ParentContent   string   `json:"parent_content,omitempty"`
	SiblingContents []string `json:"sibling_contents,omitempty"`
}

// Citation is a resolved (or hallucinated) section reference found in a
// generated answer.
type Citation struct {
	SectionID string  `json:"section_id"`
	Content   string  `json:"content"`
	ChunkID   string  `json:"chunk_id,omitempty"`
	Confidence float64 `json:"confidence"`
}

// UsageBucket is a (user, month) rolling counter set.
type UsageBucket struct {
	UserID          string `json:"user_id"`
	Month           string `json:"month"` // "YYYY-MM"
	TokensUsed      int64  `json:"tokens_used"`
	QueriesCount    int64  `json:"queries_count"`
	DocumentsIndexed int64 `json:"documents_indexed"`
}

// QuotaKind distinguishes which bucket field a quota check applies to.
type QuotaKind string

const (
	QuotaTokens    QuotaKind = "tokens"
	QuotaQueries   QuotaKind = "queries"
	QuotaDocuments QuotaKind = "documents"
)

// QueryResponse is the assembled Query() result.
type QueryResponse struct {
	Answer             string     `json:"answer"`
	Citations          []Citation `json:"citations"`
	Confidence         float64    `json:"confidence"`
	UnsupportedClaims  []string   `json:"unsupported_claims"`
	RequestID          string     `json:"request_id"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// IngestResponse is the assembled Ingest() result.
type IngestResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}
