package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"legaldoc-pipeline/models"

	_ "github.com/lib/pq"
)

// Relational is the Postgres-backed adapter for documents, chunks, and query
// logs. InitSchema also creates a user_usage table, which no method here
// writes; usage counters live in Redis. Connection setup and the sql.DB wrapper are grounded on
// custodia-labs-sercha-core's internal/adapters/driven/postgres/db.go —
// the teacher carries no relational driver of its own, Mongo-only for its
// own domain, so this adapter's idiom comes from the pack's other
// Postgres-using repo instead.
type Relational struct {
	db *sql.DB
}

func ConnectPostgres(ctx context.Context, dsn string) (*Relational, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Relational{db: db}, nil
}

func (r *Relational) Close() error { return r.db.Close() }

// InitSchema creates the tables this adapter depends on if they don't
// already exist; idempotent, safe to call on every startup like
// custodia-labs-sercha-core's DB.InitSchema.
func (r *Relational) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	doc_hash TEXT NOT NULL,
	file_size_bytes BIGINT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	version INT NOT NULL DEFAULT 1,
	status TEXT NOT NULL,
	kind TEXT NOT NULL,
	language TEXT,
	page_count INT,
	text_layer_quality TEXT,
	average_confidence DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_documents_user_hash ON documents (user_id, doc_hash);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id),
	section_id TEXT NOT NULL,
	parent_id TEXT,
	content TEXT NOT NULL,
	chunk_type TEXT NOT NULL,
	position INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks (document_id);

CREATE TABLE IF NOT EXISTS query_logs (
	request_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	document_id TEXT,
	query_text TEXT NOT NULL,
	confidence DOUBLE PRECISION,
	is_supported BOOLEAN,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_usage (
	user_id TEXT NOT NULL,
	month TEXT NOT NULL,
	tokens_used BIGINT NOT NULL DEFAULT 0,
	queries_count BIGINT NOT NULL DEFAULT 0,
	documents_indexed BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, month)
);
`

// FindActiveByHash implements the ingest dedupe step of spec.md §4.13: a
// document already indexed for this user under ACTIVE status is returned
// as-is rather than reprocessed.
func (r *Relational) FindActiveByHash(ctx context.Context, userID, hash string) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, filename, doc_hash, file_size_bytes, uploaded_at, version, status,
		       kind, COALESCE(language, ''), COALESCE(page_count, 0), COALESCE(text_layer_quality, ''),
		       COALESCE(average_confidence, 0)
		FROM documents WHERE user_id = $1 AND doc_hash = $2 AND status = $3
		ORDER BY version DESC LIMIT 1
	`, userID, hash, models.DocumentActive)

	var d models.Document
	var avgConf float64
	err := row.Scan(&d.ID, &d.UserID, &d.Filename, &d.DocHash, &d.FileSizeBytes, &d.UploadedAt, &d.Version,
		&d.Status, &d.Kind, &d.Language, &d.PageCount, &d.TextLayerQuality, &avgConf)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.ExtractionStats.AverageConfidence = avgConf
	return &d, nil
}

func (r *Relational) SaveDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, filename, doc_hash, file_size_bytes, uploaded_at, version,
		                        status, kind, language, page_count, text_layer_quality, average_confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, version = EXCLUDED.version,
			page_count = EXCLUDED.page_count, text_layer_quality = EXCLUDED.text_layer_quality,
			average_confidence = EXCLUDED.average_confidence
	`, d.ID, d.UserID, d.Filename, d.DocHash, d.FileSizeBytes, d.UploadedAt, d.Version, d.Status,
		d.Kind, d.Language, d.PageCount, d.TextLayerQuality, d.ExtractionStats.AverageConfidence)
	return err
}

// SaveChunks persists chunk metadata in a single transaction, grounded on
// custodia-labs-sercha-core's ChunkStore.SaveBatch pattern (prepared
// statement reused across rows inside one transaction).
func (r *Relational) SaveChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, section_id, parent_id, content, chunk_type, position, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, position = EXCLUDED.position
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.SectionID, c.ParentID, c.Content,
			string(c.ChunkType), c.Position, c.CreatedAt); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *Relational) LogQuery(ctx context.Context, requestID, userID, documentID, queryText string, confidence float64, isSupported bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_logs (request_id, user_id, document_id, query_text, confidence, is_supported, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (request_id) DO NOTHING
	`, requestID, userID, documentID, queryText, confidence, isSupported, time.Now().UTC())
	return err
}
