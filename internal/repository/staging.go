package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FinTechTonic/creditnexus/constants"
	"github.com/FinTechTonic/creditnexus/internal/entity"
)

// ErrNotFound is returned when no staged extraction matches.
var ErrNotFound = errors.New("staged extraction not found")

const stagingSchema = `
CREATE TABLE IF NOT EXISTS staged_extractions (
    id               TEXT PRIMARY KEY,
    doc_id           TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'pending',
    agreement_data   TEXT NOT NULL,
    original_text    TEXT,
    source_filename  TEXT,
    rejection_reason TEXT,
    reviewed_by      TEXT,
    created_at       TIMESTAMP NOT NULL,
    updated_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_staged_extractions_status ON staged_extractions(status);
CREATE INDEX IF NOT EXISTS idx_staged_extractions_doc ON staged_extractions(doc_id);
`

// StagingRepository stores extractions staged for review and their
// dispositions. Queries are written with ? placeholders and rebound for
// Postgres.
type StagingRepository struct {
	db       *sql.DB
	postgres bool
}

func NewStagingRepository(db *sql.DB, driver string) *StagingRepository {
	return &StagingRepository{db: db, postgres: driver == DriverPgx}
}

// Migrate creates the staging table. The DDL is the shared subset understood
// by both sqlite and Postgres.
func (r *StagingRepository) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(stagingSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("staging: migrate: %w", err)
		}
	}
	return nil
}

func (r *StagingRepository) rebind(query string) string {
	if !r.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Insert stores a freshly staged extraction in pending state.
func (r *StagingRepository) Insert(ctx context.Context, e *entity.StagedExtraction) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = constants.ReviewPending
	}

	_, err := r.db.ExecContext(ctx, r.rebind(`
        INSERT INTO staged_extractions
            (id, doc_id, status, agreement_data, original_text, source_filename, rejection_reason, reviewed_by, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID.String(), e.DocID.String(), string(e.Status), string(e.AgreementData),
		e.OriginalText, e.SourceFilename, e.RejectionReason, e.ReviewedBy,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("staging: insert: %w", err)
	}
	return nil
}

// UpdateDecision records the review disposition for a staged extraction.
func (r *StagingRepository) UpdateDecision(ctx context.Context, docID uuid.UUID, status constants.ReviewStatus, reason, reviewedBy string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`
        UPDATE staged_extractions
        SET status = ?, rejection_reason = ?, reviewed_by = ?, updated_at = ?
        WHERE doc_id = ?`),
		string(status), reason, reviewedBy, time.Now().UTC(), docID.String(),
	)
	if err != nil {
		return fmt.Errorf("staging: update decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("staging: update decision rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("staging: update decision for doc %s: %w", docID, ErrNotFound)
	}
	return nil
}

// GetByDocID fetches the staged extraction for one document.
func (r *StagingRepository) GetByDocID(ctx context.Context, docID uuid.UUID) (*entity.StagedExtraction, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(`
        SELECT id, doc_id, status, agreement_data, original_text, source_filename, rejection_reason, reviewed_by, created_at, updated_at
        FROM staged_extractions
        WHERE doc_id = ?`),
		docID.String(),
	)
	e, err := scanStaged(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staging: doc %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("staging: get by doc: %w", err)
	}
	return e, nil
}

// List returns staged extractions, newest first, optionally filtered by status.
func (r *StagingRepository) List(ctx context.Context, status *constants.ReviewStatus) ([]*entity.StagedExtraction, error) {
	query := `
        SELECT id, doc_id, status, agreement_data, original_text, source_filename, rejection_reason, reviewed_by, created_at, updated_at
        FROM staged_extractions`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("staging: list: %w", err)
	}
	defer rows.Close()

	var out []*entity.StagedExtraction
	for rows.Next() {
		e, err := scanStaged(rows)
		if err != nil {
			return nil, fmt.Errorf("staging: list scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staging: list rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaged(row rowScanner) (*entity.StagedExtraction, error) {
	var (
		e                entity.StagedExtraction
		id, docID        string
		status, data     string
		text, filename   sql.NullString
		reason, reviewer sql.NullString
	)
	if err := row.Scan(&id, &docID, &status, &data, &text, &filename, &reason, &reviewer, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	parsedDoc, err := uuid.Parse(docID)
	if err != nil {
		return nil, fmt.Errorf("parse doc_id: %w", err)
	}
	e.ID = parsedID
	e.DocID = parsedDoc
	e.Status = constants.ReviewStatus(status)
	e.AgreementData = []byte(data)
	e.OriginalText = text.String
	e.SourceFilename = filename.String
	e.RejectionReason = reason.String
	e.ReviewedBy = reviewer.String
	return &e, nil
}
