package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const selectColumns = `SELECT id, client_id, kind, input_text, photo_url, source, result_json, answer, created_at
FROM therapy_history`

// Save inserts or updates a history record
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO therapy_history
  (id, client_id, kind, input_text, photo_url, source, result_json, answer, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  photo_url=EXCLUDED.photo_url,
  source=EXCLUDED.source,
  result_json=EXCLUDED.result_json,
  answer=EXCLUDED.answer;
`
	result, err := encodeResult(rec.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		string(rec.ID),
		stringOrDash(rec.ClientID),
		stringOrDash(string(rec.Kind)),
		rec.Input,
		stringOrDash(rec.PhotoURL),
		stringOrDash(rec.Source),
		result,
		rec.Answer,
		createdAt,
	)
	return err
}

func (r *HistoryRepository) Get(ctx context.Context, client string, id domain.RecordID) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+"\nWHERE client_id=$1 AND id=$2;", client, string(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Paginate returns a page of records ordered by created_at desc
func (r *HistoryRepository) Paginate(ctx context.Context, client string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	rows, err := r.db.QueryContext(ctx, selectColumns+`
WHERE client_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`, client, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.Record, error) {
	var (
		rec             domain.Record
		id, kind, photo string
		result          []byte
		created         time.Time
	)
	if err := s.Scan(&id, &rec.ClientID, &kind, &rec.Input, &photo, &rec.Source, &result, &rec.Answer, &created); err != nil {
		return nil, err
	}
	res, err := decodeResult(string(result))
	if err != nil {
		return nil, fmt.Errorf("decode result of %s: %w", id, err)
	}
	rec.ID = domain.RecordID(id)
	rec.Kind = domain.RequestKind(kind)
	rec.PhotoURL = dashToEmpty(photo)
	rec.Result = res
	rec.CreatedAt = created
	return &rec, nil
}
