package mysql

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

// Save inserts a history record, or updates it if the id exists
func (r *HistoryRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO therapy_history
  (id, client_id, kind, input_text, photo_url, source, result_json, answer, created_at)
VALUES (?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  photo_url=VALUES(photo_url), source=VALUES(source), result_json=VALUES(result_json), answer=VALUES(answer);
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

// Get returns nil, nil when the record does not exist for the client
func (r *HistoryRepository) Get(ctx context.Context, client string, id domain.RecordID) (*domain.Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+"\nWHERE client_id=? AND id=?;", client, string(id))
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
WHERE client_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`, client, pageSize, offset)
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
		result          string
		created         time.Time
	)
	if err := s.Scan(&id, &rec.ClientID, &kind, &rec.Input, &photo, &rec.Source, &result, &rec.Answer, &created); err != nil {
		return nil, err
	}
	res, err := decodeResult(result)
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
