package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
)

var columns = []string{"id", "client_id", "kind", "input_text", "photo_url", "source", "result_json", "answer", "created_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestSave(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO therapy_history (.+) VALUES \\(\\$1,\\$2,\\$3,\\$4,\\$5,\\$6,\\$7,\\$8,\\$9\\) ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("rec-1", "clinic", "image", "", "https://s3/p.jpg", "vision", sqlmock.AnyArg(), "", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res := domain.Fallback("")
	err := repo.Save(context.Background(), &domain.Record{
		ID:        "rec-1",
		ClientID:  "clinic",
		Kind:      domain.KindImage,
		PhotoURL:  "https://s3/p.jpg",
		Source:    "vision",
		Result:    &res,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSavePropagatesError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	boom := errors.New("connection reset")

	mock.ExpectExec("INSERT INTO therapy_history").WillReturnError(boom)

	err := repo.Save(context.Background(), &domain.Record{ID: "x", ClientID: "c", Kind: domain.KindText, Source: "m"})
	if !errors.Is(err, boom) {
		t.Errorf("Save() error = %v", err)
	}
}

func TestGetAndPaginate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	now := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)

	mock.ExpectQuery("WHERE client_id=\\$1 AND id=\\$2").
		WithArgs("clinic", "rec-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rec-1", "clinic", "text", "calf cramp", "-", "fallback",
				[]byte(`{"success":true,"detectedArea":"Lower Leg - Calf","severity":"moderate","confidence":60}`), "", now))

	rec, err := repo.Get(context.Background(), "clinic", "rec-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Result == nil || rec.Result.DetectedArea != "Lower Leg - Calf" || rec.Input != "calf cramp" {
		t.Errorf("Get() = %+v", rec)
	}

	mock.ExpectQuery("LIMIT \\$2 OFFSET \\$3").
		WithArgs("clinic", 5, 5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rec-2", "clinic", "question", "ice?", "-", "model-q", []byte("{}"), "Use ice.", now))

	recs, err := repo.Paginate(context.Background(), "clinic", 2, 5)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Answer != "Use ice." || recs[0].Result != nil {
		t.Errorf("Paginate() = %+v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrNoRows)

	rec, err := repo.Get(context.Background(), "clinic", "nope")
	if err != nil || rec != nil {
		t.Errorf("Get() = %v, %v", rec, err)
	}
}

func TestGetCorruptResult(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rec-1", "clinic", "text", "x", "-", "m", []byte(`{"success":`), "", time.Now()))

	if _, err := repo.Get(context.Background(), "clinic", "rec-1"); err == nil {
		t.Error("Get() error = nil for corrupt result_json")
	}
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS therapy_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_history_client_created").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
