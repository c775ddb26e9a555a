package mysql

import (
	"context"
	"database/sql"
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

func TestSaveAnalysis(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	res := domain.Fallback("stiff neck")
	encoded, _ := encodeResult(&res)

	mock.ExpectExec("INSERT INTO therapy_history (.+) VALUES \\(\\?,\\?,\\?,\\?,\\?,\\?,\\?,\\?,\\?\\) ON DUPLICATE KEY UPDATE").
		WithArgs("rec-1", "clinic", "text", "stiff neck", "-", domain.SourceFallback, encoded, "", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Record{
		ID:        "rec-1",
		ClientID:  "clinic",
		Kind:      domain.KindText,
		Input:     "stiff neck",
		Source:    domain.SourceFallback,
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

func TestSaveAnswerUsesEmptyObject(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	mock.ExpectExec("INSERT INTO therapy_history").
		WithArgs("rec-2", "-", "question", "how long?", "-", "model-a", "{}", "Two days.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &domain.Record{
		ID:     "rec-2",
		Kind:   domain.KindQuestion,
		Input:  "how long?",
		Source: "model-a",
		Answer: "Two days.",
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM therapy_history WHERE client_id=\\? AND id=\\?").
		WithArgs("clinic", "rec-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rec-1", "clinic", "image", "knee", "https://s3/p.jpg", "vision-a",
				`{"success":true,"detectedArea":"Knee Joint","severity":"mild","confidence":80}`, "", created))

	rec, err := repo.Get(context.Background(), "clinic", "rec-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Kind != domain.KindImage || rec.PhotoURL != "https://s3/p.jpg" || rec.Source != "vision-a" {
		t.Errorf("Get() = %+v", rec)
	}
	if rec.Result == nil || rec.Result.DetectedArea != "Knee Joint" || rec.Result.Severity != domain.SeverityMild {
		t.Errorf("Result = %+v", rec.Result)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}
}

func TestGetMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM therapy_history").
		WithArgs("clinic", "nope").
		WillReturnRows(sqlmock.NewRows(columns))

	rec, err := repo.Get(context.Background(), "clinic", "nope")
	if err != nil || rec != nil {
		t.Errorf("Get() = %v, %v; want nil, nil", rec, err)
	}
}

func TestPaginate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at DESC, id DESC\\s+LIMIT \\? OFFSET \\?").
		WithArgs("clinic", 10, 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("b", "clinic", "question", "q", "-", "fallback", "{}", "answer", now).
			AddRow("a", "clinic", "text", "neck", "-", "m", `{"success":true}`, "", now.Add(-time.Minute)))

	recs, err := repo.Paginate(context.Background(), "clinic", 3, 10)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "b" || recs[0].Result != nil || recs[0].PhotoURL != "" {
		t.Errorf("Paginate() = %+v", recs)
	}
	if recs[1].Result == nil || !recs[1].Result.Success {
		t.Errorf("second record result = %+v", recs[1].Result)
	}
}

func TestPaginateDefaults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM therapy_history").
		WithArgs("clinic", 20, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	if _, err := repo.Paginate(context.Background(), "clinic", 0, 0); err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS therapy_history").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
