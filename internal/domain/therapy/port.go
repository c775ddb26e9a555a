package therapy

import "context"

// ModelClient issues one request to one remote model id and returns the raw message content.
type ModelClient interface {
	AnalyzeImage(ctx context.Context, model, image, hint string) (string, error)
	AnalyzeText(ctx context.Context, model, description string) (string, error)
	Answer(ctx context.Context, model, question, context string) (string, error)
}

// HistoryRepository persists analyses and answers per client.
type HistoryRepository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, client string, id RecordID) (*Record, error)
	Paginate(ctx context.Context, client string, page, pageSize int) ([]*Record, error)
}

// PhotoStore archives uploaded photos and returns their URL.
type PhotoStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
