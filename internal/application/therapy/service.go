package therapy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/therapy-advisor/internal/application"
	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/logging"
	"github.com/bryanwahyu/therapy-advisor/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	OpAnalyzeImage = "analyze_image"
	OpAnalyzeText  = "analyze_text"
	OpAskQuestion  = "ask_question"
)

// ErrHistoryDisabled is returned by the history reads when no repository is configured.
var ErrHistoryDisabled = errors.New("history is disabled")

// Service is the analysis client. Every entry point returns a renderable value; remote failures
// only ever show up as a fallback result.
// Service holds no per-call state and is safe for concurrent use.
type Service struct {
	Client         domain.ModelClient
	AnalysisModels []string
	QuestionModels []string

	// History and Photos are optional.
	History domain.HistoryRepository
	Photos  domain.PhotoStore

	Clock application.Clock
	Log   *slog.Logger
}

func NewService(client domain.ModelClient, analysisModels, questionModels []string, log *slog.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		Client:         client,
		AnalysisModels: analysisModels,
		QuestionModels: questionModels,
		Clock:          application.SystemClock{},
		Log:            log,
	}
}

// AnalyzeImage analyzes a base64 (or data URL) photo with an optional hint.
func (s *Service) AnalyzeImage(ctx context.Context, image, hint string) domain.AnalysisResult {
	res, _ := s.AnalyzeRecorded(ctx, domain.AnalysisRequest{ImageData: image, Hint: hint})
	return res
}

// AnalyzeText analyzes a free-text description.
func (s *Service) AnalyzeText(ctx context.Context, description string) domain.AnalysisResult {
	res, _ := s.AnalyzeRecorded(ctx, domain.AnalysisRequest{Description: description})
	return res
}

// Analyze dispatches on the active request variant.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) domain.AnalysisResult {
	res, _ := s.AnalyzeRecorded(ctx, req)
	return res
}

// AnalyzeRecorded is Analyze that also returns the history record id.
// The id is empty when history is disabled or the input was missing.
func (s *Service) AnalyzeRecorded(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, domain.RecordID) {
	var (
		op     string
		result domain.AnalysisResult
		model  string
		ok     bool
	)

	switch req.Kind() {
	case domain.KindImage:
		op = OpAnalyzeImage
		image := domain.StripDataURL(req.ImageData)
		hint := req.Text()
		result, model, ok = firstUsable(ctx, s.log(), op, s.AnalysisModels, func(ctx context.Context, m string) (domain.AnalysisResult, error) {
			content, err := s.Client.AnalyzeImage(ctx, m, image, hint)
			if err != nil {
				return domain.AnalysisResult{}, err
			}
			return domain.Normalize(content)
		})
	case domain.KindText:
		op = OpAnalyzeText
		result, model, ok = firstUsable(ctx, s.log(), op, s.AnalysisModels, func(ctx context.Context, m string) (domain.AnalysisResult, error) {
			content, err := s.Client.AnalyzeText(ctx, m, req.Description)
			if err != nil {
				return domain.AnalysisResult{}, err
			}
			return domain.Normalize(content)
		})
	default:
		s.log().Info("analysis rejected", "reason", domain.ErrMissingInput)
		return domain.InvalidInputResult(), ""
	}

	source := model
	if !ok {
		result = domain.Fallback(req.Text())
		source = domain.SourceFallback
		metrics.FallbackTotal.WithLabelValues(op).Inc()
		s.log().Info("all models exhausted, using offline analyzer", "op", op, "models", len(s.AnalysisModels))
	}

	rec := &domain.Record{
		Kind:   req.Kind(),
		Input:  req.Text(),
		Source: source,
		Result: &result,
	}
	return result, s.record(ctx, rec, req.ImageData)
}

// AskQuestion answers a follow-up question. qctx is an optional short summary of a prior analysis.
func (s *Service) AskQuestion(ctx context.Context, question, qctx string) string {
	answer, _ := s.AskRecorded(ctx, question, qctx)
	return answer
}

// AskRecorded is AskQuestion that also returns the history record id.
func (s *Service) AskRecorded(ctx context.Context, question, qctx string) (string, domain.RecordID) {
	if strings.TrimSpace(question) == "" {
		return domain.EmptyQuestionAnswer, ""
	}

	answer, model, ok := firstUsable(ctx, s.log(), OpAskQuestion, s.QuestionModels, func(ctx context.Context, m string) (string, error) {
		content, err := s.Client.Answer(ctx, m, question, qctx)
		if err != nil {
			return "", err
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return "", domain.ErrEmptyContent
		}
		return content, nil
	})

	source := model
	if !ok {
		answer = domain.CannedAnswer(question)
		source = domain.SourceFallback
		metrics.FallbackTotal.WithLabelValues(OpAskQuestion).Inc()
		s.log().Info("all models exhausted, using canned answer", "op", OpAskQuestion, "models", len(s.QuestionModels))
	}

	rec := &domain.Record{
		Kind:   domain.KindQuestion,
		Input:  question,
		Source: source,
		Answer: answer,
	}
	return answer, s.record(ctx, rec, "")
}

// ListHistory returns a page of records for the client on ctx, newest first.
func (s *Service) ListHistory(ctx context.Context, page, pageSize int) ([]*domain.Record, error) {
	if s.History == nil {
		return nil, ErrHistoryDisabled
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.History.Paginate(ctx, domain.ClientFrom(ctx), page, pageSize)
}

// GetHistory returns one record of the client on ctx.
func (s *Service) GetHistory(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	if s.History == nil {
		return nil, ErrHistoryDisabled
	}
	rec, err := s.History.Get(ctx, domain.ClientFrom(ctx), id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

// record archives the photo and saves rec. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, rec *domain.Record, image string) domain.RecordID {
	if s.History == nil {
		return ""
	}
	// detached so a client disconnect after the answer still persists it
	ctx = context.WithoutCancel(ctx)

	rec.ID = domain.RecordID(uuid.New().String())
	rec.ClientID = domain.ClientFrom(ctx)
	rec.CreatedAt = s.now()

	if image != "" && s.Photos != nil {
		rec.PhotoURL = s.archivePhoto(ctx, rec, image)
	}

	if err := s.History.Save(ctx, rec); err != nil {
		s.log().Error("save history failed", "id", rec.ID, "kind", rec.Kind, "err", err)
		return ""
	}
	return rec.ID
}

func (s *Service) archivePhoto(ctx context.Context, rec *domain.Record, image string) string {
	data, err := base64.StdEncoding.DecodeString(domain.StripDataURL(image))
	if err != nil {
		s.log().Warn("photo is not valid base64, not archived", "id", rec.ID, "err", err)
		return ""
	}
	key := fmt.Sprintf("photos/%s/%s.jpg", rec.ClientID, rec.ID)
	url, err := s.Photos.Put(ctx, key, data, "image/jpeg")
	if err != nil {
		s.log().Error("photo upload failed", "id", rec.ID, "key", key, "err", err)
		return ""
	}
	return url
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return logging.Discard()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}
