package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	apptherapy "github.com/bryanwahyu/therapy-advisor/internal/application/therapy"
	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/logging"
	"github.com/bryanwahyu/therapy-advisor/internal/middleware"
)

// maxBodyBytes covers a base64 photo at MaxImageBytes plus the JSON envelope.
const maxBodyBytes = middleware.MaxImageBytes/3*4 + 64<<10

// Options wires the router. Service is required.
type Options struct {
	Service        *apptherapy.Service
	Log            *slog.Logger
	APIKeys        map[string]string
	Limiter        *middleware.RateLimiter
	CORSOrigins    []string
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc *apptherapy.Service
	log *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	r := &Router{svc: opts.Service, log: log}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders: []string{"X-Record-ID"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.Metrics)

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	svc := opts.Service
	mux.Get("/ready", middleware.ReadinessHandler(middleware.Readiness{
		AnalysisModels: len(svc.AnalysisModels),
		QuestionModels: len(svc.QuestionModels),
		History:        svc.History != nil,
		PhotoArchive:   svc.Photos != nil,
	}))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		if len(opts.APIKeys) > 0 {
			rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		}
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/analyze/image", r.wrap(r.handleAnalyzeImage))
		rt.Post("/analyze/text", r.wrap(r.handleAnalyzeText))
		rt.Post("/questions", r.wrap(r.handleQuestion))
		rt.Get("/history", r.wrap(r.handleHistoryList))
		rt.Get("/history/{id}", r.wrap(r.handleHistoryGet))
	})

	return mux
}

// badRequest marks errors caused by a malformed request.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func invalid(format string, args ...any) error {
	return badRequest{fmt.Errorf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &br):
			writeError(w, http.StatusBadRequest, br.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apptherapy.ErrHistoryDisabled):
			writeError(w, http.StatusNotImplemented, err.Error())
		default:
			r.log.Error("request failed", "path", req.URL.Path, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}
}

// POST /v1/analyze
// Body: {"image": "<base64>", "hint": "...", "description": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domain.AnalysisRequest
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	if err := validateRequest(body); err != nil {
		return err
	}
	res, id := r.svc.AnalyzeRecorded(req.Context(), body)
	r.writeResult(w, req, res, id)
	return nil
}

// POST /v1/analyze/image
// JSON {"image": "<base64 or data URL>", "hint": "..."} or multipart with "photo" and "hint".
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Image string `json:"image"`
		Hint  string `json:"hint"`
	}

	mt, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		req.Body = http.MaxBytesReader(w, req.Body, middleware.MaxImageBytes+64<<10)
		if err := req.ParseMultipartForm(middleware.MaxImageBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return err
			}
			return invalid("invalid multipart form: %v", err)
		}
		body.Hint = req.FormValue("hint")
		if f, _, err := req.FormFile("photo"); err == nil {
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, middleware.MaxImageBytes+1))
			if err != nil {
				return invalid("read photo: %v", err)
			}
			if len(data) > middleware.MaxImageBytes {
				return invalid("photo exceeds %d bytes", middleware.MaxImageBytes)
			}
			body.Image = domain.ImageFromBytes(data)
		}
	} else if err := decodeJSON(w, req, &body); err != nil {
		return err
	}

	areq := domain.AnalysisRequest{ImageData: body.Image, Hint: middleware.SanitizeString(body.Hint)}
	if err := validateRequest(areq); err != nil {
		return err
	}
	res, id := r.svc.AnalyzeRecorded(req.Context(), areq)
	r.writeResult(w, req, res, id)
	return nil
}

// POST /v1/analyze/text
// Body: {"description": "..."}
func (r *Router) handleAnalyzeText(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	areq := domain.AnalysisRequest{Description: middleware.SanitizeString(body.Description)}
	if err := validateRequest(areq); err != nil {
		return err
	}
	res, id := r.svc.AnalyzeRecorded(req.Context(), areq)
	r.writeResult(w, req, res, id)
	return nil
}

// POST /v1/questions
// Body: {"question": "...", "context": "area/severity/therapy"}
func (r *Router) handleQuestion(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return err
	}
	question := middleware.SanitizeString(body.Question)
	qctx := middleware.SanitizeString(body.Context)
	if err := middleware.ValidateText("question", question); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateText("context", qctx); err != nil {
		return badRequest{err}
	}

	answer, id := r.svc.AskRecorded(req.Context(), question, qctx)
	if id != "" {
		w.Header().Set("X-Record-ID", string(id))
	}
	r.writeJSON(w, req, http.StatusOK, map[string]string{"answer": answer})
	return nil
}

// GET /v1/history?page=&page_size=
func (r *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.svc.ListHistory(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}
	r.writeJSON(w, req, http.StatusOK, list)
	return nil
}

// GET /v1/history/{id}
func (r *Router) handleHistoryGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateRecordID(id); err != nil {
		return badRequest{err}
	}
	rec, err := r.svc.GetHistory(req.Context(), domain.RecordID(id))
	if err != nil {
		return err
	}
	r.writeJSON(w, req, http.StatusOK, rec)
	return nil
}

func validateRequest(req domain.AnalysisRequest) error {
	if err := middleware.ValidateImage(req.ImageData); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateText("hint", req.Hint); err != nil {
		return badRequest{err}
	}
	if err := middleware.ValidateText("description", req.Description); err != nil {
		return badRequest{err}
	}
	return nil
}

func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return invalid("request body is empty")
		}
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}

// writeResult always answers 200: degraded and invalid-input results are normal values.
func (r *Router) writeResult(w http.ResponseWriter, req *http.Request, res domain.AnalysisResult, id domain.RecordID) {
	if id != "" {
		w.Header().Set("X-Record-ID", string(id))
	}
	r.writeJSON(w, req, http.StatusOK, res)
}

// writeJSON logs encode failures; the status line is already sent by then.
func (r *Router) writeJSON(w http.ResponseWriter, req *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.log.Error("encode response failed", "path", req.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": strings.TrimSpace(msg)})
}
