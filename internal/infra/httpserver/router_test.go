package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apptherapy "github.com/bryanwahyu/therapy-advisor/internal/application/therapy"
	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
)

const modelJSON = `{"detectedArea":"Knee Joint","severity":"mild","confidence":82,
"recommendations":{"primaryTherapy":"Cold Therapy","secondaryTherapy":"Light Compression","intensity":3,"durationMinutes":15,"temperatureLabel":"Cool (15°C)","frequencyLabel":"Every 3 hours"},
"analysisNotes":["Slight swelling"],"precautions":["Elevate the leg"]}`

type stubClient struct {
	mu      sync.Mutex
	content string
	err     error
	images  []string
}

func (s *stubClient) AnalyzeImage(_ context.Context, _, image, _ string) (string, error) {
	s.mu.Lock()
	s.images = append(s.images, image)
	s.mu.Unlock()
	return s.content, s.err
}

func (s *stubClient) AnalyzeText(context.Context, string, string) (string, error) {
	return s.content, s.err
}

func (s *stubClient) Answer(context.Context, string, string, string) (string, error) {
	return "Rest for two days.", s.err
}

type memHistory struct {
	mu      sync.Mutex
	records []*domain.Record
}

func (m *memHistory) Save(_ context.Context, r *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memHistory) Get(_ context.Context, client string, id domain.RecordID) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.ClientID == client {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memHistory) Paginate(_ context.Context, client string, _, _ int) ([]*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].ClientID == client {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func newTestRouter(client domain.ModelClient, hist domain.HistoryRepository, keys map[string]string) http.Handler {
	svc := apptherapy.NewService(client, []string{"m1"}, []string{"q1"}, nil)
	svc.History = hist
	return NewRouter(Options{Service: svc, APIKeys: keys})
}

func do(t *testing.T, h http.Handler, method, path, contentType string, body []byte, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) domain.AnalysisResult {
	t.Helper()
	var res domain.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestAnalyzeText(t *testing.T) {
	h := newTestRouter(&stubClient{content: modelJSON}, nil, nil)

	rec := do(t, h, http.MethodPost, "/v1/analyze/text", "application/json", []byte(`{"description":"swollen knee"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Knee Joint", res.DetectedArea)
	assert.Equal(t, 82, res.Confidence)
	assert.Empty(t, res.ErrorReason)
	assert.Empty(t, rec.Header().Get("X-Record-ID"))
}

func TestAnalyzeTextFallbackIsStill200(t *testing.T) {
	h := newTestRouter(&stubClient{err: domain.ErrQuotaExceeded}, nil, nil)

	rec := do(t, h, http.MethodPost, "/v1/analyze/text", "application/json", []byte(`{"description":"left shoulder, severe pain after gym"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Left Shoulder Joint", res.DetectedArea)
	assert.Equal(t, domain.FallbackReason, res.ErrorReason)
}

func TestAnalyzeMissingInputIs200WithFailure(t *testing.T) {
	h := newTestRouter(&stubClient{content: modelJSON}, nil, nil)

	for _, path := range []string{"/v1/analyze/text", "/v1/analyze/image", "/v1/analyze"} {
		rec := do(t, h, http.MethodPost, path, "application/json", []byte(`{}`))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		res := decodeResult(t, rec)
		assert.False(t, res.Success, path)
		assert.Equal(t, domain.ErrMissingInput.Error(), res.ErrorReason, path)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	h := newTestRouter(&stubClient{content: modelJSON}, nil, nil)

	tests := []struct {
		path string
		body string
	}{
		{"/v1/analyze/text", `{"description":`},
		{"/v1/analyze/text", ``},
		{"/v1/analyze/image", `{"image":"%%%"}`},
		{"/v1/questions", `[1,2]`},
		{"/v1/analyze/text", `{"description":"` + strings.Repeat("a", 2001) + `"}`},
	}
	for _, tc := range tests {
		rec := do(t, h, http.MethodPost, tc.path, "application/json", []byte(tc.body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", tc.path, tc.body)
		assert.Contains(t, rec.Body.String(), `"error"`)
	}
}

func TestAnalyzeImageJSONAndMultipart(t *testing.T) {
	client := &stubClient{content: modelJSON}
	h := newTestRouter(client, nil, nil)

	rec := do(t, h, http.MethodPost, "/v1/analyze/image", "application/json",
		[]byte(`{"image":"data:image/jpeg;base64,QUJD","hint":"knee"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Knee Joint", decodeResult(t, rec).DetectedArea)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("hint", "right knee"))
	fw, err := mw.CreateFormFile("photo", "knee.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("raw-jpeg"))
	require.NoError(t, mw.Close())

	rec = do(t, h, http.MethodPost, "/v1/analyze/image", mw.FormDataContentType(), buf.Bytes())
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, client.images, 2)
	assert.Equal(t, "QUJD", client.images[0])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("raw-jpeg")), client.images[1])
}

func TestQuestion(t *testing.T) {
	h := newTestRouter(&stubClient{}, nil, nil)
	rec := do(t, h, http.MethodPost, "/v1/questions", "application/json", []byte(`{"question":"how long should I rest?"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"Rest for two days."}`, rec.Body.String())

	h = newTestRouter(&stubClient{err: errors.New("status 500")}, nil, nil)
	rec = do(t, h, http.MethodPost, "/v1/questions", "application/json", []byte(`{"question":"should I see a doctor?"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.CannedAnswer("should I see a doctor?"), body["answer"])
}

func TestAuthAndHistory(t *testing.T) {
	hist := &memHistory{}
	h := newTestRouter(&stubClient{content: modelJSON}, hist, map[string]string{"clinic-1": "secret"})

	rec := do(t, h, http.MethodPost, "/v1/analyze/text", "application/json", []byte(`{"description":"knee"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/analyze/text", "application/json", []byte(`{"description":"knee"}`), "Authorization", "Bearer secret")
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get("X-Record-ID")
	require.NotEmpty(t, id)
	require.Len(t, hist.records, 1)
	assert.Equal(t, "clinic-1", hist.records[0].ClientID)
	assert.Equal(t, "m1", hist.records[0].Source)

	rec = do(t, h, http.MethodGet, "/v1/history?page=1&page_size=5", "", nil, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, domain.RecordID(id), list[0].ID)

	rec = do(t, h, http.MethodGet, "/v1/history/"+id, "", nil, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/history/6f1c2a7e-2b1d-4c4e-9a53-0c1f2d3e4b5a", "", nil, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/history/not-a-uuid", "", nil, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryDisabledIs501(t *testing.T) {
	h := newTestRouter(&stubClient{content: modelJSON}, nil, nil)
	rec := do(t, h, http.MethodGet, "/v1/history", "", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestProbes(t *testing.T) {
	h := newTestRouter(&stubClient{}, &memHistory{}, nil)
	ready := do(t, h, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"analysisModels":1`)
	assert.Contains(t, ready.Body.String(), `"history":true`)
	live := do(t, h, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "ok", live.Body.String())
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/metrics", "", nil).Code)
}

func TestEncodeFailureIsLoggedNotRewritten(t *testing.T) {
	var logs bytes.Buffer
	r := &Router{log: slog.New(slog.NewTextHandler(&logs, nil))}
	h := r.wrap(func(w http.ResponseWriter, req *http.Request) error {
		r.writeJSON(w, req, http.StatusOK, map[string]any{"bad": make(chan int)})
		return nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"error"`)
	assert.Contains(t, logs.String(), "encode response failed")
	assert.Contains(t, logs.String(), "path=/v1/history")
}
