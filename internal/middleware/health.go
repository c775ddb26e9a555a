package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type HealthChecker interface {
	Check(ctx context.Context) error
}

// Advisory checkers report problems the service can work around.
// A failing advisory check marks /health degraded instead of unhealthy.
type Advisory interface {
	Advisory() bool
}

// CheckFunc adapts a function to HealthChecker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// DatabaseHealthChecker pings the history database.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// ModelsChecker reports whether remote analysis is possible at all.
// Without a key or model ids every request is answered offline.
type ModelsChecker struct {
	APIKeyConfigured bool
	AnalysisModels   int
	QuestionModels   int
}

func (m ModelsChecker) Check(context.Context) error {
	var errs []error
	if !m.APIKeyConfigured {
		errs = append(errs, errors.New("no API key configured, answering offline"))
	}
	if m.AnalysisModels == 0 {
		errs = append(errs, errors.New("no analysis models configured"))
	}
	if m.QuestionModels == 0 {
		errs = append(errs, errors.New("no question models configured"))
	}
	return errors.Join(errs...)
}

func (ModelsChecker) Advisory() bool { return true }

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler runs every checker. Only a failing non-advisory check returns 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		names := make([]string, 0, len(checkers))
		for name := range checkers {
			names = append(names, name)
		}
		sort.Strings(names)

		health := HealthStatus{
			Status:    statusHealthy,
			Timestamp: time.Now().UTC(),
			Checks:    make(map[string]CheckStatus, len(checkers)),
		}
		for _, name := range names {
			checker := checkers[name]
			err := checker.Check(ctx)
			if err == nil {
				health.Checks[name] = CheckStatus{Status: statusHealthy}
				continue
			}
			if a, ok := checker.(Advisory); ok && a.Advisory() {
				health.Checks[name] = CheckStatus{Status: statusDegraded, Message: err.Error()}
				if health.Status == statusHealthy {
					health.Status = statusDegraded
				}
				continue
			}
			health.Checks[name] = CheckStatus{Status: statusUnhealthy, Message: err.Error()}
			health.Status = statusUnhealthy
		}

		code := http.StatusOK
		if health.Status == statusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(health)
	}
}

// Readiness describes what the analysis service was started with.
type Readiness struct {
	AnalysisModels int  `json:"analysisModels"`
	QuestionModels int  `json:"questionModels"`
	History        bool `json:"history"`
	PhotoArchive   bool `json:"photoArchive"`
}

// ReadinessHandler always answers 200; the service can serve offline results with any configuration.
func ReadinessHandler(info Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Readiness
		}{"ready", time.Now().UTC(), info})
	}
}

func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
