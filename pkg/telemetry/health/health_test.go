package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		wantOK bool
	}{
		{name: "no checks", checks: nil, wantOK: true},
		{
			name:   "all healthy",
			checks: map[string]CheckFunc{"database": func(context.Context) error { return nil }},
			wantOK: true,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"rules":    func(context.Context) error { return nil },
			},
			wantOK: false,
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{"slow": func(ctx context.Context) error {
				<-ctx.Done()
				time.Sleep(10 * time.Millisecond)
				return nil
			}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("getgsa-api", 50*time.Millisecond)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}
			status := c.CheckReadiness(context.Background())
			if status.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (%+v)", status.OK, tt.wantOK, status)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New("getgsa-api", time.Second)
	c.RegisterCheck("database", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.OK || body.Checks["database"].Message != "down" {
		t.Errorf("body = %+v", body)
	}
}

func TestLivenessHandler(t *testing.T) {
	c := New("getgsa-api", 0)
	c.RegisterCheck("database", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("liveness must not run checks, status = %d", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc", "now", func() string { return "1.0.0" })(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "1.2.3" || info.PackVersion != "1.0.0" || info.GoVersion == "" {
		t.Errorf("info = %+v", info)
	}
}
