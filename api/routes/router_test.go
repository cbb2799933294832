package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/galatadergisi/galata-backend/internal/contributions"
	"github.com/galatadergisi/galata-backend/internal/magazines"
	"github.com/galatadergisi/galata-backend/internal/uploads"
	"github.com/galatadergisi/galata-backend/pkg/config"
	"github.com/galatadergisi/galata-backend/pkg/db/models"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubContributionService struct{ calls int }

func (s *stubContributionService) Submit(context.Context, contributions.Submission, *uploads.StoredFile) (models.Contribution, error) {
	s.calls++
	return models.Contribution{ID: 1}, nil
}

type stubMagazineService struct{}

func (stubMagazineService) List(context.Context) ([]magazines.Summary, error) {
	return []magazines.Summary{{Index: 1}}, nil
}

func (stubMagazineService) Pages(context.Context, uint64) (map[int]string, error) {
	return map[int]string{1: "<p>1</p>"}, nil
}

type stubIndex struct{}

func (stubIndex) Get() ([]byte, error) { return []byte("<html>shell</html>"), nil }

func testConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "robots.txt"), []byte("User-agent: *"), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		App: config.AppConfig{Env: env, CORSOrigins: []string{"https://galatadergisi.org"}},
		RateLimit: config.RateLimitConfig{
			SubmissionWindow:  time.Minute,
			SubmissionIPLimit: 5,
		},
		Magazines: config.MagazinesConfig{StaticDir: static},
	}
}

func newTestRouter(t *testing.T, env string) (http.Handler, *stubContributionService) {
	t.Helper()
	store, err := uploads.NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	svc := &stubContributionService{}
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# metrics")
	})
	return NewRouter(testConfig(t, env), nil, stubPinger{}, nil, svc, store, stubMagazineService{}, stubIndex{}, nil, metricsHandler), svc
}

func TestRouterServesPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t, "prod")

	cases := []struct {
		path string
		code int
		body string
	}{
		{path: "/health/live", code: http.StatusOK, body: `"success":true`},
		{path: "/health/ready", code: http.StatusOK, body: `"success":true`},
		{path: "/metrics", code: http.StatusOK, body: "# metrics"},
		{path: "/magazines", code: http.StatusOK, body: `"magazines"`},
		{path: "/magazines/1/pages", code: http.StatusOK, body: `"pages"`},
		{path: "/dergiler/sayi3", code: http.StatusOK, body: "shell"},
		{path: "/dergiler/sayi3/14", code: http.StatusOK, body: "shell"},
		{path: "/robots.txt", code: http.StatusOK, body: "User-agent"},
		{path: "/dergiler/sayi3/on", code: http.StatusNotFound},
		{path: "/magazines/1/audio/a.mp3", code: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.code {
				t.Fatalf("expected %d got %d", tc.code, rec.Code)
			}
			if tc.body != "" && !strings.Contains(rec.Body.String(), tc.body) {
				t.Fatalf("expected body to contain %q, got %s", tc.body, rec.Body.String())
			}
		})
	}
}

func TestRouterSubmitsContribution(t *testing.T) {
	router, svc := newTestRouter(t, "prod")

	req := httptest.NewRequest(http.MethodPost, "/katkida-bulunun", strings.NewReader("name=Ali"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || !body.Success || svc.calls != 1 {
		t.Fatalf("unexpected result code=%d body=%+v calls=%d", rec.Code, body, svc.calls)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestRouterAnswersCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, "prod")

	req := httptest.NewRequest(http.MethodOptions, "/katkida-bulunun", nil)
	req.Header.Set("Origin", "https://galatadergisi.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://galatadergisi.org" {
		t.Fatalf("expected preflight to be allowed, got %q (status %d)", got, rec.Code)
	}
}

func TestRouterMountsAudioInDev(t *testing.T) {
	cfg := testConfig(t, "dev")
	audioDir := filepath.Join(cfg.Magazines.StaticDir, "audio", "2")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(audioDir, "a.mp3"), []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := uploads.NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatal(err)
	}
	router := NewRouter(cfg, nil, stubPinger{}, nil, &stubContributionService{}, store, stubMagazineService{}, stubIndex{}, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines/2/audio/a.mp3", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ID3" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
