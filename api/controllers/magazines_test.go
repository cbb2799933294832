package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/galatadergisi/galata-backend/internal/magazines"
)

type stubMagazineService struct {
	list  []magazines.Summary
	pages map[int]string
	err   error
	index uint64
}

func (s *stubMagazineService) List(context.Context) ([]magazines.Summary, error) {
	return s.list, s.err
}

func (s *stubMagazineService) Pages(_ context.Context, index uint64) (map[int]string, error) {
	s.index = index
	return s.pages, s.err
}

type stubIndex struct {
	content []byte
	err     error
}

func (s stubIndex) Get() ([]byte, error) { return s.content, s.err }

func magazineRouter(svc magazines.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/magazines", ListMagazines(svc, nil))
	r.Get("/magazines/{index}/pages", MagazinePages(svc, nil))
	return r
}

func TestListMagazines(t *testing.T) {
	svc := &stubMagazineService{list: []magazines.Summary{{Index: 3, PublishDateText: "Ocak 2020", ThumbnailURL: "/t/3.jpg", TableOfContents: "<ul></ul>"}}}

	rec := httptest.NewRecorder()
	magazineRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines", nil))

	var body struct {
		Success   bool             `json:"success"`
		Magazines []map[string]any `json:"magazines"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Magazines) != 1 || body.Magazines[0]["publishDateText"] != "Ocak 2020" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestListMagazinesFailure(t *testing.T) {
	svc := &stubMagazineService{err: errors.New("db down")}

	rec := httptest.NewRecorder()
	magazineRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	want := `{"success":false,"error":"Someting went wrong."}` + "\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestMagazinePages(t *testing.T) {
	svc := &stubMagazineService{pages: map[int]string{1: "<p>bir</p>", 2: "<p>iki</p>"}}

	rec := httptest.NewRecorder()
	magazineRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines/12/pages", nil))

	var body struct {
		Success bool              `json:"success"`
		Pages   map[string]string `json:"pages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if svc.index != 12 || !body.Success || body.Pages["2"] != "<p>iki</p>" {
		t.Fatalf("unexpected result index=%d body=%+v", svc.index, body)
	}
}

func TestMagazinePagesRejectsBadIndex(t *testing.T) {
	svc := &stubMagazineService{}

	rec := httptest.NewRecorder()
	magazineRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines/abc/pages", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error != "Someting went wrong." {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestIssueIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	IssueIndex(stubIndex{content: []byte("<html>galata</html>")}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dergiler/sayi3", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<html>galata</html>" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=UTF-8" {
		t.Fatalf("unexpected content type %q", ct)
	}

	rec = httptest.NewRecorder()
	IssueIndex(stubIndex{err: os.ErrNotExist}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dergiler/sayi3", nil))
	if rec.Code != http.StatusInternalServerError || rec.Body.String() != "<h1>Internal Server Error</h1>" {
		t.Fatalf("unexpected failure response %d %s", rec.Code, rec.Body.String())
	}
}

func TestMagazineAudio(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "audio", "4"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "audio", "4", "okuma.mp3"), []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Get("/magazines/{index}/audio/{file}", MagazineAudio(dir))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines/4/audio/okuma.mp3", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ID3" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/magazines/x/audio/okuma.mp3", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for bad index, got %d", rec.Code)
	}
}
