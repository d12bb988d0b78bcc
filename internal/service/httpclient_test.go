package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func TestFetchFirstTimeIsUnconditional(t *testing.T) {
	var gotINM, gotIMS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotINM = r.Header.Get("If-None-Match")
		gotIMS = r.Header.Get("If-Modified-Since")
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("body-1"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "")
	out, err := f.Fetch(context.Background(), srv.URL, false, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotINM != "" || gotIMS != "" {
		t.Errorf("first fetch must not send conditional headers, got INM=%q IMS=%q", gotINM, gotIMS)
	}
	if out.Kind != Changed {
		t.Fatalf("expected Changed, got %s", out.Kind)
	}
	if string(out.Body) != "body-1" {
		t.Errorf("body mismatch: %q", out.Body)
	}
	if out.Meta.ETag != `"v1"` {
		t.Errorf("etag not captured: %q", out.Meta.ETag)
	}
	if out.Meta.SHA256 != utils.SHA256Hex([]byte("body-1")) {
		t.Errorf("sha mismatch")
	}
}

func TestFetchSendsConditionalHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != `"v1"` {
			t.Errorf("If-None-Match = %q", r.Header.Get("If-None-Match"))
		}
		if r.Header.Get("If-Modified-Since") != "Mon, 02 Jan 2006 15:04:05 GMT" {
			t.Errorf("If-Modified-Since = %q", r.Header.Get("If-Modified-Since"))
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	prior := &store.Meta{ETag: `"v1"`, LastModified: "Mon, 02 Jan 2006 15:04:05 GMT", SHA256: "aaa"}
	f := NewFetcher(srv.Client(), "")
	out, err := f.Fetch(context.Background(), srv.URL, false, prior)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if out.Kind != Unchanged {
		t.Fatalf("expected Unchanged on 304, got %s", out.Kind)
	}
	if out.Meta != *prior {
		t.Errorf("Unchanged must carry the untouched prior metadata")
	}
	if out.Body != nil {
		t.Errorf("Unchanged must carry no body")
	}
}

func TestFetchDetectsUnchangedContent(t *testing.T) {
	body := []byte("same bytes every time")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// origin ignores conditional headers and always replies 200
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	prior := &store.Meta{ETag: `"stale"`, SHA256: utils.SHA256Hex(body)}
	f := NewFetcher(srv.Client(), "")
	out, err := f.Fetch(context.Background(), srv.URL, false, prior)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if out.Kind != UnchangedContent {
		t.Fatalf("expected UnchangedContent, got %s", out.Kind)
	}
	if out.Body != nil {
		t.Errorf("UnchangedContent must not expose a body to persist")
	}
	if out.Meta.SHA256 != utils.SHA256Hex(body) {
		t.Errorf("sha must be the recomputed hash")
	}
}

func TestFetchChangedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Etag", `"v2"`)
		w.Header().Set("Last-Modified", "Tue, 03 Jan 2006 15:04:05 GMT")
		_, _ = w.Write([]byte("new content"))
	}))
	defer srv.Close()

	prior := &store.Meta{ETag: `"v1"`, SHA256: utils.SHA256Hex([]byte("old content"))}
	f := NewFetcher(srv.Client(), "")
	out, err := f.Fetch(context.Background(), srv.URL, false, prior)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if out.Kind != Changed {
		t.Fatalf("expected Changed, got %s", out.Kind)
	}
	if out.Meta.ETag != `"v2"` || out.Meta.LastModified != "Tue, 03 Jan 2006 15:04:05 GMT" {
		t.Errorf("new version tokens not captured: %+v", out.Meta)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "")
	if _, err := f.Fetch(context.Background(), srv.URL, false, nil); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	f := NewFetcher(nil, "")
	if _, err := f.Fetch(context.Background(), srv.URL, false, nil); err == nil {
		t.Fatalf("transport failure must surface as an error, never as Unchanged")
	}
}

func TestFetchBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "secret-token")
	if _, err := f.Fetch(context.Background(), srv.URL, true, nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	// auth=false must not leak the token
	if _, err := f.Fetch(context.Background(), srv.URL, false, nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("token leaked to unauthenticated resource: %q", gotAuth)
	}
}

func TestFetchBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "")
	f.MaxBytes = 1024
	if _, err := f.Fetch(context.Background(), srv.URL, false, nil); err == nil {
		t.Fatalf("expected error when body exceeds cap")
	}
}
