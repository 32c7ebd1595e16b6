package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchBatch(t *testing.T) {
	var gotQuery, gotLimit, gotOffset string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("srsearch")
		gotLimit = r.URL.Query().Get("srlimit")
		gotOffset = r.URL.Query().Get("sroffset")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":{"search":[{"title":"Information entropy"},{"title":"Entropy (disambiguation)"}]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL, "https://en.wikipedia.org/wiki/"))

	pages, err := c.SearchBatch(context.Background(), `"entropy"`, 20, 40)
	if err != nil {
		t.Fatalf("SearchBatch failed: %v", err)
	}

	if gotQuery != `"entropy"` {
		t.Errorf("srsearch = %q", gotQuery)
	}
	if gotLimit != "20" || gotOffset != "40" {
		t.Errorf("srlimit/sroffset = %s/%s", gotLimit, gotOffset)
	}

	if len(pages) != 2 {
		t.Fatalf("Expected 2 pages, got %d", len(pages))
	}
	if pages[0].Title != "Information entropy" {
		t.Errorf("Order must follow the API response, got %q first", pages[0].Title)
	}
	if pages[0].URL != "https://en.wikipedia.org/wiki/Information_entropy" {
		t.Errorf("Unexpected URL: %s", pages[0].URL)
	}
	t.Logf("Pages: %v", pages)
}

func TestSearchBatchClampsLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("srlimit")
		w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL, "base/"))

	if _, err := c.SearchBatch(context.Background(), "x", 500, 0); err != nil {
		t.Fatalf("SearchBatch failed: %v", err)
	}
	if gotLimit != "50" {
		t.Errorf("Limit must clamp to the API maximum, got %s", gotLimit)
	}
}

func TestSearchBatchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL, "base/"))

	pages, err := c.SearchBatch(context.Background(), "nothing", 10, 0)
	if err != nil {
		t.Fatalf("SearchBatch failed: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("Expected no pages, got %d", len(pages))
	}
}

func TestSearchBatchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithEndpoint(srv.URL, "base/"))

	if _, err := c.SearchBatch(context.Background(), "x", 10, 0); err == nil {
		t.Error("Expected an error on a non-200 response")
	}
}
