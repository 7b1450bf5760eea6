package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finchhq/finch/internal/log"
)

const searchFixture = `{
  "AbstractText": "Go is a statically typed, compiled programming language.",
  "AbstractURL": "https://en.wikipedia.org/wiki/Go_(programming_language)",
  "RelatedTopics": [
    {"Text": "Gopher - the Go mascot", "FirstURL": "https://example.com/gopher"},
    {"Text": ""},
    {"Text": "Goroutines", "FirstURL": "https://example.com/goroutines"},
    {"Text": "Channels", "FirstURL": "https://example.com/channels"},
    {"Text": "Interfaces", "FirstURL": "https://example.com/interfaces"}
  ]
}`

func TestSearchFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("q = %q, want golang", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q, want json", got)
		}
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer server.Close()

	s := NewSearch(server.URL, server.Client(), nil, log.NewNop())
	got := s.Fetch(context.Background(), "golang")

	for _, want := range []string{
		"Summary: Go is a statically typed, compiled programming language.\n",
		"Source: https://en.wikipedia.org/wiki/Go_(programming_language)\n",
		"Related Information:\n",
		"1. Gopher - the Go mascot\n",
		"   Source: https://example.com/gopher\n",
		"2. Goroutines\n",
		"3. Channels\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Fetch output missing %q\ngot:\n%s", want, got)
		}
	}
	// Empty topics are skipped and the list stops at three items.
	if strings.Contains(got, "Interfaces") {
		t.Errorf("Fetch output includes a fourth related item:\n%s", got)
	}
}

func TestSearchFetchNoResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AbstractText":"","AbstractURL":"","RelatedTopics":[]}`))
	}))
	defer server.Close()

	s := NewSearch(server.URL, server.Client(), nil, log.NewNop())
	if got := s.Fetch(context.Background(), "xyzzy"); got != "No search results found." {
		t.Errorf("Fetch = %q, want no-results string", got)
	}
}

func TestSearchFetchUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			s := NewSearch(server.URL, server.Client(), nil, log.NewNop())
			if got := s.Fetch(context.Background(), "anything"); got != "Unable to perform web search at this time." {
				t.Errorf("Fetch = %q, want unavailable string", got)
			}
		})
	}
}

func TestSearchFetchWithPageExcerpt(t *testing.T) {
	t.Parallel()

	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Go</title>` +
			`<meta name="description" content="The Go programming language."></head>` +
			`<body><p>short</p></body></html>`))
	}))
	defer page.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AbstractText":"Go.","AbstractURL":"` + page.URL + `","RelatedTopics":[]}`))
	}))
	defer search.Close()

	pages := NewPageFetcher(page.Client(), log.NewNop())
	s := NewSearch(search.URL, search.Client(), pages, log.NewNop())
	got := s.Fetch(context.Background(), "golang")

	if !strings.Contains(got, "Page Excerpt:\n") {
		t.Errorf("Fetch output missing excerpt section:\n%s", got)
	}
}

func TestSearchFetchExcerptFailureIsSoft(t *testing.T) {
	t.Parallel()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"AbstractText":"Go.","AbstractURL":"http://127.0.0.1:1/nope","RelatedTopics":[]}`))
	}))
	defer search.Close()

	pages := NewPageFetcher(http.DefaultClient, log.NewNop())
	s := NewSearch(search.URL, search.Client(), pages, log.NewNop())
	got := s.Fetch(context.Background(), "golang")

	if !strings.Contains(got, "Summary: Go.") {
		t.Errorf("Fetch lost the search result on excerpt failure:\n%s", got)
	}
	if strings.Contains(got, "Page Excerpt:") {
		t.Errorf("Fetch added an excerpt despite fetch failure:\n%s", got)
	}
}
