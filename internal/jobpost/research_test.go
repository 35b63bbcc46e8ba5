package jobpost

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestResultLinks(t *testing.T) {
	page := `<html><body>
<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.glassdoor.com%2FInterview%2Facme&amp;rut=x">Glassdoor</a>
<a class="result__snippet" href="https://ignored.example.com">snippet</a>
<a class="result__a" href="/relative">relative</a>
<a class="result__a large" href="https://blog.example.com/acme-interview">Blog</a>
<a class="result__a" href="https://third.example.com">Third</a>
<a class="result__a" href="https://fourth.example.com">Fourth</a>
</body></html>`

	links, err := resultLinks(strings.NewReader(page), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"https://www.glassdoor.com/Interview/acme", "https://blog.example.com/acme-interview", "https://third.example.com"}
	if fmt.Sprint(links) != fmt.Sprint(want) {
		t.Fatalf("resultLinks() = %q, want %q", links, want)
	}
}

func TestResearchInterview(t *testing.T) {
	long := strings.Repeat("They asked about consistency in payment ledgers. ", 200)

	mux := http.NewServeMux()
	var query string
	var srvURL string
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		fmt.Fprintf(w, `<a class="result__a" href="%s/short">short</a><a class="result__a" href="%s/blocked">blocked</a><a class="result__a" href="%s/long">long</a>`,
			srvURL, srvURL, srvURL)
	})
	mux.HandleFunc("/short", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<p>Too short.</p>")
	})
	mux.HandleFunc("/blocked", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/long", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "<p>%s</p>", long)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	client := New(zap.NewNop())
	client.SearchURL = srv.URL + "/html/"

	text := client.ResearchInterview(context.Background(), "Acme Corp", "Go Engineer")

	if query != "Acme Corp Go Engineer interview questions" {
		t.Fatalf("unexpected query %q", query)
	}
	if len([]rune(text)) != maxResearchText || !strings.HasPrefix(text, "They asked about consistency") {
		t.Fatalf("unexpected research text (%d runes): %.60q", len([]rune(text)), text)
	}
}

func TestResearchInterviewFailureIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(zap.NewNop())
	client.SearchURL = srv.URL

	if text := client.ResearchInterview(context.Background(), "Acme", "SRE"); text != "" {
		t.Fatalf("expected empty research, got %q", text)
	}

	client.SearchURL = (&url.URL{Scheme: "http", Host: "127.0.0.1:0"}).String()
	if text := client.ResearchInterview(context.Background(), "Acme", "SRE"); text != "" {
		t.Fatalf("expected empty research, got %q", text)
	}
}
