package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"call-insights-go/internal/app"
	"call-insights-go/internal/config"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

func testServer(t *testing.T, mutate ...func(*config.Config)) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		WorkDir:           dir,
		TranscribeBackend: config.BackendMock,
		LLMBackend:        config.LLMMock,
		Template:          "billability",
		Sinks:             []string{"text"},
		ResultsTextPath:   filepath.Join(dir, "results.txt"),
		HTTPTimeout:       5 * time.Second,
		SourceTimeout:     5 * time.Second,
		Workers:           1,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	log := logger.NewWithOutput(io.Discard)
	a, err := app.New(context.Background(), cfg, io.Discard, log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Shutdown() })
	srv := httptest.NewServer(newMux(a, log))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("healthz = %d %q", resp.StatusCode, body)
	}
}

func TestProcess(t *testing.T) {
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("audio"))
	}))
	defer audio.Close()
	srv := testServer(t)

	tests := []struct {
		name       string
		query      string
		wantCode   int
		wantStatus types.Status
	}{
		{"missing param", "", http.StatusBadRequest, ""},
		{"not a url", "?audio_url=/etc/passwd", http.StatusBadRequest, ""},
		{"unknown template", "?audio_url=" + audio.URL + "/a.mp3&template=bogus", http.StatusBadRequest, ""},
		{"ok", "?audio_url=" + audio.URL + "/a.mp3", http.StatusOK, types.StatusSuccess},
		{"transcript only", "?audio_url=" + audio.URL + "/a.mp3&template=none", http.StatusOK, types.StatusSuccess},
		{"fetch failure", "?audio_url=" + audio.URL + "/missing.mp3", http.StatusInternalServerError, types.StatusFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/process" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("code = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantStatus == "" {
				return
			}
			var out types.Outcome
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Status != tt.wantStatus {
				t.Errorf("status = %s (%s)", out.Status, out.Error)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("code = %d", resp.StatusCode)
	}
	if strings.Contains(string(body), "go_goroutines") {
		t.Error("private registry should not expose default collectors")
	}
}

func TestProcess_TemplateOverrideNeedsLLMCredentials(t *testing.T) {
	var llmCalls atomic.Int32
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		llmCalls.Add(1)
		w.Write([]byte(`{"choices":[{"message":{"content":"Billable: YES"}}]}`))
	}))
	defer llm.Close()
	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer audio.Close()

	srv := testServer(t, func(c *config.Config) {
		c.Template = config.TemplateNone
		c.LLMBackend = config.LLMOpenAI
		c.LLMGatewayURL = llm.URL
		c.LLMAPIKey = ""
	})

	resp, err := http.Get(srv.URL + "/process?audio_url=" + audio.URL + "/a.mp3&template=billability")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if n := llmCalls.Load(); n != 0 {
		t.Errorf("llm called %d times without credentials", n)
	}

	// transcript-only requests still work
	resp, err = http.Get(srv.URL + "/process?audio_url=" + audio.URL + "/a.mp3")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("transcript-only code = %d", resp.StatusCode)
	}
}
