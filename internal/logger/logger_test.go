package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"call-insights-go/internal/types"
)

func TestNewWithOutput_JSONFields(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "")

	var buf bytes.Buffer
	log := NewWithOutput(&buf).Component("fetcher")
	log.WithSource(types.Source{ID: "abc", Location: "http://x/a.mp3", Kind: types.SourceURL}).Info("fetched")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if line["component"] != "fetcher" {
		t.Errorf("component = %v", line["component"])
	}
	if line["source"] != "http://x/a.mp3" {
		t.Errorf("source = %v", line["source"])
	}
	if line["msg"] != "fetched" {
		t.Errorf("msg = %v", line["msg"])
	}
}

func TestLogLevelFiltersDebug(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	log := NewWithOutput(&buf)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}
	log.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("expected warn line")
	}
}

func TestWithError(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	var buf bytes.Buffer
	log := NewWithOutput(&buf)
	log.WithError(errors.New("boom")).Error("failed")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["error"] != "boom" {
		t.Errorf("error field = %v", line["error"])
	}
	if log.WithError(nil) != log.Entry {
		t.Error("WithError(nil) should return the base entry")
	}
}

func TestWithRequestKeepsRequestID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	var buf bytes.Buffer
	log := NewWithOutput(&buf)
	r := httptest.NewRequest("GET", "/process", nil)
	r.Header.Set("X-Request-ID", "req-1")
	log.WithRequest(r).Info("hit")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["req_id"] != "req-1" {
		t.Errorf("req_id = %v", line["req_id"])
	}
}
