package fetch

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

func testLogger() *logger.Logger {
	return logger.NewWithOutput(io.Discard)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetch_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ID3 fake audio"))
	}))
	defer srv.Close()

	work := t.TempDir()
	f := NewFetcher(srv.Client(), work, testLogger())

	art, err := f.Fetch(context.Background(), types.Source{Location: srv.URL + "/a.mp3", Kind: types.SourceURL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(art.Path) != ".mp3" {
		t.Errorf("temp file should keep the extension, got %s", art.Path)
	}
	b, err := os.ReadFile(art.Path)
	if err != nil || string(b) != "ID3 fake audio" {
		t.Fatalf("content = %q, err = %v", b, err)
	}
	if err := art.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if err := art.Cleanup(); err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if left := dirEntries(t, work); len(left) != 0 {
		t.Errorf("work dir not empty after cleanup: %v", left)
	}

	_, err = f.Fetch(context.Background(), types.Source{Location: srv.URL + "/missing.mp3", Kind: types.SourceURL})
	if !errors.Is(err, types.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if left := dirEntries(t, work); len(left) != 0 {
		t.Errorf("404 left files behind: %v", left)
	}
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), t.TempDir(), testLogger())
	_, _ = f.Fetch(context.Background(), types.Source{Location: srv.URL + "/x.mp3", Kind: types.SourceURL})
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestFetch_ServerErrorRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), t.TempDir(), testLogger())
	art, err := f.Fetch(context.Background(), types.Source{Location: srv.URL + "/x.wav", Kind: types.SourceURL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer art.Cleanup()
	if hits.Load() != 2 {
		t.Fatalf("expected a retry, got %d requests", hits.Load())
	}
}

func TestFetch_PartialBodyRemoved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("short"))
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer srv.Close()

	work := t.TempDir()
	f := NewFetcher(srv.Client(), work, testLogger())
	_, err := f.Fetch(context.Background(), types.Source{Location: srv.URL + "/a.mp3", Kind: types.SourceURL})
	if !errors.Is(err, types.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if left := dirEntries(t, work); len(left) != 0 {
		t.Errorf("partial file left behind: %v", left)
	}
}

func TestFetch_LocalFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "call.wav")
	empty := filepath.Join(dir, "empty.wav")
	_ = os.WriteFile(good, []byte("RIFF"), 0o644)
	_ = os.WriteFile(empty, nil, 0o644)

	f := NewFetcher(nil, dir, testLogger())
	tests := []struct {
		name string
		path string
		ok   bool
	}{
		{"present", good, true},
		{"empty", empty, false},
		{"missing", filepath.Join(dir, "nope.wav"), false},
		{"directory", dir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, err := f.Fetch(context.Background(), types.Source{Location: tt.path, Kind: types.SourceFile})
			if !tt.ok {
				if !errors.Is(err, types.ErrFetch) {
					t.Fatalf("expected fetch error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := art.Cleanup(); err != nil {
				t.Fatal(err)
			}
			if _, err := os.Stat(tt.path); err != nil {
				t.Fatalf("local source must not be deleted: %v", err)
			}
		})
	}
}

func TestTranscoder_NoOp(t *testing.T) {
	for _, target := range []string{"", "wav"} {
		tr := NewTranscoder(target, "ffmpeg", t.TempDir(), testLogger())
		tr.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			t.Fatal("runner should not be called")
			return nil, nil
		}
		art := &Artifact{Path: "/calls/a.wav"}
		if err := tr.Convert(context.Background(), art); err != nil {
			t.Fatalf("target %q: %v", target, err)
		}
		if art.Path != "/calls/a.wav" {
			t.Errorf("target %q changed path to %s", target, art.Path)
		}
	}
}

func TestTranscoder_FFmpeg(t *testing.T) {
	work := t.TempDir()
	in := filepath.Join(t.TempDir(), "a.wav")
	_ = os.WriteFile(in, []byte("RIFF"), 0o644)

	var gotArgs []string
	tr := NewTranscoder("mp3", "/usr/bin/ffmpeg", work, testLogger())
	tr.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return nil, os.WriteFile(args[len(args)-1], []byte("mp3"), 0o644)
	}

	art := &Artifact{Path: in}
	if err := tr.Convert(context.Background(), art); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(art.Path) != ".mp3" || filepath.Dir(art.Path) != work {
		t.Errorf("converted path = %s", art.Path)
	}
	if gotArgs[0] != "/usr/bin/ffmpeg" || gotArgs[1] != "-y" {
		t.Errorf("args = %v", gotArgs)
	}
	if err := art.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(art.Path); !os.IsNotExist(err) {
		t.Error("converted file should be removed")
	}
	if _, err := os.Stat(in); err != nil {
		t.Error("input must survive cleanup")
	}
}

func TestTranscoder_Failures(t *testing.T) {
	work := t.TempDir()
	in := filepath.Join(t.TempDir(), "a.wav")
	_ = os.WriteFile(in, []byte("RIFF"), 0o644)

	tr := NewTranscoder("flac", "ffmpeg", work, testLogger())
	tr.Run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}
	art := &Artifact{Path: in}
	if err := tr.Convert(context.Background(), art); !errors.Is(err, types.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	_ = art.Cleanup()
	if left := dirEntries(t, work); len(left) != 0 {
		t.Errorf("failed conversion left files: %v", left)
	}

	bad := filepath.Join(t.TempDir(), "garbage.mp3")
	_ = os.WriteFile(bad, []byte("definitely not mpeg audio"), 0o644)
	art = &Artifact{Path: bad}
	if err := NewTranscoder("wav", "", work, testLogger()).Convert(context.Background(), art); !errors.Is(err, types.ErrConversion) {
		t.Fatalf("expected conversion error for undecodable mp3, got %v", err)
	}
	_ = art.Cleanup()
}

func TestWriteWavHeader(t *testing.T) {
	var buf bytes.Buffer
	pcm := make([]byte, 8)
	if err := writeWav(&buf, pcm, 16000, 2); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) != 44+len(pcm) {
		t.Fatalf("len = %d", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Fatal("bad chunk ids")
	}
	if sr := binary.LittleEndian.Uint32(b[24:28]); sr != 16000 {
		t.Errorf("sample rate = %d", sr)
	}
	if n := binary.LittleEndian.Uint32(b[40:44]); n != uint32(len(pcm)) {
		t.Errorf("data len = %d", n)
	}
	if ba := binary.LittleEndian.Uint16(b[32:34]); ba != 4 {
		t.Errorf("block align = %d", ba)
	}
}

// fakeYTDLP writes the requested output template with an mp3 extension,
// plus a leftover file when extra is set.
func fakeYTDLP(t *testing.T, gotArgs *[]string, extra bool) Runner {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*gotArgs = append([]string{name}, args...)
		for i, a := range args {
			if a == "-o" {
				out := strings.Replace(args[i+1], "%(ext)s", "mp3", 1)
				if extra {
					_ = os.WriteFile(filepath.Join(filepath.Dir(out), "audio.webm.part"), []byte("x"), 0o644)
				}
				return nil, os.WriteFile(out, []byte("ID3"), 0o644)
			}
		}
		return nil, errors.New("no output template")
	}
}

func TestFetch_Video(t *testing.T) {
	work := t.TempDir()
	f := NewFetcher(nil, work, testLogger())
	f.YTDLP = "/opt/yt-dlp"
	var gotArgs []string
	f.Run = fakeYTDLP(t, &gotArgs, true)

	src := types.Source{Location: "https://www.youtube.com/watch?v=abc123", Kind: types.SourceVideo}
	art, err := f.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Ext(art.Path) != ".mp3" {
		t.Errorf("path = %s", art.Path)
	}
	if gotArgs[0] != "/opt/yt-dlp" || gotArgs[len(gotArgs)-1] != src.Location || gotArgs[len(gotArgs)-2] != "--" {
		t.Errorf("args = %v", gotArgs)
	}
	if err := art.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if left := dirEntries(t, work); len(left) != 0 {
		t.Errorf("work dir not cleaned: %v", left)
	}
}

func TestFetch_VideoFailures(t *testing.T) {
	tests := []struct {
		name string
		run  Runner
	}{
		{"yt-dlp exits non-zero", func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("ERROR: Video unavailable"), errors.New("exit status 1")
		}},
		{"no audio written", func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work := t.TempDir()
			f := NewFetcher(nil, work, testLogger())
			f.Run = tt.run
			_, err := f.Fetch(context.Background(), types.Source{Location: "https://youtu.be/abc123", Kind: types.SourceVideo})
			if !errors.Is(err, types.ErrFetch) {
				t.Fatalf("expected fetch error, got %v", err)
			}
			if left := dirEntries(t, work); len(left) != 0 {
				t.Errorf("work dir not cleaned: %v", left)
			}
		})
	}
}
