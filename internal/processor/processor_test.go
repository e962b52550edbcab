package processor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"call-insights-go/internal/extractor"
	"call-insights-go/internal/fetch"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/sources"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/types"
)

type countingTranscriber struct {
	transcription.Mock
	mu    sync.Mutex
	calls int
}

func (c *countingTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Mock.Transcribe(ctx, path)
}

type countingAnalyzer struct {
	extractor.Mock
	calls int
}

func (c *countingAnalyzer) Analyze(ctx context.Context, tmpl extractor.Template, transcript string) (types.Analysis, error) {
	c.calls++
	return c.Mock.Analyze(ctx, tmpl, transcript)
}

type memorySink struct {
	recs []types.Record
	err  error
}

func (m *memorySink) Persist(ctx context.Context, rec types.Record) error {
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func audioServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ID3 fake audio"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProcessor(t *testing.T, tr *countingTranscriber, an *countingAnalyzer, sink Persister) (*Processor, string) {
	t.Helper()
	work := t.TempDir()
	log := logger.NewWithOutput(io.Discard)
	tmpl, err := extractor.Lookup("billability")
	if err != nil {
		t.Fatal(err)
	}
	return &Processor{
		RunID:       "run-test",
		Fetcher:     fetch.NewFetcher(nil, work, log),
		Transcriber: tr,
		Analyzer:    an,
		Template:    &tmpl,
		Sink:        sink,
		Log:         log,
	}, work
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %d entries left", len(entries))
	}
}

func TestProcess_Success(t *testing.T) {
	srv := audioServer(t)
	tr := &countingTranscriber{Mock: transcription.Mock{Transcript: "caller wants a quote"}}
	an := &countingAnalyzer{Mock: extractor.Mock{Reply: "Billable: YES\nReason: quote given"}}
	sink := &memorySink{}
	p, work := newProcessor(t, tr, an, sink)

	out := p.Process(context.Background(), sources.NewSource(srv.URL+"/a.mp3", types.SourceURL, ""))
	if out.Status != types.StatusSuccess {
		t.Fatalf("status = %s (%v)", out.Status, out.Err)
	}
	if len(sink.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(sink.recs))
	}
	rec := sink.recs[0]
	if rec.Analysis != "Billable: YES\nReason: quote given" {
		t.Errorf("analysis altered: %q", rec.Analysis)
	}
	if rec.Transcript != "caller wants a quote" || rec.Template != "billability" || rec.RunID != "run-test" {
		t.Errorf("record = %+v", rec)
	}
	assertEmpty(t, work)
}

func TestProcess_FetchFailureSkipsTranscription(t *testing.T) {
	srv := audioServer(t)
	tr := &countingTranscriber{}
	an := &countingAnalyzer{}
	sink := &memorySink{}
	p, work := newProcessor(t, tr, an, sink)

	out := p.Process(context.Background(), sources.NewSource(srv.URL+"/missing.mp3", types.SourceURL, ""))
	if out.Status != types.StatusFetchFailed || !errors.Is(out.Err, types.ErrFetch) {
		t.Fatalf("status = %s err = %v", out.Status, out.Err)
	}
	if tr.calls != 0 || an.calls != 0 || len(sink.recs) != 0 {
		t.Errorf("later stages ran: transcribe=%d analyze=%d records=%d", tr.calls, an.calls, len(sink.recs))
	}
	assertEmpty(t, work)
}

func TestProcess_TranscriptionFailureSkipsAnalysis(t *testing.T) {
	srv := audioServer(t)
	tr := &countingTranscriber{Mock: transcription.Mock{Err: errors.New("job failed")}}
	an := &countingAnalyzer{}
	sink := &memorySink{}
	p, work := newProcessor(t, tr, an, sink)

	out := p.Process(context.Background(), sources.NewSource(srv.URL+"/a.mp3", types.SourceURL, ""))
	if out.Status != types.StatusTranscriptionFailed {
		t.Fatalf("status = %s", out.Status)
	}
	if tr.calls != 1 || an.calls != 0 || len(sink.recs) != 0 {
		t.Errorf("transcribe=%d analyze=%d records=%d", tr.calls, an.calls, len(sink.recs))
	}
	assertEmpty(t, work)
}

func TestProcess_TranscriptOnly(t *testing.T) {
	srv := audioServer(t)
	tr := &countingTranscriber{}
	an := &countingAnalyzer{}
	sink := &memorySink{}
	p, _ := newProcessor(t, tr, an, sink)
	p = p.WithTemplate(nil)

	out := p.Process(context.Background(), sources.NewSource(srv.URL+"/a.mp3", types.SourceURL, ""))
	if out.Status != types.StatusSuccess {
		t.Fatalf("status = %s (%v)", out.Status, out.Err)
	}
	if an.calls != 0 {
		t.Errorf("analyzer called %d times", an.calls)
	}
	if !sink.recs[0].TranscriptOnly() {
		t.Error("record should be transcript-only")
	}
}

func TestProcess_PersistFailure(t *testing.T) {
	srv := audioServer(t)
	sink := &memorySink{err: errors.New("read-only file system")}
	p, work := newProcessor(t, &countingTranscriber{}, &countingAnalyzer{}, sink)

	out := p.Process(context.Background(), sources.NewSource(srv.URL+"/a.mp3", types.SourceURL, ""))
	if out.Status != types.StatusPersistFailed || !errors.Is(out.Err, types.ErrPersist) {
		t.Fatalf("status = %s err = %v", out.Status, out.Err)
	}
	if out.Record != nil {
		t.Error("failed outcome should carry no record")
	}
	assertEmpty(t, work)
}

func TestProcess_CancelledContext(t *testing.T) {
	srv := audioServer(t)
	tr := &countingTranscriber{}
	p, work := newProcessor(t, tr, &countingAnalyzer{}, &memorySink{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := p.Process(ctx, sources.NewSource(srv.URL+"/a.mp3", types.SourceURL, ""))
	if out.Status == types.StatusSuccess {
		t.Fatal("cancelled run should not succeed")
	}
	assertEmpty(t, work)
}
