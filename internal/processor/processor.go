// Package processor runs one source through fetch, transcode, transcribe,
// analyze and persist.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"call-insights-go/internal/extractor"
	"call-insights-go/internal/fetch"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/types"
)

type Fetcher interface {
	Fetch(ctx context.Context, src types.Source) (*fetch.Artifact, error)
}

type Converter interface {
	Convert(ctx context.Context, art *fetch.Artifact) error
}

type Persister interface {
	Persist(ctx context.Context, rec types.Record) error
}

// Processor is safe for concurrent use when its collaborators are.
type Processor struct {
	RunID       string
	Fetcher     Fetcher
	Converter   Converter // optional
	Transcriber transcription.Transcriber
	Analyzer    extractor.Analyzer
	// Template is nil in transcript-only runs.
	Template *extractor.Template
	Sink     Persister
	Timeout  time.Duration
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// WithTemplate returns a copy that analyzes with tmpl. A nil tmpl disables
// the analysis step.
func (p *Processor) WithTemplate(tmpl *extractor.Template) *Processor {
	cp := *p
	cp.Template = tmpl
	return &cp
}

// Process never panics on a stage failure; the error is classified into the
// outcome status and the local artifact is removed on every path.
func (p *Processor) Process(ctx context.Context, src types.Source) types.Outcome {
	start := time.Now()
	out := types.Outcome{Source: src}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	rec, err := p.run(ctx, src)
	out.Status = types.StatusOf(err)
	out.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		out.Err = err
		out.Error = err.Error()
		p.Log.WithSource(src).WithField("run_id", p.RunID).WithError(err).WithField("status", out.Status).Error("source failed")
	} else {
		out.Record = &rec
		p.Log.WithSource(src).WithField("run_id", p.RunID).WithField("duration_ms", out.DurationMs).Info("source processed")
	}
	p.Metrics.RecordSource(out.Status)
	return out
}

func (p *Processor) run(ctx context.Context, src types.Source) (types.Record, error) {
	var art *fetch.Artifact
	err := p.stage("fetch", func() (err error) {
		art, err = p.Fetcher.Fetch(ctx, src)
		return err
	})
	if err != nil {
		return types.Record{}, err
	}
	defer func() {
		if cerr := art.Cleanup(); cerr != nil {
			p.Log.WithSource(src).WithError(cerr).Warn("temp file cleanup failed")
		}
	}()

	if p.Converter != nil {
		if err := p.stage("transcode", func() error { return p.Converter.Convert(ctx, art) }); err != nil {
			return types.Record{}, err
		}
	}

	var transcript string
	err = p.stage("transcribe", func() (err error) {
		transcript, err = p.Transcriber.Transcribe(ctx, art.Path)
		return err
	})
	if err != nil {
		return types.Record{}, err
	}

	rec := types.Record{
		ID:         uuid.NewString(),
		RunID:      p.RunID,
		Source:     src.Location,
		Transcript: transcript,
		Backend:    p.Transcriber.Name(),
	}

	if p.Template != nil {
		var analysis types.Analysis
		err = p.stage("analyze", func() (err error) {
			analysis, err = p.Analyzer.Analyze(ctx, *p.Template, transcript)
			return err
		})
		if err != nil {
			return types.Record{}, err
		}
		rec.Template = p.Template.Name
		rec.Analysis = analysis.Text
		rec.Fields = analysis.Fields
	}

	rec.ProcessedAt = time.Now().UTC()
	err = p.stage("persist", func() error { return p.Sink.Persist(ctx, rec) })
	if err != nil && !errors.Is(err, types.ErrPersist) {
		err = fmt.Errorf("%w: %w", types.ErrPersist, err)
	}
	if err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

func (p *Processor) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.Metrics.ObserveStage(name, time.Since(start))
	return err
}
