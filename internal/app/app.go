// Package app wires the pipeline components from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"call-insights-go/internal/config"
	"call-insights-go/internal/extractor"
	"call-insights-go/internal/fetch"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
	"call-insights-go/internal/pipeline"
	"call-insights-go/internal/processor"
	"call-insights-go/internal/sink"
	"call-insights-go/internal/sources"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/types"
)

// Application owns every long-lived component of one run and closes them
// on Shutdown.
type Application struct {
	RunID     string
	Cfg       config.Config
	Log       *logger.Logger
	Metrics   *metrics.Metrics
	Processor *processor.Processor

	client  *http.Client
	closers []io.Closer
}

// New builds the processor graph. Callers that only serve single requests
// can skip Sources and Run.
func New(ctx context.Context, cfg config.Config, stdout io.Writer, log *logger.Logger) (*Application, error) {
	a := &Application{
		RunID:   uuid.NewString(),
		Cfg:     cfg,
		Log:     log,
		Metrics: metrics.New(),
		client:  &http.Client{Timeout: cfg.HTTPTimeout},
	}

	tmpl, err := TemplateFor(cfg.Template, cfg.TranscriptOnly())
	if err != nil {
		return nil, err
	}

	tr, err := transcription.New(ctx, cfg, a.client, log, a.Metrics)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}
	if c, ok := tr.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	out, err := sink.New(ctx, cfg, stdout, a.Metrics, log)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.closers = append(a.closers, out)

	fetcher := fetch.NewFetcher(a.client, cfg.WorkDir, log)
	if cfg.YTDLPPath != "" {
		fetcher.YTDLP = cfg.YTDLPPath
	}
	if cfg.FFmpegPath != "" && cfg.FFmpegPath != "ffmpeg" {
		fetcher.FFmpeg = cfg.FFmpegPath
	}

	var conv processor.Converter
	if cfg.TranscodeTo != "" {
		conv = fetch.NewTranscoder(cfg.TranscodeTo, cfg.FFmpegPath, cfg.WorkDir, log)
	}

	a.Processor = &processor.Processor{
		RunID:       a.RunID,
		Fetcher:     fetcher,
		Converter:   conv,
		Transcriber: tr,
		Analyzer:    extractor.New(cfg, a.client, log),
		Template:    tmpl,
		Sink:        out,
		Timeout:     cfg.SourceTimeout,
		Metrics:     a.Metrics,
		Log:         log.Component("processor"),
	}

	log.WithField("run_id", a.RunID).
		WithField("backend", tr.Name()).
		WithField("template", cfg.Template).
		WithField("sinks", out.Name()).
		WithField("workers", cfg.Workers).
		Info("application created")
	return a, nil
}

// TemplateFor resolves a template name. It returns nil for transcript-only
// runs.
func TemplateFor(name string, transcriptOnly bool) (*extractor.Template, error) {
	if transcriptOnly || name == "" || name == config.TemplateNone {
		return nil, nil
	}
	t, err := extractor.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}
	return &t, nil
}

// Enumerator combines every configured source in a fixed order: list,
// directory, feed, page, sheet.
func (a *Application) Enumerator() sources.Enumerator {
	var m sources.Multi
	if a.Cfg.SourceList != "" {
		m = append(m, sources.ListFile{Path: a.Cfg.SourceList, BaseDir: a.Cfg.SourceBaseDir})
	}
	if a.Cfg.SourceDir != "" {
		m = append(m, sources.Directory{Path: a.Cfg.SourceDir})
	}
	if a.Cfg.SourceFeed != "" {
		m = append(m, sources.NewFeed(a.Cfg.SourceFeed))
	}
	if a.Cfg.SourcePage != "" {
		m = append(m, sources.Page{URL: a.Cfg.SourcePage, Client: a.client})
	}
	if a.Cfg.SourceSheet != "" {
		m = append(m, sources.Sheet{Path: a.Cfg.SourceSheet})
	}
	return m
}

// Run enumerates the configured sources and processes them all.
func (a *Application) Run(ctx context.Context) (pipeline.Summary, error) {
	srcs, err := a.Enumerator().Enumerate(ctx)
	if err != nil {
		return pipeline.Summary{}, err
	}
	a.Log.WithField("sources", len(srcs)).Info("sources enumerated")
	runner := pipeline.NewRunner(a.RunID, a.Cfg.Workers, a.Processor, a.Log)
	return runner.Run(ctx, srcs), nil
}

// Shutdown closes sinks and backend clients and flushes the metrics textfile.
func (a *Application) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := a.Metrics.WriteTextfile(a.Cfg.MetricsTextfile); err != nil {
		errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		a.Log.WithError(err).Warn("shutdown finished with errors")
		return err
	}
	a.Log.WithField("run_id", a.RunID).Info("application shut down")
	return nil
}
