package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"call-insights-go/internal/app"
	"call-insights-go/internal/config"
	"call-insights-go/internal/extractor"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/types"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		envFile  = flag.String("env", "", "load settings from this env file before the environment")
		list     = flag.String("list", "", "file with one recording URL or path per line")
		dir      = flag.String("dir", "", "directory of .mp3/.wav recordings")
		feed     = flag.String("feed", "", "RSS/Atom feed URL or file with audio enclosures")
		page     = flag.String("page", "", "HTML page to scan for audio links")
		sheet    = flag.String("sheet", "", "xlsx workbook with a recording URL column")
		template = flag.String("template", "", "analysis template ("+strings.Join(extractor.Names(), ", ")+", or none)")
		backend  = flag.String("backend", "", "transcription backend (assemblyai, deepgram, whisper, google, mock)")
		sinks    = flag.String("sinks", "", "comma separated sinks (stdout, text, files, csv, xlsx, kafka, postgres)")
		workers  = flag.Int("workers", 0, "number of sources processed concurrently")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
			return exitConfig
		}
	}

	log := logger.New().Component("callscribe")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return exitConfig
	}
	override(&cfg.SourceList, *list)
	override(&cfg.SourceDir, *dir)
	override(&cfg.SourceFeed, *feed)
	override(&cfg.SourcePage, *page)
	override(&cfg.SourceSheet, *sheet)
	override(&cfg.Template, strings.ToLower(*template))
	override(&cfg.TranscribeBackend, strings.ToLower(*backend))
	if *sinks != "" {
		cfg.Sinks = config.SplitList(strings.ToLower(*sinks))
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, os.Stdout, log)
	if err != nil {
		log.WithError(err).Error("startup failed")
		return exitConfig
	}
	defer a.Shutdown()

	sum, err := a.Run(ctx)
	if err != nil {
		log.WithError(err).Error("run aborted")
		if errors.Is(err, types.ErrConfiguration) {
			return exitConfig
		}
		return exitFailed
	}

	for _, o := range sum.Outcomes {
		if o.Status != types.StatusSuccess {
			log.WithSource(o.Source).WithField("status", o.Status).WithField("error", o.Error).Warn("source not processed")
		}
	}
	if ctx.Err() != nil {
		log.Warn("run interrupted")
	}
	if sum.ExitCode() != 0 {
		return exitFailed
	}
	return exitOK
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
