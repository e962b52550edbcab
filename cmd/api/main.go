package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"call-insights-go/internal/app"
	"call-insights-go/internal/config"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/sources"
	"call-insights-go/internal/types"
)

func main() {
	log := logger.New()
	log.WithField("service", "call-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := cfg.ValidateBackends(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, os.Stdout, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Shutdown()

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newMux(a, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SourceTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
}

func newMux(a *app.Application, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	mux.Handle("/metrics", a.Metrics.Handler())

	// process one recording through the same processor the batch CLI uses
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "process")

		audioURL := strings.TrimSpace(r.URL.Query().Get("audio_url"))
		if audioURL == "" {
			reqLog.Warn("missing audio_url")
			http.Error(w, "missing audio_url", http.StatusBadRequest)
			return
		}
		if !strings.HasPrefix(audioURL, "http://") && !strings.HasPrefix(audioURL, "https://") {
			http.Error(w, "audio_url must be an http(s) URL", http.StatusBadRequest)
			return
		}

		p := a.Processor
		if name := r.URL.Query().Get("template"); name != "" {
			tmpl, err := app.TemplateFor(strings.ToLower(name), false)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if tmpl != nil {
				if err := a.Cfg.ValidateLLM(); err != nil {
					reqLog.WithError(err).Warn("template requested without an analysis backend")
					http.Error(w, "analysis backend not configured", http.StatusServiceUnavailable)
					return
				}
			}
			p = p.WithTemplate(tmpl)
		}

		reqLog = reqLog.WithField("audio_url", audioURL)
		reqLog.Info("process request received")

		out := p.Process(r.Context(), sources.NewSource(audioURL, sources.Classify(audioURL), ""))
		reqLog.WithField("status", out.Status).WithField("duration_ms", out.DurationMs).Info("processor finished")

		w.Header().Set("Content-Type", "application/json")
		if out.Status != types.StatusSuccess {
			w.WriteHeader(http.StatusInternalServerError)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			reqLog.WithError(err).Error("failed to write response")
		}
	})

	return mux
}
