package sink

import (
	"context"
	"fmt"
	"io"

	"call-insights-go/internal/config"
	"call-insights-go/internal/logger"
	"call-insights-go/internal/metrics"
	"call-insights-go/internal/types"
)

// New builds the sinks named in cfg.Sinks. stdout is where the console
// sink prints.
func New(ctx context.Context, cfg config.Config, stdout io.Writer, m *metrics.Metrics, log *logger.Logger) (*Multi, error) {
	var sinks []Sink
	fail := func(err error) (*Multi, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	for _, name := range cfg.Sinks {
		switch name {
		case "stdout":
			sinks = append(sinks, &Console{W: stdout})
		case "text":
			sinks = append(sinks, &TextFile{Path: cfg.ResultsTextPath})
		case "files":
			sinks = append(sinks, &PerSource{Dir: cfg.OutputDir})
		case "report":
			sinks = append(sinks, &Report{Dir: cfg.OutputDir})
		case "csv":
			sinks = append(sinks, &CSV{Path: cfg.CSVPath, TranscriptOnly: cfg.TranscriptOnly()})
		case "xlsx":
			sinks = append(sinks, &Spreadsheet{Path: cfg.XLSXPath, Sheet: cfg.XLSXSheet})
		case "kafka":
			sinks = append(sinks, NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic))
		case "postgres":
			pg, err := OpenPostgres(ctx, cfg.PostgresDSN)
			if err != nil {
				return fail(fmt.Errorf("%w: %w", types.ErrConfiguration, err))
			}
			sinks = append(sinks, pg)
		default:
			return fail(fmt.Errorf("%w: unknown sink %q", types.ErrConfiguration, name))
		}
	}
	return NewMulti(sinks, m, log), nil
}
