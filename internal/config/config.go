package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"call-insights-go/internal/types"
)

const (
	BackendAssemblyAI = "assemblyai"
	BackendDeepgram   = "deepgram"
	BackendWhisper    = "whisper"
	BackendGoogle     = "google"
	BackendMock       = "mock"

	LLMOpenAI = "openai"
	LLMMock   = "mock"

	// TemplateNone runs the pipeline in transcript-only mode.
	TemplateNone = "none"
)

var knownSinks = map[string]bool{
	"stdout": true, "text": true, "files": true, "report": true, "csv": true,
	"xlsx": true, "kafka": true, "postgres": true,
}

type Config struct {
	SourceList    string
	SourceDir     string
	SourceFeed    string
	SourcePage    string
	SourceSheet   string
	SourceBaseDir string
	WorkDir       string

	TranscodeTo string
	FFmpegPath  string
	YTDLPPath   string

	TranscribeBackend string
	AssemblyAIKey     string
	AssemblyAIBaseURL string
	DeepgramKey       string
	DeepgramBaseURL   string
	DeepgramModel     string
	WhisperBin        string
	WhisperModel      string
	GoogleLanguage    string

	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollTimeout     time.Duration
	HTTPTimeout     time.Duration
	SourceTimeout   time.Duration

	LLMBackend     string
	LLMGatewayURL  string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	Template       string
	Structured     bool

	Sinks           []string
	ResultsTextPath string
	OutputDir       string
	CSVPath         string
	XLSXPath        string
	XLSXSheet       string
	KafkaBrokers    []string
	KafkaTopic      string
	PostgresDSN     string

	Workers         int
	MetricsTextfile string
	Port            string
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		SourceList:    os.Getenv("SOURCE_LIST"),
		SourceDir:     os.Getenv("SOURCE_DIR"),
		SourceFeed:    os.Getenv("SOURCE_FEED"),
		SourcePage:    os.Getenv("SOURCE_PAGE"),
		SourceSheet:   os.Getenv("SOURCE_SHEET"),
		SourceBaseDir: os.Getenv("SOURCE_BASE_DIR"),
		WorkDir:       envOr("WORK_DIR", os.TempDir()),

		TranscodeTo: strings.ToLower(os.Getenv("TRANSCODE_TO")),
		FFmpegPath:  envOr("FFMPEG_PATH", "ffmpeg"),
		YTDLPPath:   envOr("YTDLP_PATH", "yt-dlp"),

		TranscribeBackend: strings.ToLower(envOr("TRANSCRIBE_BACKEND", BackendAssemblyAI)),
		AssemblyAIKey:     os.Getenv("ASSEMBLYAI_API_KEY"),
		AssemblyAIBaseURL: envOr("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com"),
		DeepgramKey:       os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramBaseURL:   envOr("DEEPGRAM_BASE_URL", "https://api.deepgram.com"),
		DeepgramModel:     envOr("DEEPGRAM_MODEL", "nova-2"),
		WhisperBin:        envOr("WHISPER_BIN", "whisper"),
		WhisperModel:      envOr("WHISPER_MODEL", "base"),
		GoogleLanguage:    envOr("GOOGLE_SPEECH_LANGUAGE", "en-US"),

		LLMBackend:    strings.ToLower(envOr("LLM_BACKEND", LLMOpenAI)),
		LLMGatewayURL: envOr("LLM_GATEWAY_URL", "https://api.openai.com/v1/chat/completions"),
		LLMAPIKey:     envOr("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMModel:      envOr("LLM_MODEL", "gpt-4o"),
		Template:      strings.ToLower(envOr("ANALYSIS_TEMPLATE", "billability")),

		Sinks:           splitList(strings.ToLower(envOr("SINKS", "stdout"))),
		ResultsTextPath: envOr("RESULTS_TEXT_PATH", "results.txt"),
		OutputDir:       envOr("OUTPUT_DIR", "analysis_results"),
		CSVPath:         envOr("CSV_PATH", "results.csv"),
		XLSXPath:        envOr("XLSX_PATH", "results.xlsx"),
		XLSXSheet:       envOr("XLSX_SHEET", "Sheet1"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      envOr("KAFKA_TOPIC", "call-analyses"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		Port:            envOr("PORT", "8080"),
	}

	var err error
	if cfg.PollInterval, err = durationEnv("POLL_INTERVAL", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PollMaxInterval, err = durationEnv("POLL_MAX_INTERVAL", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PollTimeout, err = durationEnv("POLL_TIMEOUT", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SourceTimeout, err = durationEnv("SOURCE_TIMEOUT", 20*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Workers, err = intEnv("WORKERS", 1); err != nil {
		return Config{}, err
	}
	if cfg.LLMMaxTokens, err = intEnv("LLM_MAX_TOKENS", 1024); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if cfg.LLMTemperature, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("%w: parse LLM_TEMPERATURE: %w", types.ErrConfiguration, err)
		}
	}
	if v := os.Getenv("STRUCTURED_OUTPUT"); v != "" {
		if cfg.Structured, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("%w: parse STRUCTURED_OUTPUT: %w", types.ErrConfiguration, err)
		}
	}
	return cfg, nil
}

// TranscriptOnly reports whether the analysis step is disabled.
func (c Config) TranscriptOnly() bool {
	return c.Template == TemplateNone || c.Template == ""
}

// HasSource reports whether at least one source enumerator is configured.
func (c Config) HasSource() bool {
	return c.SourceList != "" || c.SourceDir != "" || c.SourceFeed != "" ||
		c.SourcePage != "" || c.SourceSheet != ""
}

// Validate checks the settings needed by a batch run.
func (c Config) Validate() error {
	if !c.HasSource() {
		return fmt.Errorf("%w: no source configured (SOURCE_LIST, SOURCE_DIR, SOURCE_FEED, SOURCE_PAGE or SOURCE_SHEET)", types.ErrConfiguration)
	}
	return c.ValidateBackends()
}

// ValidateBackends checks backend credentials, sinks and timeouts. The HTTP
// service calls it directly since it has no source list.
func (c Config) ValidateBackends() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", types.ErrConfiguration, fmt.Sprintf(format, args...))
	}

	switch c.TranscribeBackend {
	case BackendAssemblyAI:
		if c.AssemblyAIKey == "" {
			return fail("ASSEMBLYAI_API_KEY not set")
		}
	case BackendDeepgram:
		if c.DeepgramKey == "" {
			return fail("DEEPGRAM_API_KEY not set")
		}
	case BackendWhisper, BackendGoogle, BackendMock:
	default:
		return fail("unknown TRANSCRIBE_BACKEND %q", c.TranscribeBackend)
	}

	if !c.TranscriptOnly() {
		if err := c.ValidateLLM(); err != nil {
			return err
		}
	}

	switch c.TranscodeTo {
	case "", "mp3", "wav", "flac":
	default:
		return fail("unsupported TRANSCODE_TO %q", c.TranscodeTo)
	}

	if len(c.Sinks) == 0 {
		return fail("SINKS is empty")
	}
	for _, s := range c.Sinks {
		if !knownSinks[s] {
			return fail("unknown sink %q", s)
		}
		if s == "kafka" && len(c.KafkaBrokers) == 0 {
			return fail("kafka sink needs KAFKA_BROKERS")
		}
		if s == "postgres" && c.PostgresDSN == "" {
			return fail("postgres sink needs POSTGRES_DSN")
		}
	}

	if c.PollInterval <= 0 || c.PollMaxInterval <= 0 || c.PollTimeout <= 0 || c.HTTPTimeout <= 0 || c.SourceTimeout <= 0 {
		return fail("timeouts and poll intervals must be positive")
	}
	if c.Workers < 1 {
		return fail("WORKERS must be at least 1")
	}
	return nil
}

// ValidateLLM checks the analysis backend settings. Transcript-only runs
// skip it at startup, so anything that enables a template later must call it.
func (c Config) ValidateLLM() error {
	switch c.LLMBackend {
	case LLMOpenAI:
		if c.LLMGatewayURL == "" || c.LLMAPIKey == "" {
			return fmt.Errorf("%w: llm gateway not configured (LLM_GATEWAY_URL, LLM_API_KEY)", types.ErrConfiguration)
		}
	case LLMMock:
	default:
		return fmt.Errorf("%w: unknown LLM_BACKEND %q", types.ErrConfiguration, c.LLMBackend)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", types.ErrConfiguration, key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", types.ErrConfiguration, key, err)
	}
	return n, nil
}

// SplitList splits a comma separated setting, dropping empty items.
func SplitList(v string) []string {
	return splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
