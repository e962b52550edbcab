package types

import "time"

type SourceKind string

const (
	SourceURL  SourceKind = "url"
	SourceFile SourceKind = "file"
	// SourceVideo is a video page whose audio track is extracted with yt-dlp.
	SourceVideo SourceKind = "video"
)

// Source is one call recording to process. Location is a URL or a path.
type Source struct {
	ID       string     `json:"id"`
	Location string     `json:"location"`
	Kind     SourceKind `json:"kind"`
	Title    string     `json:"title,omitempty"`
}

type Analysis struct {
	Template string            `json:"template"`
	Text     string            `json:"text"`
	Fields   map[string]string `json:"fields,omitempty"`
	HeaderOK bool              `json:"header_ok"`
}

// Record is one appended output row.
type Record struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	Source      string            `json:"source"`
	Transcript  string            `json:"transcript,omitempty"`
	Analysis    string            `json:"analysis,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Template    string            `json:"template,omitempty"`
	Backend     string            `json:"backend"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// TranscriptOnly reports whether the record was produced without an analysis step.
func (r Record) TranscriptOnly() bool {
	return r.Template == ""
}

type Status string

const (
	StatusSuccess             Status = "success"
	StatusFetchFailed         Status = "fetch_failed"
	StatusConversionFailed    Status = "conversion_failed"
	StatusTranscriptionFailed Status = "transcription_failed"
	StatusAnalysisFailed      Status = "analysis_failed"
	StatusPersistFailed       Status = "persist_failed"
	StatusFailed              Status = "failed"
)

// Outcome is the result of pushing one source through the pipeline.
type Outcome struct {
	Source     Source  `json:"source"`
	Status     Status  `json:"status"`
	Err        error   `json:"-"`
	Error      string  `json:"error,omitempty"`
	Record     *Record `json:"record,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}
