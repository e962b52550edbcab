package types

import "errors"

var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("fetch error")
	ErrConversion    = errors.New("conversion error")
	ErrTranscription = errors.New("transcription error")
	ErrAnalysis      = errors.New("analysis error")
	ErrPersist       = errors.New("persist error")
)

// StatusOf maps a stage error to the per-source status it is recorded under.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrFetch):
		return StatusFetchFailed
	case errors.Is(err, ErrConversion):
		return StatusConversionFailed
	case errors.Is(err, ErrTranscription):
		return StatusTranscriptionFailed
	case errors.Is(err, ErrAnalysis):
		return StatusAnalysisFailed
	case errors.Is(err, ErrPersist):
		return StatusPersistFailed
	default:
		return StatusFailed
	}
}
