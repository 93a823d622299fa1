package stt

import (
	"context"
	"errors"

	"github.com/callscribe/callscribe/internal/costing"
)

var (
	// ErrNoSpeechDetected means the provider returned no recognized words.
	// Terminal for the conversation; retrying the same audio cannot help.
	ErrNoSpeechDetected = errors.New("no speech detected in audio")

	// ErrProviderUnavailable covers unreachable/timed-out provider calls.
	// Retryable by re-invoking the pipeline; never retried internally.
	ErrProviderUnavailable = errors.New("recognition provider unavailable")
)

// Word is a single recognized word with provider speaker attribution.
// A zero SpeakerTag means the provider could not attribute the word.
type Word struct {
	Text       string
	Start      float64 // seconds from audio start
	End        float64
	Confidence float64 // [0,1]
	SpeakerTag int
}

type Alternative struct {
	Transcript string
	Confidence float64
	Words      []Word
}

// Segment carries one or more alternative transcripts for a stretch of audio,
// best first.
type Segment struct {
	Alternatives []Alternative
}

// Best returns the highest-ranked alternative, nil for an empty segment.
func (s Segment) Best() *Alternative {
	if len(s.Alternatives) == 0 {
		return nil
	}
	return &s.Alternatives[0]
}

// Result is the provider-agnostic recognition outcome.
type Result struct {
	Segments      []Segment
	BilledSeconds float64 // provider-reported chargeable duration, may be < audio length
	LanguageCode  string
}

type Request struct {
	AudioURI         string // object-store location, ex: "gs://bucket/key"
	Filename         string // original filename, drives encoding lookup
	LanguageCode     string
	AltLanguageCodes []string
	SampleRateHertz  int32
	Config           costing.Config
}

type Provider interface {
	Recognize(ctx context.Context, req Request) (*Result, error)
	Close() error
}

// RealizedEstimate prices the run from the duration the provider actually
// billed, which is the figure the cost monitor and ledger record.
func RealizedEstimate(res *Result, cfg costing.Config, monthlyUsageMinutes float64) costing.Estimate {
	return costing.EstimateCost(res.BilledSeconds/60, cfg, monthlyUsageMinutes)
}
