package stt

import (
	"context"
	"errors"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GoogleSpeech runs long-running (asynchronous) recognition against Google
// Cloud Speech-to-Text v1. One request per pipeline run; the Wait call is the
// pipeline's single blocking external operation and can take seconds to tens
// of minutes depending on audio length.
type GoogleSpeech struct {
	c *speech.Client
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	var opts []option.ClientOption
	if f := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_FILE"); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Recognize(ctx context.Context, req Request) (*Result, error) {
	pbReq := buildRequest(req)

	op, err := g.c.LongRunningRecognize(ctx, pbReq)
	if err != nil {
		return nil, mapProviderError(err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, mapProviderError(err)
	}

	return normalizeResponse(resp, req.LanguageCode)
}

func buildRequest(req Request) *speechpb.LongRunningRecognizeRequest {
	lang := req.LanguageCode
	if lang == "" {
		lang = "en-US"
	}

	cfg := &speechpb.RecognitionConfig{
		Encoding:                   encodingForFilename(req.Filename),
		SampleRateHertz:            req.SampleRateHertz,
		LanguageCode:               lang,
		AlternativeLanguageCodes:   req.AltLanguageCodes,
		Model:                      req.Config.Model,
		UseEnhanced:                req.Config.EnhancedModel,
		EnableWordTimeOffsets:      true, // speaker segmentation needs word times regardless of tier
		EnableWordConfidence:       req.Config.WordTimestamps,
		EnableAutomaticPunctuation: req.Config.Punctuation,
		DiarizationConfig: &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: true,
			MinSpeakerCount:          2,
			MaxSpeakerCount:          int32(req.Config.MaxSpeakers),
		},
	}

	return &speechpb.LongRunningRecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: req.AudioURI},
		},
	}
}

func mapProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}

// normalizeResponse flattens the provider response into the provider-agnostic
// result shape. An answer without a single recognized word is NoSpeechDetected.
func normalizeResponse(resp *speechpb.LongRunningRecognizeResponse, lang string) (*Result, error) {
	out := &Result{LanguageCode: lang}
	if resp.GetTotalBilledTime() != nil {
		out.BilledSeconds = resp.GetTotalBilledTime().AsDuration().Seconds()
	}

	words := 0
	for _, r := range resp.GetResults() {
		seg := Segment{}
		for _, alt := range r.GetAlternatives() {
			a := Alternative{
				Transcript: alt.GetTranscript(),
				Confidence: float64(alt.GetConfidence()),
			}
			for _, w := range alt.GetWords() {
				a.Words = append(a.Words, Word{
					Text:       w.GetWord(),
					Start:      w.GetStartTime().AsDuration().Seconds(),
					End:        w.GetEndTime().AsDuration().Seconds(),
					Confidence: float64(w.GetConfidence()),
					SpeakerTag: int(w.GetSpeakerTag()),
				})
				words++
			}
			seg.Alternatives = append(seg.Alternatives, a)
		}
		if len(seg.Alternatives) > 0 {
			out.Segments = append(out.Segments, seg)
		}
	}

	if words == 0 {
		return nil, ErrNoSpeechDetected
	}
	return out, nil
}
