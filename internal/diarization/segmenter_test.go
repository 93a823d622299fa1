package diarization

import (
	"errors"
	"math"
	"testing"

	"github.com/callscribe/callscribe/internal/providers/stt"
)

func word(text string, start, end, conf float64, tag int) stt.Word {
	return stt.Word{Text: text, Start: start, End: end, Confidence: conf, SpeakerTag: tag}
}

func resultOf(words ...stt.Word) *stt.Result {
	return &stt.Result{
		Segments: []stt.Segment{
			{Alternatives: []stt.Alternative{{Words: words}}},
		},
	}
}

func TestSegmentAlternatingSpeakers(t *testing.T) {
	out, err := Segment(resultOf(
		word("hello", 0, 0.5, 0.9, 1),
		word("there", 0.5, 1.0, 0.9, 1),
		word("hi", 1.2, 1.5, 0.8, 2),
		word("back", 1.6, 2.0, 0.9, 1),
	))
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Segments) != 3 {
		t.Fatalf("segment count = %d, want 3", len(out.Segments))
	}
	if out.SpeakerCount != 2 {
		t.Fatalf("speaker count = %d, want 2", out.SpeakerCount)
	}
	if out.TotalDuration != 2.0 {
		t.Fatalf("total duration = %v, want 2.0", out.TotalDuration)
	}

	first := out.Segments[0]
	if first.SpeakerTag != 1 || first.Transcript != "hello there" {
		t.Fatalf("first segment = %+v", first)
	}
	if first.Start != 0 || first.End != 1.0 || first.WordCount != 2 {
		t.Fatalf("first segment bounds = %+v", first)
	}

	// a new run for an already seen speaker is a new segment
	if out.Segments[2].SpeakerTag != 1 || out.Segments[2].Transcript != "back" {
		t.Fatalf("third segment = %+v", out.Segments[2])
	}
}

func TestSegmentConfidenceRunningMean(t *testing.T) {
	out, err := Segment(resultOf(
		word("a", 0, 1, 0.6, 1),
		word("b", 1, 2, 0.8, 1),
		word("c", 2, 3, 1.0, 1),
	))
	if err != nil {
		t.Fatal(err)
	}
	got := out.Segments[0].Confidence
	if math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.8", got)
	}
}

func TestSegmentDropsUntaggedRuns(t *testing.T) {
	out, err := Segment(resultOf(
		word("noise", 0, 1, 0.5, 0),
		word("speech", 1, 2, 0.9, 1),
	))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Segments) != 1 || out.Segments[0].SpeakerTag != 1 {
		t.Fatalf("segments = %+v", out.Segments)
	}
	// the untagged word still counts toward total duration
	if out.TotalDuration != 2 {
		t.Fatalf("total duration = %v", out.TotalDuration)
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	_, err := Segment(&stt.Result{})
	if !errors.Is(err, ErrNoSpeakerSegments) {
		t.Fatalf("err = %v, want ErrNoSpeakerSegments", err)
	}

	_, err = Segment(resultOf(word("x", 0, 1, 0.5, 0)))
	if !errors.Is(err, ErrNoSpeakerSegments) {
		t.Fatalf("all-untagged err = %v, want ErrNoSpeakerSegments", err)
	}
}

func TestSegmentSpeakingTimeWithinTotal(t *testing.T) {
	out, err := Segment(resultOf(
		word("a", 0, 2, 0.9, 1),
		word("b", 2.5, 4, 0.9, 2),
		word("c", 4.5, 6, 0.9, 1),
	))
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, s := range out.Segments {
		sum += s.End - s.Start
	}
	if sum > out.TotalDuration {
		t.Fatalf("per-speaker sum %v exceeds total %v", sum, out.TotalDuration)
	}
}

func TestSegmentUsesTopAlternativeOnly(t *testing.T) {
	res := &stt.Result{
		Segments: []stt.Segment{
			{Alternatives: []stt.Alternative{
				{Confidence: 0.9, Words: []stt.Word{word("primary", 0, 1, 0.9, 1)}},
				{Confidence: 0.4, Words: []stt.Word{word("secondary", 0, 1, 0.4, 1)}},
			}},
		},
	}
	out, err := Segment(res)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Segments) != 1 || out.Segments[0].Transcript != "primary" {
		t.Fatalf("segments = %+v, want only the top-ranked alternative", out.Segments)
	}
}
