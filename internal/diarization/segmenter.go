// Package diarization turns word-level, speaker-tagged recognition output
// into contiguous per-speaker time segments.
package diarization

import (
	"errors"
	"strings"

	"github.com/callscribe/callscribe/internal/providers/stt"
)

// ErrNoSpeakerSegments means diarization could not separate any speaker.
// Terminal for the conversation.
var ErrNoSpeakerSegments = errors.New("no speaker segments found")

// SpeakerSegment is a maximal contiguous run of words attributed to one
// provider speaker tag.
type SpeakerSegment struct {
	SpeakerTag int
	Transcript string
	Start      float64
	End        float64
	Confidence float64 // running mean of constituent word confidences
	WordCount  int
}

type Output struct {
	Segments      []SpeakerSegment
	SpeakerCount  int
	TotalDuration float64 // max end time observed across all words
}

// Segment scans words chronologically, extending the current segment while
// the speaker tag matches and closing it on a tag change. Runs whose words
// never carry a positive speaker tag are dropped, not synthesized into a
// segment. Confidence is an unweighted running mean: later words move the
// average as much as earlier ones regardless of segment length.
func Segment(res *stt.Result) (*Output, error) {
	out := &Output{}
	tags := map[int]struct{}{}

	var cur *SpeakerSegment
	var curWords []string

	flush := func() {
		if cur == nil {
			return
		}
		if cur.SpeakerTag > 0 {
			cur.Transcript = strings.Join(curWords, " ")
			out.Segments = append(out.Segments, *cur)
			tags[cur.SpeakerTag] = struct{}{}
		}
		cur = nil
		curWords = nil
	}

	for _, seg := range res.Segments {
		best := seg.Best()
		if best == nil {
			continue
		}
		for _, w := range best.Words {
			if w.End > out.TotalDuration {
				out.TotalDuration = w.End
			}

			if cur != nil && cur.SpeakerTag == w.SpeakerTag {
				cur.End = w.End
				cur.WordCount++
				cur.Confidence += (w.Confidence - cur.Confidence) / float64(cur.WordCount)
				curWords = append(curWords, w.Text)
				continue
			}

			flush()
			cur = &SpeakerSegment{
				SpeakerTag: w.SpeakerTag,
				Start:      w.Start,
				End:        w.End,
				Confidence: w.Confidence,
				WordCount:  1,
			}
			curWords = append(curWords, w.Text)
		}
	}
	flush()

	if len(out.Segments) == 0 {
		return nil, ErrNoSpeakerSegments
	}
	out.SpeakerCount = len(tags)
	return out, nil
}
