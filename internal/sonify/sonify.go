// Package sonify maps changes in a tracked score to short musical cues on a
// pentatonic subset of C major.
package sonify

import (
	"fmt"
	"math"
	"math/rand"
)

// Scale is the pentatonic subset of C major used for every cue.
var Scale = [5]string{"C", "D", "E", "G", "A"}

// Rest is the note name used when nothing should sound.
const Rest = "R"

const (
	significantChange = 0.05
	minorChange       = 0.01
)

// Mood classifies a cue by the direction and size of the change.
type Mood string

const (
	MoodAscent  Mood = "ascent"
	MoodWarning Mood = "warning"
	MoodStable  Mood = "stable"
	MoodRest    Mood = "rest"
)

// Note is a single cue.
type Note struct {
	Note     string `json:"note" yaml:"note"`
	Octave   int    `json:"octave" yaml:"octave"`
	Duration string `json:"duration" yaml:"duration"`
	Message  string `json:"message" yaml:"message"`
	Mood     Mood   `json:"mood" yaml:"mood"`
}

// Pitch returns the note with its octave, e.g. "E5", or "R" for a rest.
func (n Note) Pitch() string {
	if n.Note == Rest {
		return Rest
	}
	return fmt.Sprintf("%s%d", n.Note, n.Octave)
}

// Metric maps delta, the change in the named metric, to a cue. Large rises
// pick E, G or A in octave 5; large falls sound a fixed C3; minor changes
// pick C, D or E in octave 4; anything smaller rests. Note choice draws only
// from src, so a seeded source gives repeatable cues. A nil src always picks
// the lowest candidate note. NaN deltas rest.
func Metric(name string, delta float64, src *rand.Rand) Note {
	switch {
	case delta > significantChange:
		return Note{
			Note:     Scale[2+pick(src, 3)],
			Octave:   5,
			Duration: "8n",
			Message:  fmt.Sprintf("Prophetic Ascent: High coherence detected in %s.", name),
			Mood:     MoodAscent,
		}
	case delta < -significantChange:
		return Note{
			Note:     "C",
			Octave:   3,
			Duration: "4n",
			Message:  fmt.Sprintf("Coherence Warning: Immediate stewardship required in %s.", name),
			Mood:     MoodWarning,
		}
	case math.Abs(delta) > minorChange:
		return Note{
			Note:     Scale[pick(src, 3)],
			Octave:   4,
			Duration: "16n",
			Message:  fmt.Sprintf("%s Stable.", name),
			Mood:     MoodStable,
		}
	default:
		return Note{
			Note:     Rest,
			Octave:   4,
			Duration: "4n",
			Message:  "System in Sabbath Vector.",
			Mood:     MoodRest,
		}
	}
}

// NewSource returns a deterministic source for seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func pick(src *rand.Rand, n int) int {
	if src == nil {
		return 0
	}
	return src.Intn(n)
}
