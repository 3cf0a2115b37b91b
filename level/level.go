package level

import (
	"fmt"
	"math"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/pkg/errors"
)

// ErrNoNotes is returned for a chart without a single key note.
var ErrNoNotes = errors.New("chart has no key notes")

// referenceInterval is the gap, in ms, that scores exactly one.
const referenceInterval = 200.0

// Lanes is the subset of a timeline the scorer reads.
type Lanes interface {
	Lane(lane int) []float64
}

// barLanes is implemented by lanes that know the bar each time came from,
// such as *timeline.Timeline.
type barLanes interface {
	LaneBars(lane int) []int
}

// Density scores how hard a chart is to read. Every note scores one when it
// has no predecessor and (200/gap)^2 otherwise. Key lanes take the previous
// note as predecessor; the scratch lane alternates between two hands, so a
// scratch note takes the one two places back. The sum is divided by the
// square root of the key note count.
func Density(tl Lanes) (float64, error) {
	keyNotes := 0
	for lane := 1; lane < model.NumLanes; lane++ {
		keyNotes += len(tl.Lane(lane))
	}
	if keyNotes == 0 {
		return 0, ErrNoNotes
	}

	total := 0.0
	for lane := 0; lane < model.NumLanes; lane++ {
		stride := 1
		if lane == model.ScratchLane {
			stride = 2
		}
		var bars []int
		if bl, ok := tl.(barLanes); ok {
			bars = bl.LaneBars(lane)
		}
		s, err := laneScore(lane, tl.Lane(lane), bars, stride)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total / math.Sqrt(float64(keyNotes)), nil
}

// laneScore sums the contributions of one lane. bars, when not nil, holds
// the bar of each time and is only used to report an error.
func laneScore(lane int, times []float64, bars []int, stride int) (float64, error) {
	score := 0.0
	for i, t := range times {
		if i < stride {
			score++
			continue
		}
		gap := t - times[i-stride]
		if gap <= 0 {
			bar := -1
			if i < len(bars) {
				bar = bars[i]
			}
			return 0, &timeline.IntegrityError{Bar: bar, Lane: lane, Value: fmt.Sprintf("note %d at %gms", i, t)}
		}
		score += math.Pow(referenceInterval/gap, 2)
	}
	return score, nil
}

// Stats summarizes a chart for indexing and reports.
type Stats struct {
	Level     float64
	Notes     int
	LongNotes int
	LengthMS  int64
}

// Measure builds the timeline of c and scores it.
func Measure(c *model.Chart) (Stats, error) {
	tl, err := timeline.Build(c)
	if err != nil {
		return Stats{}, err
	}
	lv, err := Density(tl)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Level:     lv,
		Notes:     c.NoteCount(),
		LongNotes: c.LongNoteCount(),
		LengthMS:  timeline.Round(tl.Length()),
	}, nil
}
