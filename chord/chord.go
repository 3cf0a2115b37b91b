package chord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/bmsdex/model"
)

// Lanes is the per-lane note timing a chart or replay is read from.
type Lanes interface {
	Lane(lane int) []float64
}

// Chord is the set of lanes hit at one instant.
type Chord struct {
	MS    float64
	Lanes []int
}

func (c Chord) Key() string {
	return CreateChordKey(c.Lanes)
}

// CreateChordKey names a lane set, lanes ascending and scratch as "S",
// such as "S-2-4".
func CreateChordKey(lanes []int) string {
	sorted := append([]int(nil), lanes...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for _, lane := range sorted {
		if lane == model.ScratchLane {
			parts = append(parts, "S")
			continue
		}
		parts = append(parts, fmt.Sprintf("%d", lane))
	}
	return strings.Join(parts, "-")
}

type hit struct {
	ms   float64
	lane int
}

// GetChords merges every lane into chords, ordered by time.
func GetChords(l Lanes) []Chord {
	var hits []hit
	for lane := 0; lane < model.NumLanes; lane++ {
		for _, ms := range l.Lane(lane) {
			hits = append(hits, hit{ms: ms, lane: lane})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].ms != hits[j].ms {
			return hits[i].ms < hits[j].ms
		}
		return hits[i].lane < hits[j].lane
	})

	var chords []Chord
	for _, h := range hits {
		if n := len(chords); n > 0 && chords[n-1].MS == h.ms {
			chords[n-1].Lanes = append(chords[n-1].Lanes, h.lane)
			continue
		}
		chords = append(chords, Chord{MS: h.ms, Lanes: []int{h.lane}})
	}
	return chords
}

// Shape counts how often each lane set occurs.
type Shape struct {
	Key   string
	Count int
}

// RankShapes counts chord shapes of at least minSize lanes, most frequent
// first and by key among equals.
func RankShapes(chords []Chord, minSize int) []Shape {
	counts := make(map[string]int)
	for _, c := range chords {
		if len(c.Lanes) >= minSize {
			counts[c.Key()]++
		}
	}
	res := make([]Shape, 0, len(counts))
	for k, n := range counts {
		res = append(res, Shape{Key: k, Count: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Key < res[j].Key
	})
	return res
}
