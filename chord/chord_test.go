package chord

import (
	"testing"

	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/stretchr/testify/assert"
)

type fakeLanes map[int][]float64

func (f fakeLanes) Lane(lane int) []float64 {
	return f[lane]
}

func TestCreateChordKey(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("1-3-5", CreateChordKey([]int{5, 1, 3}))
	assert.Equal("S-7", CreateChordKey([]int{7, 0}))
	assert.Equal("", CreateChordKey(nil))
}

func TestCreateChordKeyLeavesInputAlone(t *testing.T) {
	lanes := []int{4, 2}
	CreateChordKey(lanes)
	assert.Equal(t, []int{4, 2}, lanes)
}

func TestGetChords(t *testing.T) {
	chords := GetChords(fakeLanes{
		0: {500},
		1: {0, 500},
		3: {0},
		7: {1000},
	})

	assert := assert.New(t)
	if assert.Len(chords, 3) {
		assert.Equal(Chord{MS: 0, Lanes: []int{1, 3}}, chords[0])
		assert.Equal(Chord{MS: 500, Lanes: []int{0, 1}}, chords[1])
		assert.Equal("7", chords[2].Key())
	}
}

func TestRankShapes(t *testing.T) {
	chords := []Chord{
		{MS: 0, Lanes: []int{1, 3}},
		{MS: 1, Lanes: []int{2}},
		{MS: 2, Lanes: []int{3, 1}},
		{MS: 3, Lanes: []int{2, 4}},
	}

	assert := assert.New(t)
	assert.Equal([]Shape{{"1-3", 2}, {"2-4", 1}}, RankShapes(chords, 2))
	assert.Equal([]Shape{{"1-3", 2}, {"2", 1}, {"2-4", 1}}, RankShapes(chords, 1))
}

func TestChordsOfChart(t *testing.T) {
	c, err := chart.ParseString("#BPM 120\n#00011:0101\n#00013:01\n#00016:0001\n")
	if err != nil {
		t.Fatal(err)
	}
	tl, err := timeline.Build(c)
	if err != nil {
		t.Fatal(err)
	}

	chords := GetChords(tl)
	assert := assert.New(t)
	if assert.Len(chords, 2) {
		assert.Equal("1-3", chords[0].Key())
		assert.Equal(1000.0, chords[1].MS)
		assert.Equal("S-1", chords[1].Key())
	}
}
