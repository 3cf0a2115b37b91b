package midi

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/timeline"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type noteEvent struct {
	tick uint64
	on   bool
	key  uint8
}

func notesOf(s *smf.SMF) []noteEvent {
	var res []noteEvent
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			var ch, key, vel uint8
			msg := midi.Message(ev.Message)
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				res = append(res, noteEvent{tick: abs, on: true, key: key})
			case msg.GetNoteEnd(&ch, &key):
				res = append(res, noteEvent{tick: abs, key: key})
			}
		}
	}
	return res
}

func exportText(t *testing.T, text string) *smf.SMF {
	t.Helper()
	c, err := chart.ParseString(text)
	if err != nil {
		t.Fatal(err)
	}
	tl, err := timeline.Build(c)
	if err != nil {
		t.Fatal(err)
	}
	s, err := ExportChart(c, tl)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExportChart(t *testing.T) {
	s := exportText(t, "#BPM 120\n#LNTYPE 1\n#00011:0101\n#00056:01000001\n")
	notes := notesOf(s)

	// 960 ticks per quarter at 120 BPM: 500ms is 960 ticks.
	assert := assert.New(t)
	assert.Len(notes, 6)
	assert.Contains(notes, noteEvent{tick: 0, on: true, key: 60})
	assert.Contains(notes, noteEvent{tick: 1920, on: true, key: 60})
	assert.Contains(notes, noteEvent{tick: 0, on: true, key: 36})
	assert.Contains(notes, noteEvent{tick: 2880, key: 36})
}

func TestExportReplay(t *testing.T) {
	s, err := ExportReplay(&model.ReplayRecord{
		SHA256: "abc",
		Keylog: []model.KeyInputEvent{
			{Lane: 0, Time: 0, Pressed: true},
			{Lane: 3, Time: 250, Pressed: true},
			{Lane: 0, Time: 500},
			{Lane: 3, Time: 260},
		},
	})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal([]noteEvent{
		{tick: 0, on: true, key: 36},
		{tick: 480, on: true, key: 64},
		{tick: 499, key: 64},
		{tick: 960, key: 36},
	}, notesOf(s))
}

func TestExportReplayRejectsBadLane(t *testing.T) {
	_, err := ExportReplay(&model.ReplayRecord{Keylog: []model.KeyInputEvent{{Lane: 9}}})

	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	s := exportText(t, "#BPM 120\n#00011:01010101\n")
	ex := Excerpt(s, 500*time.Millisecond, 3)
	notes := notesOf(ex)

	assert := assert.New(t)
	assert.Len(notes, 3)
	assert.Equal(noteEvent{tick: 0, on: true, key: 60}, notes[0])
	assert.Equal(s.TimeFormat, ex.TimeFormat)
}

func TestWriteAndRead(t *testing.T) {
	s := exportText(t, "#TITLE round trip\n#BPM 150\n#00015:01\n")
	path := filepath.Join(t.TempDir(), "out.mid")

	assert := assert.New(t)
	assert.NoError(s.WriteFile(path))
	back, err := Read(path)
	assert.NoError(err)
	assert.Equal(uint16(1), back.NumTracks())
	assert.Equal(notesOf(s), notesOf(back))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "none.mid"))

	assert.Error(t, err)
}

func TestQuantize(t *testing.T) {
	s := exportText(t, "#BPM 133\n#00011:0101\n")
	q, err := Quantize(s)

	assert := assert.New(t)
	assert.NoError(err)
	assert.NotEmpty(q.Tracks)
}
