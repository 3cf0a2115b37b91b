package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, lines ...string) *model.Chart {
	t.Helper()
	c, err := ParseString(strings.Join(lines, "\n"))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func note(num, den int64, sample int) model.Note {
	return model.Note{Timing: rational.New(num, den), Sample: sample}
}

func TestHeaders(t *testing.T) {
	c := parse(t,
		"\ufeff#TITLE Some Song [ANOTHER]",
		"#ARTIST someone",
		"#GENRE TRANCE",
		"#PLAYLEVEL 12",
		"not a directive",
		"#TITLE Some Song [HYPER]",
	)

	assert := assert.New(t)
	assert.Equal("Some Song [HYPER]", c.Title)
	assert.Equal("someone", c.Artist)
	assert.Equal("TRANCE", c.Genre)
	assert.Equal("12", c.PlayLevel)
	assert.Equal(DefaultBPM, c.BPM)
	assert.Empty(c.Bars)
}

func TestTables(t *testing.T) {
	c := parse(t, "#BPM 155.5", "#BPM0A 310", "#WAV01 kick.wav", "#STOPzz 48")

	assert := assert.New(t)
	assert.Equal(155.5, c.BPM)
	assert.Equal(model.TempoDefinition{Order: 10, BPM: 310}, c.TempoTable[10])
	assert.Equal("kick.wav", c.SampleTable[1].Resource)
	assert.Equal(48, c.StopTable[1295].Units)
}

func TestBarsAreGapFilled(t *testing.T) {
	c := parse(t, "#00211:01", "#00511:01", "#00911:01")

	assert := assert.New(t)
	assert.Len(c.Bars, 10)
	for i, b := range c.Bars {
		assert.Equal(i, b.Number)
		assert.True(rational.One.Equal(b.Beat))
	}
	assert.True(c.Bars[3].IsEmpty())
	assert.False(c.Bars[5].IsEmpty())
}

func TestFirstTimingWins(t *testing.T) {
	c := parse(t, "#00111:0100", "#00111:0202", "#00101:01", "#00101:01")

	assert := assert.New(t)
	assert.Equal([]model.Note{note(0, 1, 1), note(1, 2, 2)}, c.Bars[1].Notes[1])
	assert.Len(c.Bars[1].Background, 2)
}

func TestLaneMapping(t *testing.T) {
	c := parse(t, "#00016:01", "#00011:02", "#00015:03", "#00018:04", "#00019:05", "#00017:06")

	assert := assert.New(t)
	assert.Equal(1, c.Bars[0].Notes[0][0].Sample)
	assert.Equal(2, c.Bars[0].Notes[1][0].Sample)
	assert.Equal(3, c.Bars[0].Notes[5][0].Sample)
	assert.Equal(4, c.Bars[0].Notes[6][0].Sample)
	assert.Equal(5, c.Bars[0].Notes[7][0].Sample)
	assert.Equal(5, c.NoteCount())
}

func TestBeatAndTempo(t *testing.T) {
	c := parse(t, "#BPM01 150", "#00102:0.75", "#00003:0078", "#00008:01", "#00003:C8")

	assert := assert.New(t)
	assert.Equal(rational.New(3, 4), c.Bars[1].Beat)
	assert.Equal([]model.TempoChangeEvent{
		{Timing: rational.New(0, 1), BPM: 150},
		{Timing: rational.New(1, 2), BPM: 120},
	}, c.Bars[0].Tempo)
	// The literal 200 at position 0 lost to the table tempo.
	assert.Len(c.Warnings, 1)
}

func TestStops(t *testing.T) {
	c := parse(t, "#STOP01 192", "#STOP02 96", "#00009:0102", "#00009:02")

	assert := assert.New(t)
	assert.Equal([]model.StopEvent{
		{Timing: rational.Zero, Duration: rational.One},
		{Timing: rational.New(1, 2), Duration: rational.New(1, 2)},
	}, c.Bars[0].Stops)
}

func TestFormatErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
		line int
	}{
		{"odd length", "#TITLE x\n#00111:010", ErrOddLength, 2},
		{"bad token", "#00111:0!", ErrBadToken, 1},
		{"undeclared tempo", "#00108:01", ErrUndeclaredTempo, 1},
		{"undeclared stop", "#00109:01", ErrUndeclaredStop, 1},
		{"long note lane without lntype", "#00151:01", ErrLongNoteDisabled, 1},
		{"long note lane under lnobj", "#LNOBJ ZZ\n#00151:01", ErrLongNoteDisabled, 2},
		{"bad beat", "#00102:abc", ErrBadValue, 1},
		{"zero beat", "#00102:0", ErrBadValue, 1},
		{"zero tempo", "#BPM 0", ErrBadValue, 1},
		{"bad literal tempo", "#00003:GG", ErrBadToken, 1},
		{"negative stop", "#STOP01 -5", ErrBadValue, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString(tc.text)
			assert := assert.New(t)
			assert.ErrorIs(err, tc.want)

			var ferr *FormatError
			if assert.True(errors.As(err, &ferr)) {
				assert.Equal(tc.line, ferr.Line)
			}
		})
	}
}

func TestUnknownChannelIgnored(t *testing.T) {
	c := parse(t, "#00117:01", "#001A1:zz")

	assert.Empty(t, c.Bars)
}

func TestMarkerPairLongNotes(t *testing.T) {
	c := parse(t, "#LNTYPE 1", "#00051:01000101")

	assert.Equal(t, []model.LongNoteSegment{
		model.StartSegment(rational.Zero, 1),
		model.SpanSegment(rational.Zero, rational.New(1, 2), true, true),
		model.EndSegment(rational.New(1, 2), 1),
		model.StartSegment(rational.New(3, 4), 1),
		model.SpanSegment(rational.New(3, 4), rational.One, true, false),
	}, c.Bars[0].LongNotes[1])
}

func TestMarkerPairAcrossBars(t *testing.T) {
	c := parse(t, "#LNTYPE 1", "#00056:01", "#00256:0002")

	assert := assert.New(t)
	assert.Equal([]model.LongNoteSegment{
		model.StartSegment(rational.Zero, 1),
		model.SpanSegment(rational.Zero, rational.One, true, false),
	}, c.Bars[0].LongNotes[0])
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.One, false, false),
	}, c.Bars[1].LongNotes[0])
	assert.True(c.Bars[1].LongNotes[0][0].IsContinuation())
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.New(1, 2), false, true),
		model.EndSegment(rational.New(1, 2), 2),
	}, c.Bars[2].LongNotes[0])
	assert.Equal(1, c.LongNoteCount())
}

func TestObjectIDLongNotes(t *testing.T) {
	c := parse(t, "#LNOBJ ZZ", "#00011:0102", "#00111:00ZZ")

	assert := assert.New(t)
	assert.Equal([]model.Note{note(0, 1, 1)}, c.Bars[0].Notes[1])
	assert.Equal([]model.LongNoteSegment{
		model.StartSegment(rational.New(1, 2), 2),
		model.SpanSegment(rational.New(1, 2), rational.One, true, false),
	}, c.Bars[0].LongNotes[1])
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.New(1, 2), false, true),
		model.EndSegment(rational.New(1, 2), 1295),
	}, c.Bars[1].LongNotes[1])
	assert.Equal(2, c.NoteCount())
	assert.Empty(c.Warnings)
}

func TestObjectIDOrphanEnd(t *testing.T) {
	c := parse(t, "#LNOBJ ZZ", "#00013:00ZZ")

	assert := assert.New(t)
	assert.Empty(c.Bars[0].Notes[3])
	assert.Equal([]model.LongNoteSegment{
		model.SpanSegment(rational.Zero, rational.New(1, 2), false, true),
		model.EndSegment(rational.New(1, 2), 1295),
	}, c.Bars[0].LongNotes[3])
	assert.Len(c.Warnings, 1)
}

func TestParserKeepsNoGlobalState(t *testing.T) {
	first := parse(t, "#LNTYPE 1", "#00051:0101")
	second := parse(t, "#00011:01")

	assert := assert.New(t)
	assert.Equal(model.LongNoteMarkerPair, first.LongNoteMode)
	assert.Equal(model.LongNoteDisabled, second.LongNoteMode)
}

func TestDecodeShiftJIS(t *testing.T) {
	// "#TITLE テスト" in Shift_JIS.
	raw := []byte{'#', 'T', 'I', 'T', 'L', 'E', ' ', 0x83, 0x65, 0x83, 0x58, 0x83, 0x67}
	c, err := ParseBytes(raw, EncodingAuto)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("テスト", c.Title)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does/not/exist.bms", EncodingAuto)

	var lerr *LoadError
	assert.True(t, errors.As(err, &lerr))
	var ferr *FormatError
	assert.False(t, errors.As(err, &ferr))
}
