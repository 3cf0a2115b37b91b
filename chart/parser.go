package chart

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/jsphweid/bmsdex/model"
	"github.com/jsphweid/bmsdex/rational"
	"github.com/pkg/errors"
)

// DefaultBPM is used when a chart never declares #BPM.
const DefaultBPM = 130.0

var reBar = regexp.MustCompile(`^#([0-9]{3})([0-9A-Za-z]{2}):(.*)$`)

var reToken = regexp.MustCompile(`^[0-9A-Za-z]*$`)

// draft holds what the directives of one bar contributed before long notes
// are put together.
type draft struct {
	bar     *model.Bar
	markers [model.NumLanes][]model.Note
	ends    [model.NumLanes][]model.Note
}

// Parser turns chart lines into a Chart. All state of one parse lives in
// the Parser, so independent charts can be parsed side by side.
type Parser struct {
	chart  *model.Chart
	drafts map[int]*draft
	maxBar int
	line   int
}

func NewParser() *Parser {
	c := model.NewChart()
	c.BPM = DefaultBPM
	return &Parser{
		chart:  c,
		drafts: make(map[int]*draft),
		maxBar: -1,
	}
}

// Parse reads a whole chart.
func Parse(r io.Reader) (*model.Chart, error) {
	p := NewParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := p.Line(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading chart")
	}
	return p.Finish()
}

func ParseString(s string) (*model.Chart, error) {
	return Parse(strings.NewReader(s))
}

// Line feeds a single line.
func (p *Parser) Line(text string) error {
	p.line++
	l := strings.TrimRight(text, " \t\r\n")
	l = strings.TrimPrefix(l, "\ufeff")
	if !strings.HasPrefix(l, "#") {
		return nil
	}

	if m := reBar.FindStringSubmatch(l); m != nil {
		number, _ := strconv.Atoi(m[1])
		return p.barDirective(number, strings.ToUpper(m[2]), strings.TrimSpace(m[3]))
	}

	key, value := splitHeader(l[1:])
	upper := strings.ToUpper(key)
	switch upper {
	case "TITLE":
		p.chart.Title = value
	case "GENRE":
		p.chart.Genre = value
	case "ARTIST":
		p.chart.Artist = value
	case "PLAYLEVEL":
		p.chart.PlayLevel = value
	case "BPM":
		bpm, err := parseTempo(value)
		if err != nil {
			return p.fail(l, err)
		}
		p.chart.BPM = bpm
	case "LNTYPE":
		// Only type 1 is modelled; other types are left alone.
		if value == "1" {
			p.chart.LongNoteMode = model.LongNoteMarkerPair
		}
	case "LNOBJ":
		id, err := decodeID(value)
		if err != nil {
			return p.fail(l, err)
		}
		p.chart.LongNoteMode = model.LongNoteObjectID
		p.chart.LongNoteObjects[id] = true
	default:
		return p.tableDirective(l, upper, value)
	}
	return nil
}

func (p *Parser) tableDirective(l, upper, value string) error {
	switch {
	case len(upper) == 5 && strings.HasPrefix(upper, "BPM"):
		id, err := decodeID(upper[3:])
		if err != nil {
			return p.fail(l, err)
		}
		bpm, err := parseTempo(value)
		if err != nil {
			return p.fail(l, err)
		}
		p.chart.TempoTable[id] = model.TempoDefinition{Order: id, BPM: bpm}
	case len(upper) == 5 && strings.HasPrefix(upper, "WAV"):
		id, err := decodeID(upper[3:])
		if err != nil {
			return p.fail(l, err)
		}
		p.chart.SampleTable[id] = model.SampleDefinition{Order: id, Resource: value}
	case len(upper) == 6 && strings.HasPrefix(upper, "STOP"):
		id, err := decodeID(upper[4:])
		if err != nil {
			return p.fail(l, err)
		}
		units, err := strconv.Atoi(value)
		if err != nil || units < 0 {
			return p.fail(l, errors.Wrapf(ErrBadValue, "stop length %q", value))
		}
		p.chart.StopTable[id] = model.StopDefinition{Order: id, Units: units}
	}
	return nil
}

func (p *Parser) draft(number int) *draft {
	d, ok := p.drafts[number]
	if !ok {
		d = &draft{bar: model.NewBar(number)}
		p.drafts[number] = d
		if number > p.maxBar {
			p.maxBar = number
		}
	}
	return d
}

func (p *Parser) barDirective(number int, channel, value string) error {
	directive := fmt.Sprintf("#%03d%s", number, channel)
	fail := func(err error) error {
		return &FormatError{Line: p.line, Directive: directive, Err: err}
	}

	if channel == channelBeat {
		beat, err := rational.ParseDecimal(value)
		if err != nil || beat.Sign() <= 0 {
			return fail(errors.Wrapf(ErrBadValue, "beat length %q", value))
		}
		p.draft(number).bar.Beat = beat
		return nil
	}

	lane, isNote := noteChannels[channel]
	lnLane, isLongNote := longNoteChannels[channel]
	known := isNote || isLongNote || channel == channelBackground ||
		channel == channelTempo || channel == channelTempoRef || channel == channelStopRef
	if !known {
		return nil
	}
	if isLongNote && p.chart.LongNoteMode != model.LongNoteMarkerPair {
		return fail(ErrLongNoteDisabled)
	}

	tokens, err := splitTokens(value)
	if err != nil {
		return fail(err)
	}
	d := p.draft(number)
	bar := d.bar

	switch {
	case isNote:
		for _, t := range tokens {
			id, err := decodeID(t.text)
			if err != nil {
				return fail(err)
			}
			if hasTiming(bar.Notes[lane], t.timing) || hasTiming(d.ends[lane], t.timing) {
				continue
			}
			n := model.Note{Timing: t.timing, Sample: id}
			if p.chart.LongNoteMode == model.LongNoteObjectID && p.chart.LongNoteObjects[id] {
				d.ends[lane] = append(d.ends[lane], n)
				continue
			}
			bar.Notes[lane] = append(bar.Notes[lane], n)
		}
	case isLongNote:
		for _, t := range tokens {
			id, err := decodeID(t.text)
			if err != nil {
				return fail(err)
			}
			if hasTiming(d.markers[lnLane], t.timing) {
				continue
			}
			d.markers[lnLane] = append(d.markers[lnLane], model.Note{Timing: t.timing, Sample: id})
		}
	case channel == channelBackground:
		for _, t := range tokens {
			id, err := decodeID(t.text)
			if err != nil {
				return fail(err)
			}
			bar.Background = append(bar.Background, model.Note{Timing: t.timing, Sample: id})
		}
	case channel == channelTempo:
		for _, t := range tokens {
			v, err := strconv.ParseInt(t.text, 16, 64)
			if err != nil {
				return fail(errors.Wrapf(ErrBadToken, "tempo %q", t.text))
			}
			p.addTempo(bar, model.TempoChangeEvent{Timing: t.timing, BPM: float64(v)})
		}
	case channel == channelTempoRef:
		for _, t := range tokens {
			id, err := decodeID(t.text)
			if err != nil {
				return fail(err)
			}
			def, ok := p.chart.TempoTable[id]
			if !ok {
				return fail(errors.Wrapf(ErrUndeclaredTempo, "%s", t.text))
			}
			p.addTempo(bar, model.TempoChangeEvent{Timing: t.timing, BPM: def.BPM})
		}
	case channel == channelStopRef:
		for _, t := range tokens {
			id, err := decodeID(t.text)
			if err != nil {
				return fail(err)
			}
			def, ok := p.chart.StopTable[id]
			if !ok {
				return fail(errors.Wrapf(ErrUndeclaredStop, "%s", t.text))
			}
			if hasStop(bar.Stops, t.timing) {
				continue
			}
			bar.Stops = append(bar.Stops, model.StopEvent{
				Timing:   t.timing,
				Duration: rational.New(int64(def.Units), 192),
			})
		}
	}
	return nil
}

// addTempo keeps the first tempo change seen at a timing. Dropping one with
// a different tempo leaves a warning on the chart.
func (p *Parser) addTempo(bar *model.Bar, ev model.TempoChangeEvent) {
	for _, existing := range bar.Tempo {
		if existing.Timing.Equal(ev.Timing) {
			if existing.BPM != ev.BPM {
				p.warnf("bar %d: tempo %g at %s dropped, %g already set", bar.Number, ev.BPM, ev.Timing, existing.BPM)
			}
			return
		}
	}
	bar.Tempo = append(bar.Tempo, ev)
}

func (p *Parser) warnf(format string, args ...interface{}) {
	p.chart.Warnings = append(p.chart.Warnings, fmt.Sprintf(format, args...))
}

func (p *Parser) fail(directive string, err error) error {
	if i := strings.IndexAny(directive, " \t"); i >= 0 {
		directive = directive[:i]
	}
	return &FormatError{Line: p.line, Directive: directive, Err: err}
}

// Finish fills the gaps between bars, pairs up long notes and sorts every
// lane. The parser must not be used afterwards.
func (p *Parser) Finish() (*model.Chart, error) {
	c := p.chart
	c.Bars = make([]*model.Bar, p.maxBar+1)
	for n := range c.Bars {
		if d, ok := p.drafts[n]; ok {
			c.Bars[n] = d.bar
			continue
		}
		c.Bars[n] = model.NewBar(n)
	}

	pairMarkers(c, p.drafts)
	pairObjectEnds(c, p.drafts)

	for _, b := range c.Bars {
		b.Sort()
	}
	return c, nil
}

type token struct {
	text   string
	timing rational.Rational
}

// splitTokens cuts value into two character tokens and drops the "00"
// placeholders. Token i of n sits at i/n.
func splitTokens(value string) ([]token, error) {
	if value == "" {
		return nil, nil
	}
	if len(value)%2 != 0 {
		return nil, errors.Wrapf(ErrOddLength, "%d characters", len(value))
	}
	if !reToken.MatchString(value) {
		return nil, errors.Wrapf(ErrBadToken, "%q", value)
	}
	length := len(value) / 2
	res := make([]token, 0, length)
	for i := 0; i < length; i++ {
		s := value[2*i : 2*(i+1)]
		if s == "00" {
			continue
		}
		res = append(res, token{text: s, timing: rational.New(int64(i), int64(length))})
	}
	return res, nil
}

func decodeID(s string) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, errors.Wrapf(ErrBadToken, "id %q", s)
	}
	v, err := strconv.ParseInt(s, 36, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrBadToken, "id %q", s)
	}
	return int(v), nil
}

func parseTempo(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, errors.Wrapf(ErrBadValue, "tempo %q", s)
	}
	return v, nil
}

func splitHeader(s string) (key, value string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func hasTiming(notes []model.Note, timing rational.Rational) bool {
	for _, n := range notes {
		if n.Timing.Equal(timing) {
			return true
		}
	}
	return false
}

func hasStop(stops []model.StopEvent, timing rational.Rational) bool {
	for _, s := range stops {
		if s.Timing.Equal(timing) {
			return true
		}
	}
	return false
}
