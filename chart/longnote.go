package chart

import (
	"fmt"
	"sort"

	"github.com/jsphweid/bmsdex/model"
)

type markerState struct {
	awaiting bool
	bar      int
	start    model.Note
}

func sortedNotes(notes []model.Note) []model.Note {
	res := make([]model.Note, len(notes))
	copy(res, notes)
	sort.Slice(res, func(i, j int) bool {
		return res[i].Timing.Less(res[j].Timing)
	})
	return res
}

// pairMarkers turns #LNTYPE 1 lane hits into long notes: hits alternate
// between opening and closing, walking the bars in order.
func pairMarkers(c *model.Chart, drafts map[int]*draft) {
	for lane := 0; lane < model.NumLanes; lane++ {
		var st markerState
		for _, b := range c.Bars {
			d, ok := drafts[b.Number]
			if !ok {
				continue
			}
			for _, m := range sortedNotes(d.markers[lane]) {
				if !st.awaiting {
					st = markerState{awaiting: true, bar: b.Number, start: m}
					continue
				}
				model.LayLongNote(c.Bar, lane, st.bar, st.start, b.Number, m)
				st = markerState{}
			}
		}
		if st.awaiting {
			model.LayOpenLongNote(c.Bars[st.bar], lane, st.start)
		}
	}
}

type noteRef struct {
	bar   int
	index int
}

// pairObjectEnds closes #LNOBJ long notes. Each end marker takes the most
// recent ordinary note of its lane as its head; that note stops being an
// ordinary note.
func pairObjectEnds(c *model.Chart, drafts map[int]*draft) {
	for lane := 0; lane < model.NumLanes; lane++ {
		var pending *noteRef
		removed := make(map[noteRef]bool)

		for _, b := range c.Bars {
			d, ok := drafts[b.Number]
			if !ok {
				continue
			}
			ends := sortedNotes(d.ends[lane])
			notes := b.Notes[lane]
			order := make([]int, len(notes))
			for i := range order {
				order[i] = i
			}
			sort.Slice(order, func(i, j int) bool {
				return notes[order[i]].Timing.Less(notes[order[j]].Timing)
			})

			i, j := 0, 0
			for i < len(order) || j < len(ends) {
				if j >= len(ends) || (i < len(order) && notes[order[i]].Timing.Less(ends[j].Timing)) {
					pending = &noteRef{bar: b.Number, index: order[i]}
					i++
					continue
				}
				end := ends[j]
				j++
				if pending == nil {
					model.LayOrphanEnd(b, lane, end)
					c.Warnings = append(c.Warnings, fmt.Sprintf(
						"bar %d lane %d: long note end at %s has no head", b.Number, lane, end.Timing))
					continue
				}
				head := c.Bars[pending.bar].Notes[lane][pending.index]
				model.LayLongNote(c.Bar, lane, pending.bar, head, b.Number, end)
				removed[*pending] = true
				pending = nil
			}
		}

		if len(removed) == 0 {
			continue
		}
		for _, b := range c.Bars {
			kept := b.Notes[lane][:0:0]
			for idx, n := range b.Notes[lane] {
				if !removed[noteRef{bar: b.Number, index: idx}] {
					kept = append(kept, n)
				}
			}
			b.Notes[lane] = kept
		}
	}
}
