package chart

const (
	channelBackground = "01"
	channelBeat       = "02"
	channelTempo      = "03"
	channelTempoRef   = "08"
	channelStopRef    = "09"
)

// Lane order: 16 is the scratch, 11-15 keys one to five, 18 and 19 keys six
// and seven. 17 is not a lane.
var noteChannels = map[string]int{
	"16": 0,
	"11": 1,
	"12": 2,
	"13": 3,
	"14": 4,
	"15": 5,
	"18": 6,
	"19": 7,
}

var longNoteChannels = map[string]int{
	"56": 0,
	"51": 1,
	"52": 2,
	"53": 3,
	"54": 4,
	"55": 5,
	"58": 6,
	"59": 7,
}

// ChannelForLane is the note channel code of lane.
func ChannelForLane(lane int) string {
	for ch, l := range noteChannels {
		if l == lane {
			return ch
		}
	}
	return ""
}
