package model

type KeyInputEvent struct {
	Lane    int
	Time    int64
	Pressed bool
}

type RandomOption int

const (
	RandomNormal RandomOption = 0
	RandomMirror RandomOption = 1
	RandomRandom RandomOption = 2
)

func (o RandomOption) String() string {
	switch o {
	case RandomNormal:
		return "normal"
	case RandomMirror:
		return "mirror"
	case RandomRandom:
		return "random"
	}
	return "unsupported"
}

type ReplayRecord struct {
	SHA256       string
	RandomOption RandomOption
	Keylog       []KeyInputEvent
	// Pattern holds the per-lane mapping blocks, only set for RandomRandom.
	Pattern [][]int
	// Skipped counts keylog entries whose keycode maps to no lane.
	Skipped int
}
