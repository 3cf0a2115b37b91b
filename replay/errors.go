package replay

import "fmt"

// FormatError reports a replay whose content cannot be read or whose key
// log contradicts itself.
type FormatError struct {
	Msg   string
	Index int
	Lane  int
	Time  int64
	Err   error
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if e.Time != 0 || e.Lane != 0 {
		msg = fmt.Sprintf("%s (lane %d, %dms)", msg, e.Lane, e.Time)
	} else if e.Index != 0 {
		msg = fmt.Sprintf("%s (entry %d)", msg, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("replay: %s: %v", msg, e.Err)
	}
	return "replay: " + msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
