package session

// State is the lifecycle position of an edit session.
type State int

const (
	Idle State = iota
	Extracting
	Editing
	Embedding
	Cleaning
	Terminated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Extracting:
		return "Extracting"
	case Editing:
		return "Editing"
	case Embedding:
		return "Embedding"
	case Cleaning:
		return "Cleaning"
	case Terminated:
		return "Terminated"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Terminated || s == Failed
}
