// Package lifecycle implements the collection state machine of the
// recorder.
//
//	STOPPED ──Start──▶ READING_HEADER ──first tick──▶ COLLECTING
//	COLLECTING ──StopAfter(d>0)──▶ POST_COLLECTING ──d elapsed──▶ STOPPED
//	READING_HEADER ──StopAfter(d>0)──▶ COLLECTING ──▶ POST_COLLECTING
//	any ──Stop / disconnect──▶ STOPPED
package lifecycle

// State is the collection state.
type State int

const (
	Stopped State = iota
	PreCollecting
	Collecting
	PostCollecting
	ReadingHeader
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case PreCollecting:
		return "PRE_COLLECTING"
	case Collecting:
		return "COLLECTING"
	case PostCollecting:
		return "POST_COLLECTING"
	case ReadingHeader:
		return "READING_HEADER"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether snapshots are being collected in this state.
func (s State) Active() bool {
	return s != Stopped
}

// starting reports whether the state is entered before the first sample of
// a session is accepted.
func (s State) starting() bool {
	return s == ReadingHeader || s == PreCollecting
}
