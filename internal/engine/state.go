package engine

// State is the lifecycle state of a generation run.
type State int32

const (
	StateInit State = iota
	StateSeeded
	StateSieving
	StateDone
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSeeded:
		return "seeded"
	case StateSieving:
		return "sieving"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s >= StateDone
}

// Stats are the running statistics of a generation.
type Stats struct {
	Found    uint64
	Target   uint64
	MaxPrime uint64
	// Sum wraps on overflow.
	Sum uint64
}

// Average returns Sum/Found, or 0 before the first prime.
func (s Stats) Average() float64 {
	if s.Found == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Found)
}
