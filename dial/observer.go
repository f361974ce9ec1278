package dial

// Phase is where a dial or calibration sweep currently is.
type Phase int

const (
	AwaitingStart Phase = iota
	Adjusting
	Responded
	Calibrating
)

func (p Phase) String() string {
	switch p {
	case AwaitingStart:
		return "awaiting start"
	case Adjusting:
		return "adjusting"
	case Responded:
		return "responded"
	case Calibrating:
		return "calibrating"
	}
	return "unknown"
}

// Observer lets a display layer follow progress without the dial knowing
// which one is attached.
type Observer interface {
	Phase(p Phase)
	Frequency(hz float64)
}

type nopObserver struct{}

func (nopObserver) Phase(Phase)       {}
func (nopObserver) Frequency(float64) {}
