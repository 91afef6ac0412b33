package game

// State is where the controller is in the action lifecycle. Only one action
// runs at a time; dispatches outside Idle are rejected.
type State int

const (
	Idle State = iota
	Running                 // A handler is executing between prompts
	AwaitingPuzzleAnswer    // Suspended until the player answers or abandons
	AwaitingTimedCompletion // Suspended until the progress bar fills
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case AwaitingPuzzleAnswer:
		return "awaiting_puzzle_answer"
	case AwaitingTimedCompletion:
		return "awaiting_timed_completion"
	default:
		return "unknown"
	}
}
