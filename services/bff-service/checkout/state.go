package checkout

// State is the position of one checkout attempt.
type State string

const (
	StateIdle            State = "idle"
	StateSubmitting      State = "submitting"
	StateAwaitingPayment State = "awaiting_payment"
	StateVerifying       State = "verifying"
	StateCompleted       State = "completed"
	StateFailed          State = "failed"
	StateCancelled       State = "cancelled"
)

// IsTerminal reports whether no further transition can happen in this attempt.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func (s State) String() string {
	return string(s)
}

// allowed lists the legal successors of each state. Terminal states may only
// start a fresh attempt, which always passes through Submitting.
var allowed = map[State][]State{
	StateIdle:            {StateSubmitting},
	StateSubmitting:      {StateAwaitingPayment, StateFailed},
	StateAwaitingPayment: {StateVerifying, StateCancelled, StateFailed},
	StateVerifying:       {StateCompleted, StateFailed},
	StateCompleted:       {StateSubmitting},
	StateFailed:          {StateSubmitting},
	StateCancelled:       {StateSubmitting},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
