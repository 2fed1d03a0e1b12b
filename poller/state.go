package poller

import "time"

// State is the position of an Await call in the confirmation state machine.
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateRejected
	StateTimedOut
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateRejected:
		return "rejected"
	case StateTimedOut:
		return "timed-out"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further polling happens from s.
func (s State) Terminal() bool {
	return s != StatePending
}

// next is the transition function of the poll loop. It depends only on the
// elapsed time and the verdict of the latest attempt; the returned bool is
// true when polling stops.
func next(elapsed, timeout time.Duration, v Verdict) (State, bool) {
	switch v {
	case VerdictSuccess:
		return StateConfirmed, true
	case VerdictRejected:
		return StateRejected, true
	}
	if elapsed >= timeout {
		return StateTimedOut, true
	}
	return StatePending, false
}

// nextWait returns the delay before the next attempt, never sleeping past
// the timeout.
func nextWait(elapsed, timeout, interval time.Duration) time.Duration {
	remaining := timeout - elapsed
	if remaining < interval {
		return max(remaining, 0)
	}
	return interval
}

// queryBudget bounds a single attempt. It is the time left before the
// timeout, but never less than min(interval, timeout), so the attempt made
// at the deadline still has room to reach the gateway.
func queryBudget(elapsed, timeout, interval time.Duration) time.Duration {
	return max(timeout-elapsed, min(interval, timeout))
}
