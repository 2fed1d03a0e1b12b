package poller

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pilacorp/go-certificate-sdk/ledger"
)

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name string
		out  *ledger.Outcome
		err  error
		want Verdict
	}{
		{name: "transport error", err: errors.New("dial tcp: refused"), want: VerdictTransportError},
		{name: "nil outcome", want: VerdictTransportError},
		{name: "not found message", out: ledger.NewMessageOutcome(200, ledger.MessageNotFound), want: VerdictPending},
		{name: "not found with other code", out: ledger.NewMessageOutcome(108, "Transaction not found"), want: VerdictPending},
		{name: "executed", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"Status":"Executed","BlockID":"1"}`)}, want: VerdictSuccess},
		{name: "object without status", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"BlockID":"1"}`)}, want: VerdictSuccess},
		{name: "pending status", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"Status":"Pending"}`)}, want: VerdictPending},
		{name: "pending status lowercase", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"Status":"pending"}`)}, want: VerdictPending},
		{name: "rejected status", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"Status":"Rejected"}`)}, want: VerdictRejected},
		{name: "failed status", out: &ledger.Outcome{Result: 200, Response: json.RawMessage(`{"Status":"Failed"}`)}, want: VerdictRejected},
		{name: "ok with other message", out: ledger.NewMessageOutcome(200, "Processing"), want: VerdictPending},
		{name: "ok without response", out: &ledger.Outcome{Result: 200}, want: VerdictPending},
		{name: "server error", out: ledger.NewMessageOutcome(500, "Internal Server Error"), want: VerdictPending},
		{name: "bad request", out: ledger.NewMessageOutcome(400, "Invalid Signature"), want: VerdictRejected},
		{name: "unknown code", out: &ledger.Outcome{Result: 117}, want: VerdictRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultClassifier(tt.out, tt.err))
		})
	}
}

func TestNext(t *testing.T) {
	timeout := 10 * time.Second

	tests := []struct {
		name      string
		elapsed   time.Duration
		verdict   Verdict
		wantState State
		wantDone  bool
	}{
		{name: "success before timeout", elapsed: 0, verdict: VerdictSuccess, wantState: StateConfirmed, wantDone: true},
		{name: "success at timeout", elapsed: timeout, verdict: VerdictSuccess, wantState: StateConfirmed, wantDone: true},
		{name: "rejected", elapsed: time.Second, verdict: VerdictRejected, wantState: StateRejected, wantDone: true},
		{name: "pending", elapsed: time.Second, verdict: VerdictPending, wantState: StatePending, wantDone: false},
		{name: "transport error", elapsed: time.Second, verdict: VerdictTransportError, wantState: StatePending, wantDone: false},
		{name: "pending at timeout", elapsed: timeout, verdict: VerdictPending, wantState: StateTimedOut, wantDone: true},
		{name: "transport error past timeout", elapsed: timeout + time.Second, verdict: VerdictTransportError, wantState: StateTimedOut, wantDone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, done := next(tt.elapsed, timeout, tt.verdict)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, tt.wantDone, state.Terminal())
		})
	}
}

func TestNextWait(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextWait(0, 10*time.Second, 2*time.Second))
	assert.Equal(t, time.Second, nextWait(9*time.Second, 10*time.Second, 2*time.Second))
	assert.Equal(t, time.Duration(0), nextWait(11*time.Second, 10*time.Second, 2*time.Second))
}

func TestQueryBudget(t *testing.T) {
	assert.Equal(t, 10*time.Second, queryBudget(0, 10*time.Second, 2*time.Second))
	assert.Equal(t, 3*time.Second, queryBudget(7*time.Second, 10*time.Second, 2*time.Second))
	assert.Equal(t, 2*time.Second, queryBudget(10*time.Second, 10*time.Second, 2*time.Second), "attempt at the deadline gets one interval")
	assert.Equal(t, 2*time.Second, queryBudget(12*time.Second, 10*time.Second, 2*time.Second))
	assert.Equal(t, 2*time.Second, queryBudget(2*time.Second, 2*time.Second, 30*time.Second), "capped by the timeout")
}

func TestVerdictRetryable(t *testing.T) {
	assert.True(t, VerdictPending.Retryable())
	assert.True(t, VerdictTransportError.Retryable())
	assert.False(t, VerdictSuccess.Retryable())
	assert.False(t, VerdictRejected.Retryable())
}

func TestWithClassifier(t *testing.T) {
	clock := newFakeClock()
	q := &scriptedQuerier{responses: []func() (*ledger.Outcome, error){outcome(&ledger.Outcome{Result: 42})}}
	p, err := New(q, WithClock(clock), WithClassifier(func(out *ledger.Outcome, err error) Verdict {
		if out != nil && out.Result == 42 {
			return VerdictSuccess
		}
		return VerdictPending
	}))
	assert.NoError(t, err)

	res, err := p.AwaitOutcome(t.Context(), "0xtx", 5, 1)
	assert.NoError(t, err)
	assert.Equal(t, StateConfirmed, res.State)
}
