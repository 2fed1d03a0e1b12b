// Package poller confirms that a submitted transaction was resolved by the
// ledger. Submission and inclusion are not synchronous, so the poller queries
// the gateway repeatedly, waiting a fixed interval between attempts, until
// the transaction is confirmed, rejected, or the timeout elapses.
//
// Await never reports a slow or unreachable gateway as an error: it always
// returns a Result and callers inspect Result.State (or Outcome.Result).
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-certificate-sdk/ledger"
)

var (
	// ErrEmptyTxID is returned when Await is called without a transaction ID.
	ErrEmptyTxID = errors.New("transaction ID is empty")
	// ErrInvalidTiming is returned for a non-positive timeout or interval.
	ErrInvalidTiming = errors.New("timeout and interval must be positive")
	// ErrNilQuerier is returned by New when no querier is supplied.
	ErrNilQuerier = errors.New("querier is required")
)

// Result is the outcome of an Await call.
type Result struct {
	TxID string
	// Outcome is the last outcome seen. When no attempt reached the gateway
	// it is a locally built not-found outcome with ledger.ResultUnknown.
	Outcome *ledger.Outcome
	// State distinguishes a timeout from a rejection; both leave
	// Outcome.Result different from ledger.ResultOK.
	State    State
	Attempts int
	Elapsed  time.Duration
	// LastErr is the transport error of the last attempt, if any.
	LastErr error
}

// Confirmed reports whether the transaction was resolved successfully.
func (r *Result) Confirmed() bool {
	return r != nil && r.State == StateConfirmed
}

// Poller polls a ledger.Querier. It is safe for concurrent use; every Await
// call keeps its own timing state.
type Poller struct {
	querier  ledger.Querier
	classify Classifier
	clock    Clock
	logger   *zap.Logger
	metrics  *Metrics
}

// Option configures a Poller.
type Option func(*Poller)

// WithClassifier replaces DefaultClassifier.
func WithClassifier(c Classifier) Option {
	return func(p *Poller) {
		if c != nil {
			p.classify = c
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New creates a Poller reading transaction outcomes from q.
func New(q ledger.Querier, opts ...Option) (*Poller, error) {
	if q == nil {
		return nil, ErrNilQuerier
	}
	p := &Poller{
		querier:  q,
		classify: DefaultClassifier,
		clock:    SystemClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AwaitOutcome is Await with the timeout and interval given in seconds.
func (p *Poller) AwaitOutcome(ctx context.Context, txID string, timeoutSec, intervalSec int) (*Result, error) {
	return p.Await(ctx, txID, time.Duration(timeoutSec)*time.Second, time.Duration(intervalSec)*time.Second)
}

// Await queries the outcome of txID every interval until it is confirmed or
// rejected, or until timeout has elapsed.
//
// The only errors returned are ErrEmptyTxID, ErrInvalidTiming and the
// context error when ctx is done before a terminal state is reached; in the
// latter case the partial Result is returned as well.
func (p *Poller) Await(ctx context.Context, txID string, timeout, interval time.Duration) (*Result, error) {
	if txID == "" {
		return nil, ErrEmptyTxID
	}
	if timeout <= 0 || interval <= 0 {
		return nil, ErrInvalidTiming
	}

	log := p.logger.With(zap.String("txID", txID))
	res := &Result{TxID: txID, State: StatePending}
	start := p.clock.Now()

	for {
		res.Attempts++
		p.metrics.observeAttempt()

		out, err := p.query(ctx, txID, queryBudget(p.clock.Now().Sub(start), timeout, interval))
		verdict := p.classify(out, err)
		if out != nil {
			res.Outcome = out
		}
		res.LastErr = err
		res.Elapsed = p.clock.Now().Sub(start)

		log.Debug("polled transaction",
			zap.Int("attempt", res.Attempts),
			zap.Stringer("verdict", verdict),
			zap.Duration("elapsed", res.Elapsed),
			zap.Error(err),
		)

		state, done := next(res.Elapsed, timeout, verdict)
		if done {
			return p.finish(log, res, state), nil
		}

		if err := p.clock.Sleep(ctx, nextWait(res.Elapsed, timeout, interval)); err != nil {
			res.Elapsed = p.clock.Now().Sub(start)
			return p.finish(log, res, StateCanceled), err
		}
	}
}

// query runs one attempt bounded by budget.
func (p *Poller) query(ctx context.Context, txID string, budget time.Duration) (*ledger.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	qctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return p.querier.GetTransaction(qctx, txID)
}

func (p *Poller) finish(log *zap.Logger, res *Result, state State) *Result {
	res.State = state
	if res.Outcome == nil {
		res.Outcome = ledger.NewMessageOutcome(ledger.ResultUnknown, ledger.MessageNotFound)
	}
	p.metrics.observeResult(state, res.Elapsed)

	log.Info("transaction poll finished",
		zap.Stringer("state", state),
		zap.Int("attempts", res.Attempts),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("result", res.Outcome.Result),
	)
	return res
}

// AwaitAll awaits several transactions concurrently. Results are returned in
// the order of txIDs. If any call fails (invalid input or ctx done), the
// remaining calls are canceled and the first error is returned alongside the
// results gathered so far.
func (p *Poller) AwaitAll(ctx context.Context, txIDs []string, timeout, interval time.Duration) ([]*Result, error) {
	results := make([]*Result, len(txIDs))
	g, gctx := errgroup.WithContext(ctx)

	for i, txID := range txIDs {
		g.Go(func() error {
			res, err := p.Await(gctx, txID, timeout, interval)
			results[i] = res
			return err
		})
	}

	err := g.Wait()
	return results, err
}
