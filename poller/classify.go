package poller

import (
	"strings"

	"github.com/pilacorp/go-certificate-sdk/ledger"
)

// Verdict is the classification of a single query attempt.
type Verdict int

const (
	// VerdictPending means the ledger has not resolved the transaction yet.
	VerdictPending Verdict = iota
	// VerdictSuccess means the transaction was included and executed.
	VerdictSuccess
	// VerdictRejected means the ledger will never accept the transaction.
	VerdictRejected
	// VerdictTransportError means the query itself failed.
	VerdictTransportError
)

func (v Verdict) String() string {
	switch v {
	case VerdictPending:
		return "pending"
	case VerdictSuccess:
		return "success"
	case VerdictRejected:
		return "rejected"
	case VerdictTransportError:
		return "transport-error"
	default:
		return "unknown"
	}
}

// Retryable reports whether polling should continue after this verdict.
func (v Verdict) Retryable() bool {
	return v == VerdictPending || v == VerdictTransportError
}

// Classifier maps the result of one query attempt to a Verdict. It is the
// single place where backend result codes are interpreted.
type Classifier func(out *ledger.Outcome, err error) Verdict

// DefaultClassifier interprets responses of the Circular gateway:
//   - a failed query or a missing outcome is a transport error
//   - a "not found" message is pending, whatever the result code
//   - result 200 with an object response is a success unless its Status is
//     Pending (pending) or Rejected/Failed/Invalid (rejected)
//   - result 200 with any other response is pending
//   - result 5xx is pending, the gateway may recover
//   - any other result code is a rejection
func DefaultClassifier(out *ledger.Outcome, err error) Verdict {
	if err != nil || out == nil {
		return VerdictTransportError
	}

	if msg, ok := out.Message(); ok && strings.Contains(strings.ToLower(msg), "not found") {
		return VerdictPending
	}

	switch {
	case out.Result == ledger.ResultOK:
		if _, ok := out.Fields(); !ok {
			return VerdictPending
		}
		status := out.Status()
		switch {
		case strings.EqualFold(status, ledger.StatusPending):
			return VerdictPending
		case strings.EqualFold(status, ledger.StatusRejected),
			strings.EqualFold(status, ledger.StatusFailed),
			strings.EqualFold(status, ledger.StatusInvalid):
			return VerdictRejected
		}
		return VerdictSuccess
	case out.Result >= 500:
		return VerdictPending
	default:
		return VerdictRejected
	}
}
