package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result codes reported by the gateway.
const (
	// ResultOK marks a successful gateway call.
	ResultOK = 200
	// ResultUnknown is used for outcomes synthesized locally when the gateway
	// never answered.
	ResultUnknown = 0
)

// Well-known transaction status values found in the Status field of a
// successful query response.
const (
	StatusPending  = "Pending"
	StatusExecuted = "Executed"
	StatusRejected = "Rejected"
	StatusFailed   = "Failed"
	StatusInvalid  = "Invalid"
)

// MessageNotFound is the plain-text response of a query for a transaction
// the ledger has not seen yet.
const MessageNotFound = "Transaction Not Found"

// Outcome is the gateway's answer to a transaction query or submission: a
// result code and an opaque response, usually an object carrying ledger
// assigned fields such as BlockID, sometimes a plain message.
type Outcome struct {
	Result   int             `json:"Result"`
	Response json.RawMessage `json:"Response,omitempty"`
}

// NewMessageOutcome builds an outcome whose response is a plain message.
func NewMessageOutcome(result int, message string) *Outcome {
	raw, _ := json.Marshal(message)
	return &Outcome{Result: result, Response: raw}
}

// IsOK reports whether the gateway returned ResultOK.
func (o *Outcome) IsOK() bool {
	return o != nil && o.Result == ResultOK
}

// Fields decodes the response as a JSON object. The second return value is
// false when the response is absent or not an object.
func (o *Outcome) Fields() (map[string]any, bool) {
	if o == nil || len(o.Response) == 0 {
		return nil, false
	}
	trimmed := bytes.TrimSpace(o.Response)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// Message returns the response when it is a plain JSON string.
func (o *Outcome) Message() (string, bool) {
	if o == nil || len(o.Response) == 0 {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(o.Response, &msg); err != nil {
		return "", false
	}
	return msg, true
}

// Status returns the Status field of an object response.
func (o *Outcome) Status() string {
	return o.field("Status")
}

// BlockID returns the BlockID field of an object response.
func (o *Outcome) BlockID() string {
	return o.field("BlockID")
}

// TxID returns the ID field of an object response.
func (o *Outcome) TxID() string {
	return o.field("ID")
}

// Decode unmarshals the response into v.
func (o *Outcome) Decode(v any) error {
	if o == nil || len(o.Response) == 0 {
		return fmt.Errorf("outcome has no response")
	}
	if err := json.Unmarshal(o.Response, v); err != nil {
		return fmt.Errorf("failed to decode outcome response: %w", err)
	}
	return nil
}

func (o *Outcome) field(name string) string {
	fields, ok := o.Fields()
	if !ok {
		return ""
	}
	switch v := fields[name].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// String renders the outcome for logs and CLI output.
func (o *Outcome) String() string {
	if o == nil {
		return "<nil>"
	}
	if len(o.Response) == 0 {
		return fmt.Sprintf("Result=%d", o.Result)
	}
	return fmt.Sprintf("Result=%d Response=%s", o.Result, string(o.Response))
}
