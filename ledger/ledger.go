// Package ledger holds the types exchanged with the remote ledger gateway
// and the narrow interfaces through which the rest of the SDK reaches it.
//
// The interfaces are implemented by the nag package for the HTTP gateway;
// tests and alternative backends provide their own.
package ledger

import "context"

// TxTypeCertificate is the transaction type used for certificate submissions.
const TxTypeCertificate = "C_TYPE_CERTIFICATE"

// ActionCertificate is the payload action carried by certificate transactions.
const ActionCertificate = "CP_CERTIFICATE"

// Transaction is a signed transaction ready to be submitted to the gateway.
type Transaction struct {
	ID         string `json:"ID"`
	From       string `json:"From"`
	To         string `json:"To"`
	Timestamp  string `json:"Timestamp"`
	Payload    string `json:"Payload"`
	Nonce      string `json:"Nonce"`
	Signature  string `json:"Signature"`
	Blockchain string `json:"Blockchain"`
	Type       string `json:"Type"`
	Version    string `json:"Version"`
}

// SubmitResult pairs the transaction that was sent with the gateway's answer.
type SubmitResult struct {
	TxID    string
	Outcome *Outcome
}

// Querier looks up the current outcome of a transaction.
type Querier interface {
	GetTransaction(ctx context.Context, txID string) (*Outcome, error)
}

// QuerierFunc adapts a function to the Querier interface.
type QuerierFunc func(ctx context.Context, txID string) (*Outcome, error)

// GetTransaction calls f.
func (f QuerierFunc) GetTransaction(ctx context.Context, txID string) (*Outcome, error) {
	return f(ctx, txID)
}

// Submitter sends a signed transaction to the ledger.
type Submitter interface {
	AddTransaction(ctx context.Context, tx *Transaction) (*Outcome, error)
}
