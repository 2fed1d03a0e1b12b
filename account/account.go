// Package account is the high level entry point of the SDK. An Account is
// bound to one wallet address and one gateway; it keeps the wallet nonce,
// builds and signs certificate transactions, and confirms them through the
// poller.
package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pilacorp/go-certificate-sdk/certificate"
	"github.com/pilacorp/go-certificate-sdk/common/config"
	"github.com/pilacorp/go-certificate-sdk/common/util"
	"github.com/pilacorp/go-certificate-sdk/ledger"
	"github.com/pilacorp/go-certificate-sdk/nag"
	"github.com/pilacorp/go-certificate-sdk/poller"
	"github.com/pilacorp/go-certificate-sdk/signer"
)

var (
	// ErrAccountNotOpen is returned by operations that need an open account.
	ErrAccountNotOpen = errors.New("account is not open")
	// ErrNilCertificate is returned when submitting a nil certificate.
	ErrNilCertificate = errors.New("certificate is nil")
)

// Account holds the wallet state used to submit certificates. It is safe for
// concurrent use; submissions are serialized so that each one carries the
// next nonce.
type Account struct {
	mu sync.Mutex

	cfg      *config.Config
	client   *nag.Client
	resolver *nag.Resolver
	poller   *poller.Poller
	sign     signer.Func
	clock    poller.Clock
	metrics  *poller.Metrics
	logger   *zap.Logger

	address    string
	nonce      int64
	latestTxID string
}

// Option configures an Account.
type Option func(*Account)

// WithConfig sets the configuration used for the default gateway client,
// resolver and certificates.
func WithConfig(cfg *config.Config) Option {
	return func(a *Account) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

// WithClient sets the gateway client.
func WithClient(c *nag.Client) Option {
	return func(a *Account) { a.client = c }
}

// WithResolver sets the network resolver used by SetNetwork.
func WithResolver(r *nag.Resolver) Option {
	return func(a *Account) { a.resolver = r }
}

// WithPoller sets the poller used by GetTransactionOutcome. By default the
// account polls through its own gateway client.
func WithPoller(p *poller.Poller) Option {
	return func(a *Account) { a.poller = p }
}

// WithSigner replaces the signing function. The default is signer.SignData.
func WithSigner(f signer.Func) Option {
	return func(a *Account) {
		if f != nil {
			a.sign = f
		}
	}
}

// WithLogger sets the logger passed to every component the account builds.
func WithLogger(l *zap.Logger) Option {
	return func(a *Account) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records polling metrics of the default poller in m.
func WithMetrics(m *poller.Metrics) Option {
	return func(a *Account) { a.metrics = m }
}

// WithClock sets the clock used for transaction timestamps and polling.
func WithClock(c poller.Clock) Option {
	return func(a *Account) {
		if c != nil {
			a.clock = c
		}
	}
}

// New creates an Account. The account must be opened before use.
func New(opts ...Option) (*Account, error) {
	a := &Account{
		cfg:    config.Default(),
		sign:   signer.SignData,
		clock:  poller.SystemClock{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		client, err := nag.NewClient(nag.WithConfig(a.cfg), nag.WithLogger(a.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create gateway client: %w", err)
		}
		a.client = client
	}
	if a.resolver == nil {
		a.resolver = nag.NewResolver(a.cfg, nag.WithResolverLogger(a.logger))
	}
	if a.poller == nil {
		p, err := poller.New(
			ledger.QuerierFunc(a.queryTransaction),
			poller.WithClock(a.clock),
			poller.WithLogger(a.logger),
			poller.WithMetrics(a.metrics),
		)
		if err != nil {
			return nil, err
		}
		a.poller = p
	}
	return a, nil
}

// Open binds the account to address.
func (a *Account) Open(address string) error {
	if address == "" {
		return nag.ErrEmptyAddress
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.address = address
	return nil
}

// Close forgets the address, nonce and latest transaction.
func (a *Account) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.address = ""
	a.nonce = 0
	a.latestTxID = ""
}

// Address returns the open address, or "" when the account is closed.
func (a *Account) Address() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.address
}

// SetNetwork resolves network (e.g. "testnet") and switches the account to
// its gateway. It returns the gateway URL.
func (a *Account) SetNetwork(ctx context.Context, network string) (string, error) {
	nagURL, err := a.resolver.Resolve(ctx, network)
	if err != nil {
		return "", err
	}
	a.SetNAGURL(nagURL)
	a.logger.Info("network selected", zap.String("network", network), zap.String("nag_url", nagURL))
	return nagURL, nil
}

// SetNAGURL switches the account to another gateway.
func (a *Account) SetNAGURL(nagURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = a.client.WithNAGURL(nagURL)
}

// SetBlockchain switches the account to another blockchain.
func (a *Account) SetBlockchain(blockchain string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = a.client.WithBlockchain(blockchain)
}

// NAGURL returns the gateway the account talks to.
func (a *Account) NAGURL() string {
	return a.gateway().NAGURL()
}

// UpdateAccount refreshes the nonce from the gateway. The stored value is the
// nonce the next transaction will carry.
func (a *Account) UpdateAccount(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.address == "" {
		return ErrAccountNotOpen
	}

	nonce, err := a.client.GetWalletNonce(ctx, a.address)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	a.nonce = nonce + 1
	a.logger.Debug("account updated", zap.String("address", a.address), zap.Int64("nonce", a.nonce))
	return nil
}

// Nonce returns the nonce of the next transaction.
func (a *Account) Nonce() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nonce
}

// LatestTxID returns the ID of the last accepted submission.
func (a *Account) LatestTxID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latestTxID
}

// SignData signs message with privateKey using the configured signer. Signers
// that hold their own key ignore privateKey.
func (a *Account) SignData(message, privateKey string) (string, error) {
	return a.sign(message, privateKey)
}

// SubmitCertificate wraps data in a new certificate and submits it.
func (a *Account) SubmitCertificate(ctx context.Context, data, privateKey string) (*ledger.SubmitResult, error) {
	cert := certificate.New(certificate.WithConfig(a.cfg))
	cert.SetData(data)
	return a.SubmitChainedCertificate(ctx, cert, privateKey)
}

// SubmitChainedCertificate submits an already built certificate, typically
// one obtained from Certificate.Next. On acceptance the latest transaction ID
// is recorded and the nonce advanced; a gateway refusal is an error.
func (a *Account) SubmitChainedCertificate(ctx context.Context, cert *certificate.Certificate, privateKey string) (*ledger.SubmitResult, error) {
	if cert == nil {
		return nil, ErrNilCertificate
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.address == "" {
		return nil, ErrAccountNotOpen
	}

	tx, err := a.buildTransaction(cert, privateKey)
	if err != nil {
		return nil, err
	}

	out, err := a.client.AddTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to submit certificate: %w", err)
	}
	if !out.IsOK() {
		a.logger.Warn("certificate refused", zap.String("tx_id", tx.ID), zap.Stringer("outcome", out))
		return nil, fmt.Errorf("certificate submission refused: %s", out)
	}

	a.latestTxID = tx.ID
	a.nonce++
	a.logger.Info("certificate submitted", zap.String("tx_id", tx.ID), zap.String("nonce", tx.Nonce))
	return &ledger.SubmitResult{TxID: tx.ID, Outcome: out}, nil
}

type certificatePayload struct {
	Action string `json:"Action"`
	Data   string `json:"Data"`
}

// buildTransaction must be called with a.mu held.
func (a *Account) buildTransaction(cert *certificate.Certificate, privateKey string) (*ledger.Transaction, error) {
	certJSON, err := cert.GetJSONCertificate()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(certificatePayload{
		Action: ledger.ActionCertificate,
		Data:   util.StringToHex(certJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal certificate payload: %w", err)
	}

	from := util.HexFix(a.address)
	tx := &ledger.Transaction{
		From:       from,
		To:         from,
		Timestamp:  util.FormattedTimestamp(a.clock.Now()),
		Payload:    util.StringToHex(string(payload)),
		Nonce:      strconv.FormatInt(a.nonce, 10),
		Blockchain: util.HexFix(a.client.Blockchain()),
		Type:       ledger.TxTypeCertificate,
		Version:    a.cfg.LibVersion,
	}
	tx.ID = TransactionID(tx)

	tx.Signature, err = a.sign(tx.ID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return tx, nil
}

// TransactionID returns the hex SHA-256 of the fields that identify tx.
func TransactionID(tx *ledger.Transaction) string {
	sum := sha256.Sum256([]byte(tx.Blockchain + tx.From + tx.To + tx.Payload + tx.Nonce + tx.Timestamp))
	return hex.EncodeToString(sum[:])
}

// GetTransaction looks txID up in block blockID.
func (a *Account) GetTransaction(ctx context.Context, blockID, txID string) (*ledger.Outcome, error) {
	return a.gateway().GetTransactionInBlock(ctx, blockID, txID)
}

// GetTransactionByID searches blocks start..end for txID.
func (a *Account) GetTransactionByID(ctx context.Context, txID string, start, end int64) (*ledger.Outcome, error) {
	return a.gateway().GetTransactionByID(ctx, txID, start, end)
}

// GetTransactionOutcome polls for txID until it is resolved or timeoutSec
// elapses, querying every intervalSec seconds.
func (a *Account) GetTransactionOutcome(ctx context.Context, txID string, timeoutSec, intervalSec int) (*poller.Result, error) {
	return a.poller.AwaitOutcome(ctx, txID, timeoutSec, intervalSec)
}

// AwaitTransactionOutcome is GetTransactionOutcome with sub-second timing.
func (a *Account) AwaitTransactionOutcome(ctx context.Context, txID string, timeout, interval time.Duration) (*poller.Result, error) {
	return a.poller.Await(ctx, txID, timeout, interval)
}

func (a *Account) gateway() *nag.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

func (a *Account) queryTransaction(ctx context.Context, txID string) (*ledger.Outcome, error) {
	return a.gateway().GetTransaction(ctx, txID)
}
