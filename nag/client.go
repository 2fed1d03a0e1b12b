// Package nag is an HTTP client for the network access gateway (NAG), the
// remote endpoint through which transactions are submitted and queried.
//
// Every gateway call is a POST of a JSON body to the gateway base URL with
// the endpoint name appended; the answer is {"Result": code, "Response": ...}
// and is returned as a ledger.Outcome.
package nag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/pilacorp/go-certificate-sdk/common/config"
	"github.com/pilacorp/go-certificate-sdk/common/util"
	"github.com/pilacorp/go-certificate-sdk/ledger"
)

// Gateway endpoint names.
const (
	EndpointGetTransactionByID = "Circular_GetTransactionbyID_"
	EndpointGetWalletNonce     = "Circular_GetWalletNonce_"
	EndpointAddTransaction     = "Circular_AddTransaction_"
)

// Default block window searched by GetTransaction.
const (
	DefaultStartBlock = 0
	DefaultEndBlock   = 10
)

var (
	// ErrEmptyNAGURL is returned when the client has no gateway URL.
	ErrEmptyNAGURL = errors.New("NAG URL is empty")
	// ErrEmptyAddress is returned when a wallet address is required but empty.
	ErrEmptyAddress = errors.New("wallet address is empty")
)

// Client talks to a single gateway for a single blockchain.
type Client struct {
	nagURL     string
	blockchain string
	version    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithConfig takes the gateway URL, blockchain, version and HTTP timeout from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		c.nagURL = cfg.NAGURL
		c.blockchain = cfg.Blockchain
		c.version = cfg.LibVersion
		c.timeout = cfg.HTTPTimeout
	}
}

// WithNAGURL sets the gateway base URL.
func WithNAGURL(nagURL string) Option {
	return func(c *Client) { c.nagURL = nagURL }
}

// WithBlockchain sets the target blockchain.
func WithBlockchain(blockchain string) Option {
	return func(c *Client) { c.blockchain = blockchain }
}

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a gateway client. Without options it targets the
// default gateway and blockchain of config.Default.
func NewClient(opts ...Option) (*Client, error) {
	cfg := config.Default()
	c := &Client{
		nagURL:     cfg.NAGURL,
		blockchain: cfg.Blockchain,
		version:    cfg.LibVersion,
		timeout:    cfg.HTTPTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.nagURL == "" {
		return nil, ErrEmptyNAGURL
	}
	return c, nil
}

// NAGURL returns the gateway base URL.
func (c *Client) NAGURL() string { return c.nagURL }

// Blockchain returns the target blockchain.
func (c *Client) Blockchain() string { return c.blockchain }

// WithNAGURL returns a copy of c bound to another gateway.
func (c *Client) WithNAGURL(nagURL string) *Client {
	cp := *c
	cp.nagURL = nagURL
	return &cp
}

// WithBlockchain returns a copy of c bound to another blockchain.
func (c *Client) WithBlockchain(blockchain string) *Client {
	cp := *c
	cp.blockchain = blockchain
	return &cp
}

type getTransactionRequest struct {
	Blockchain string `json:"Blockchain"`
	ID         string `json:"ID"`
	Start      string `json:"Start"`
	End        string `json:"End"`
	Version    string `json:"Version"`
}

type getWalletNonceRequest struct {
	Blockchain string `json:"Blockchain"`
	Address    string `json:"Address"`
	Version    string `json:"Version"`
}

// GetTransaction searches the default block window for txID. It implements
// ledger.Querier.
func (c *Client) GetTransaction(ctx context.Context, txID string) (*ledger.Outcome, error) {
	return c.GetTransactionByID(ctx, txID, DefaultStartBlock, DefaultEndBlock)
}

// GetTransactionByID searches blocks start..end for txID.
func (c *Client) GetTransactionByID(ctx context.Context, txID string, start, end int64) (*ledger.Outcome, error) {
	return c.getTransaction(ctx, txID, strconv.FormatInt(start, 10), strconv.FormatInt(end, 10))
}

// GetTransactionInBlock looks txID up in the given block only.
func (c *Client) GetTransactionInBlock(ctx context.Context, blockID, txID string) (*ledger.Outcome, error) {
	if blockID == "" {
		return nil, errors.New("block ID is empty")
	}
	return c.getTransaction(ctx, txID, blockID, blockID)
}

func (c *Client) getTransaction(ctx context.Context, txID, start, end string) (*ledger.Outcome, error) {
	if txID == "" {
		return nil, errors.New("transaction ID is empty")
	}
	return c.call(ctx, EndpointGetTransactionByID, getTransactionRequest{
		Blockchain: util.HexFix(c.blockchain),
		ID:         util.HexFix(txID),
		Start:      start,
		End:        end,
		Version:    c.version,
	})
}

// GetWalletNonce returns the current nonce of address.
func (c *Client) GetWalletNonce(ctx context.Context, address string) (int64, error) {
	if address == "" {
		return 0, ErrEmptyAddress
	}
	out, err := c.call(ctx, EndpointGetWalletNonce, getWalletNonceRequest{
		Blockchain: util.HexFix(c.blockchain),
		Address:    util.HexFix(address),
		Version:    c.version,
	})
	if err != nil {
		return 0, err
	}
	if !out.IsOK() {
		return 0, fmt.Errorf("failed to get wallet nonce: %s", out)
	}

	var resp struct {
		Nonce json.Number `json:"Nonce"`
	}
	if err := out.Decode(&resp); err != nil {
		return 0, err
	}
	nonce, err := resp.Nonce.Int64()
	if err != nil {
		return 0, fmt.Errorf("invalid nonce %q: %w", resp.Nonce, err)
	}
	return nonce, nil
}

// AddTransaction submits a signed transaction. It implements ledger.Submitter.
func (c *Client) AddTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.Outcome, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	return c.call(ctx, EndpointAddTransaction, tx)
}

// call posts body to endpoint and decodes the gateway answer. Only transport
// failures, non-200 HTTP statuses and undecodable bodies are errors; a
// gateway Result other than 200 is returned in the outcome.
func (c *Client) call(ctx context.Context, endpoint string, body any) (*ledger.Outcome, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nagURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("gateway returned non-200 status", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%s returned non-200 status: %s", endpoint, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", endpoint, err)
	}

	var out ledger.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}

	c.logger.Debug("gateway call", zap.String("endpoint", endpoint), zap.Int("result", out.Result))
	return &out, nil
}
