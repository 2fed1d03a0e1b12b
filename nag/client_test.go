package nag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-certificate-sdk/common/config"
	"github.com/pilacorp/go-certificate-sdk/ledger"
)

// gateway is an httptest NAG that records the last request per endpoint.
type gateway struct {
	mu       sync.Mutex
	server   *httptest.Server
	requests map[string]map[string]any
	replies  map[string]any
	status   int
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	g := &gateway{
		requests: map[string]map[string]any{},
		replies:  map[string]any{},
		status:   http.StatusOK,
	}
	g.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Query().Get("cep")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		g.mu.Lock()
		defer g.mu.Unlock()
		g.requests[endpoint] = body

		if g.status != http.StatusOK {
			http.Error(w, "unavailable", g.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(g.replies[endpoint])
	}))
	t.Cleanup(g.server.Close)
	return g
}

func (g *gateway) reply(endpoint string, v any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[endpoint] = v
}

func (g *gateway) request(endpoint string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[endpoint]
}

func (g *gateway) nagURL() string {
	return g.server.URL + "/NAG.php?cep="
}

func newTestClient(t *testing.T, g *gateway) *Client {
	t.Helper()
	c, err := NewClient(
		WithConfig(config.New(config.Config{Blockchain: "0xchain", LibVersion: "1.0.13"})),
		WithNAGURL(g.nagURL()),
	)
	require.NoError(t, err)
	return c
}

func TestGetTransaction(t *testing.T) {
	g := newGateway(t)
	g.reply(EndpointGetTransactionByID, map[string]any{
		"Result":   200,
		"Response": map[string]any{"ID": "abc", "BlockID": "77", "Status": "Executed"},
	})
	c := newTestClient(t, g)

	out, err := c.GetTransaction(context.Background(), "0xabc")
	require.NoError(t, err)

	assert.True(t, out.IsOK())
	assert.Equal(t, "77", out.BlockID())

	req := g.request(EndpointGetTransactionByID)
	assert.Equal(t, "chain", req["Blockchain"])
	assert.Equal(t, "abc", req["ID"])
	assert.Equal(t, "0", req["Start"])
	assert.Equal(t, "10", req["End"])
	assert.Equal(t, "1.0.13", req["Version"])
}

func TestGetTransactionInBlock(t *testing.T) {
	g := newGateway(t)
	g.reply(EndpointGetTransactionByID, map[string]any{"Result": 200, "Response": map[string]any{"BlockID": "77"}})
	c := newTestClient(t, g)

	_, err := c.GetTransactionInBlock(context.Background(), "77", "abc")
	require.NoError(t, err)

	req := g.request(EndpointGetTransactionByID)
	assert.Equal(t, "77", req["Start"])
	assert.Equal(t, "77", req["End"])

	_, err = c.GetTransactionInBlock(context.Background(), "", "abc")
	assert.Error(t, err)
	_, err = c.GetTransaction(context.Background(), "")
	assert.Error(t, err)
}

func TestGetTransactionNotFound(t *testing.T) {
	g := newGateway(t)
	g.reply(EndpointGetTransactionByID, map[string]any{"Result": 200, "Response": ledger.MessageNotFound})
	c := newTestClient(t, g)

	out, err := c.GetTransactionByID(context.Background(), "abc", 5, 9)
	require.NoError(t, err)

	msg, ok := out.Message()
	require.True(t, ok)
	assert.Equal(t, ledger.MessageNotFound, msg)
	assert.Equal(t, "5", g.request(EndpointGetTransactionByID)["Start"])
}

func TestHTTPErrorStatus(t *testing.T) {
	g := newGateway(t)
	g.mu.Lock()
	g.status = http.StatusBadGateway
	g.mu.Unlock()
	c := newTestClient(t, g)

	_, err := c.GetTransaction(context.Background(), "abc")
	assert.ErrorContains(t, err, "502")
}

func TestGetWalletNonce(t *testing.T) {
	g := newGateway(t)
	g.reply(EndpointGetWalletNonce, map[string]any{"Result": 200, "Response": map[string]any{"Nonce": 41}})
	c := newTestClient(t, g)

	nonce, err := c.GetWalletNonce(context.Background(), "0xaddr")
	require.NoError(t, err)
	assert.Equal(t, int64(41), nonce)
	assert.Equal(t, "addr", g.request(EndpointGetWalletNonce)["Address"])

	_, err = c.GetWalletNonce(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyAddress)

	g.reply(EndpointGetWalletNonce, map[string]any{"Result": 118, "Response": "Wallet Not Found"})
	_, err = c.GetWalletNonce(context.Background(), "0xaddr")
	assert.ErrorContains(t, err, "Wallet Not Found")
}

func TestAddTransaction(t *testing.T) {
	g := newGateway(t)
	g.reply(EndpointAddTransaction, map[string]any{"Result": 200, "Response": map[string]any{"TxID": "abc"}})
	c := newTestClient(t, g)

	tx := &ledger.Transaction{
		ID:         "abc",
		From:       "from",
		To:         "from",
		Timestamp:  "2025:03:13-00:00:00",
		Payload:    "7b7d",
		Nonce:      "2",
		Signature:  "3045",
		Blockchain: "chain",
		Type:       ledger.TxTypeCertificate,
		Version:    "1.0.13",
	}
	out, err := c.AddTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, out.IsOK())

	req := g.request(EndpointAddTransaction)
	for key, want := range map[string]string{
		"ID": "abc", "From": "from", "To": "from", "Timestamp": "2025:03:13-00:00:00",
		"Payload": "7b7d", "Nonce": "2", "Signature": "3045", "Blockchain": "chain",
		"Type": ledger.TxTypeCertificate, "Version": "1.0.13",
	} {
		assert.Equal(t, want, req[key], key)
	}

	_, err = c.AddTransaction(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(WithNAGURL(""))
	assert.ErrorIs(t, err, ErrEmptyNAGURL)

	c, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultNAGURL, c.NAGURL())
	assert.Equal(t, config.DefaultBlockchain, c.Blockchain())

	other := c.WithNAGURL("http://other/?cep=").WithBlockchain("0x1")
	assert.Equal(t, "http://other/?cep=", other.NAGURL())
	assert.Equal(t, "0x1", other.Blockchain())
	assert.Equal(t, config.DefaultNAGURL, c.NAGURL(), "copies leave c untouched")
}

func TestResolver(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("network") {
		case "testnet":
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "success", "url": "https://nag.test/NAG.php?cep="})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Unsupported Network"})
		}
	}))
	defer server.Close()

	r := NewResolver(config.New(config.Config{NetworkURL: server.URL + "/getNAG?network="}))

	got, err := r.Resolve(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Equal(t, "https://nag.test/NAG.php?cep=", got)

	got, err = r.Resolve(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Equal(t, "https://nag.test/NAG.php?cep=", got)
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from cache")

	r.Forget("testnet")
	_, err = r.Resolve(context.Background(), "testnet")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	_, err = r.Resolve(context.Background(), "moonnet")
	assert.ErrorContains(t, err, "Unsupported Network")

	_, err = r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyNetwork)
}
