package main

import (
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pilacorp/go-certificate-sdk/account"
	"github.com/pilacorp/go-certificate-sdk/certificate"
	"github.com/pilacorp/go-certificate-sdk/nag"
	"github.com/pilacorp/go-certificate-sdk/poller"
	"github.com/pilacorp/go-certificate-sdk/signer"
)

func encodeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <data>",
		Short: "Prints the certificate JSON wrapping data",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cert := certificate.New(certificate.WithConfig(sdkConfig(a.v)))
			cert.SetData(args[0])
			out, err := cert.GetJSONCertificate()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), out)
			return err
		},
	}
}

func sizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size <data>",
		Short: "Prints the size in bytes of the certificate wrapping data",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cert := certificate.New(certificate.WithConfig(sdkConfig(a.v)))
			cert.SetData(args[0])
			_, err := fmt.Fprintln(c.OutOrStdout(), cert.GetCertificateSize())
			return err
		},
	}
}

func resolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <network>",
		Short: "Prints the gateway URL of a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			r := nag.NewResolver(sdkConfig(a.v), nag.WithResolverLogger(a.logger))
			nagURL, err := r.Resolve(c.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), nagURL)
			return err
		},
	}
}

func submitCommand(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "submit <data>",
		Short: "Submits a certificate wrapping data",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			key := a.v.GetString(KeyKey)
			sign, err := a.remoteSigner()
			if err != nil {
				return err
			}
			if key == "" && sign == nil {
				return errMissingKey
			}

			reg := prometheus.NewRegistry()
			metrics, err := poller.NewMetrics(metricsNamespace, reg)
			if err != nil {
				return err
			}

			acc, err := a.openAccount(c, account.WithSigner(sign), account.WithMetrics(metrics))
			if err != nil {
				return err
			}
			defer acc.Close()

			sub, err := acc.SubmitCertificate(c.Context(), args[0], key)
			if err != nil {
				return err
			}
			if !a.v.GetBool(WaitKey) {
				_, err = fmt.Fprintln(c.OutOrStdout(), sub.TxID)
				return err
			}

			res, err := acc.AwaitTransactionOutcome(c.Context(), sub.TxID, a.v.GetDuration(TimeoutKey), a.v.GetDuration(IntervalKey))
			if err != nil {
				return err
			}
			if err := a.writeMetrics(reg); err != nil {
				return err
			}
			return a.printResult(c, res)
		},
	}
	flags := c.Flags()
	flags.String(AddressKey, "", "Wallet address submitting the certificate")
	flags.String(KeyKey, "", "Hex private key of the wallet")
	flags.String(RemoteSignerKey, "", "URL of a remote signing service holding the wallet key")
	flags.String(SignerAPIKeyKey, "", "API key sent to the remote signing service")
	flags.Bool(WaitKey, false, "Wait for the transaction outcome")
	addPollFlags(flags)
	return c
}

func awaitCommand(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "await <txid>",
		Short: "Waits for the outcome of a submitted transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := a.gatewayClient(c)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			metrics, err := poller.NewMetrics(metricsNamespace, reg)
			if err != nil {
				return err
			}
			p, err := poller.New(client, poller.WithLogger(a.logger), poller.WithMetrics(metrics))
			if err != nil {
				return err
			}
			res, err := p.Await(c.Context(), args[0], a.v.GetDuration(TimeoutKey), a.v.GetDuration(IntervalKey))
			if err != nil {
				return err
			}
			if err := a.writeMetrics(reg); err != nil {
				return err
			}
			return a.printResult(c, res)
		},
	}
	addPollFlags(c.Flags())
	return c
}

// gatewayClient builds a client for --network when set, --nag-url otherwise.
func (a *app) gatewayClient(c *cobra.Command) (*nag.Client, error) {
	cfg := sdkConfig(a.v)
	opts := []nag.Option{nag.WithConfig(cfg), nag.WithLogger(a.logger)}
	if network := a.v.GetString(NetworkKey); network != "" {
		nagURL, err := nag.NewResolver(cfg, nag.WithResolverLogger(a.logger)).Resolve(c.Context(), network)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nag.WithNAGURL(nagURL))
	}
	return nag.NewClient(opts...)
}

// remoteSigner returns the remote signer selected by --remote-signer, or nil to
// sign locally with --key.
func (a *app) remoteSigner() (signer.Func, error) {
	endpoint := a.v.GetString(RemoteSignerKey)
	if endpoint == "" {
		return nil, nil
	}
	rs, err := signer.NewRemoteSigner(endpoint, a.v.GetString(SignerAPIKeyKey))
	if err != nil {
		return nil, err
	}
	return signer.ProviderFunc(rs), nil
}

// writeMetrics saves the gathered metrics when --metrics-file is set.
func (a *app) writeMetrics(g prometheus.Gatherer) error {
	path := a.v.GetString(MetricsFileKey)
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (a *app) openAccount(c *cobra.Command, opts ...account.Option) (*account.Account, error) {
	client, err := a.gatewayClient(c)
	if err != nil {
		return nil, err
	}
	opts = append([]account.Option{
		account.WithConfig(sdkConfig(a.v)),
		account.WithClient(client),
		account.WithLogger(a.logger),
	}, opts...)
	acc, err := account.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := acc.Open(a.v.GetString(AddressKey)); err != nil {
		return nil, err
	}
	if err := acc.UpdateAccount(c.Context()); err != nil {
		return nil, err
	}
	return acc, nil
}

type resultView struct {
	TxID     string          `json:"txID"`
	State    string          `json:"state"`
	Attempts int             `json:"attempts"`
	Elapsed  string          `json:"elapsed"`
	Result   int             `json:"result"`
	Response json.RawMessage `json:"response,omitempty"`
}

func (a *app) printResult(c *cobra.Command, res *poller.Result) error {
	view := resultView{
		TxID:     res.TxID,
		State:    res.State.String(),
		Attempts: res.Attempts,
		Elapsed:  res.Elapsed.String(),
	}
	if res.Outcome != nil {
		view.Result = res.Outcome.Result
		view.Response = res.Outcome.Response
	}
	if res.LastErr != nil {
		a.logger.Debug("last poll attempt failed", zap.Error(res.LastErr))
	}

	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
