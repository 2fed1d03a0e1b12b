// certctl encodes certificates and submits them to a Circular gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newViper()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "certctl failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "certctl",
		Short:         "Encode, submit and confirm certificates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if err := v.BindPFlags(c.Flags()); err != nil {
				return err
			}
			if err := loadConfigFile(v); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			logger, err := newLogger(v)
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	addGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		encodeCommand(a),
		sizeCommand(a),
		resolveCommand(a),
		submitCommand(a),
		awaitCommand(a),
	)
	return root
}
