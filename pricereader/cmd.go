package main

import (
	"fmt"
	"github.com/egaotan/solana-pricefeed/config"
	"github.com/egaotan/solana-pricefeed/pricereader/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"time"
)

type options struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:           "pricereader",
		Short:         "Read the latest price of a chainlink feed through a deployed solana program",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", config.ConfigFile, "config file")
	flags.String("rpc-url", "", "rpc url of the cluster")
	flags.String("keypair", "", "payer keypair file")
	flags.String("program-id", "", "program id, instead of the program keypair")
	_ = opts.v.BindPFlag("rpc_url", flags.Lookup("rpc-url"))
	_ = opts.v.BindPFlag("keypair", flags.Lookup("keypair"))
	_ = opts.v.BindPFlag("program_id", flags.Lookup("program-id"))

	rootCmd.AddCommand(
		newRunCmd(opts),
		newDeriveCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

func (opts *options) reader(cmd *cobra.Command) (*app.PriceReader, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(opts.v, opts.configFile, required)
	if err != nil {
		return nil, err
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return app.NewPriceReader(cmd.Context(), cfg, nil)
}

func runOnce(cmd *cobra.Command, opts *options) error {
	reader, err := opts.reader(cmd)
	if err != nil {
		return err
	}
	defer reader.Stop()
	report, err := reader.Run()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "current price of %s is: %s\n", report.Feed, report)
	return nil
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Take one price reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}
}

func newDeriveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "derive",
		Short: "Print the payer and reading account addresses without touching the cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := opts.reader(cmd)
			if err != nil {
				return err
			}
			defer reader.Stop()
			payer, reading, err := reader.Derive()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payer:   %s\nprogram: %s\nreading: %s\n", payer, reader.Program().Id(), reading)
			return nil
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored readings over http, taking a reading every interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := opts.reader(cmd)
			if err != nil {
				return err
			}
			return reader.Service(interval)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "time between readings, 0 to only serve")
	cmd.Flags().String("listen", "", "http listen address")
	_ = opts.v.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	return cmd
}
