package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bronze-trades-generator/internal/engine"
	"bronze-trades-generator/internal/generator"
)

var configDir string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "generator",
		Short:        "Mock CDC generator for the bronze_trades table",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", "./configs", "directory containing config.yml")

	root.AddCommand(newRunCmd(), newUpdateCmd(), newDeleteCmd(), newGenerateCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Insert a random trade every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); err == nil {
					err = cerr
				}
			}()

			// Setup context for graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				sigchan := make(chan os.Signal, 1)
				signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(sigchan)
				select {
				case <-sigchan:
					a.log.Info("Shutdown signal received, stopping data generation...")
					cancel()
				case <-ctx.Done():
				}
			}()

			eng := engine.NewEngine(a.log, a.cfg.Generator, a.generator, a.writer)
			if err := eng.Run(ctx); err != nil {
				return fmt.Errorf("insert loop failed: %w", err)
			}
			a.log.Info("Generator has been shut down.", zap.Int64("inserted", eng.Inserted()))
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <trade_id>",
		Short: "Regenerate price, volume and profit/loss on every row with trade_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); err == nil {
					err = cerr
				}
			}()

			rows, err := a.writer.Update(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated trade_id: %s (%d rows)\n", args[0], rows)
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trade_id>",
		Short: "Delete every row with trade_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(configDir)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); err == nil {
					err = cerr
				}
			}()

			rows, err := a.writer.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted trade_id: %s (%d rows)\n", args[0], rows)
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "generate [trade_id]",
		Short: "Print one random trade without touching the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tradeID := ""
			if len(args) == 1 {
				tradeID = args[0]
			}
			trade := generator.New(generator.WithSeed(seed)).Generate(tradeID)
			fmt.Fprintln(cmd.OutOrStdout(), trade.String())
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	return cmd
}
