package main

import (
	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/commands"
	"github.com/kmandrev/bybit-cli/internal/config"
)

func newMarketsCmd(cfg *config.Config) *cobra.Command {
	marketsCmd := &cobra.Command{
		Use:   "markets",
		Short: "Browse available markets",
	}

	var lsLimit int
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List tradable instruments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ShowInstruments(cmd.Context(), publicClient(cfg), cfg.Category, lsLimit, cfg.JSONOutput)
		},
	}
	lsCmd.Flags().IntVar(&lsLimit, "limit", 50, "Maximum number of instruments to list")

	pricesCmd := &cobra.Command{
		Use:   "prices [SYMBOL...]",
		Short: "Show last prices for symbols (or the whole category)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ShowPrices(cmd.Context(), publicClient(cfg), cfg.Category, args, cfg.JSONOutput)
		},
	}

	var tickersSymbol string
	tickersCmd := &cobra.Command{
		Use:   "tickers",
		Short: "Show the full ticker table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ShowTickers(cmd.Context(), publicClient(cfg), cfg.Category, tickersSymbol, cfg.JSONOutput)
		},
	}
	tickersCmd.Flags().StringVar(&tickersSymbol, "symbol", "", "Restrict output to one symbol")

	marketsCmd.AddCommand(lsCmd, pricesCmd, tickersCmd)

	return marketsCmd
}
