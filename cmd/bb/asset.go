package main

import (
	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/commands"
	"github.com/kmandrev/bybit-cli/internal/config"
)

func newAssetCmd(cfg *config.Config) *cobra.Command {
	assetCmd := &cobra.Command{
		Use:   "asset",
		Short: "Inspect a single asset",
	}

	priceCmd := &cobra.Command{
		Use:   "price SYMBOL",
		Short: "Show the current price for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ShowPrice(cmd.Context(), publicClient(cfg), cfg.Category, args[0], cfg.JSONOutput)
		},
	}

	var bookDepth int
	var bookWatch bool
	bookCmd := &cobra.Command{
		Use:   "book SYMBOL",
		Short: "Show the order book for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bookWatch {
				return commands.WatchBook(cmd.Context(), args[0], bookDepth, cfg.Testnet)
			}
			return commands.ShowBook(cmd.Context(), publicClient(cfg), cfg.Category, args[0], bookDepth, cfg.JSONOutput)
		},
	}
	bookCmd.Flags().IntVar(&bookDepth, "depth", 25, "Number of levels per side")
	bookCmd.Flags().BoolVar(&bookWatch, "watch", false, "Keep the book open with live updates")

	var fundingLimit int
	fundingCmd := &cobra.Command{
		Use:   "funding SYMBOL",
		Short: "Show recent funding rates for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.ShowFunding(cmd.Context(), publicClient(cfg), cfg.Category, args[0], fundingLimit, cfg.JSONOutput)
		},
	}
	fundingCmd.Flags().IntVar(&fundingLimit, "limit", 10, "Number of funding intervals to show")

	watchCmd := &cobra.Command{
		Use:   "watch SYMBOL",
		Short: "Watch live price updates for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.WatchTicker(cmd.Context(), args[0], cfg.Testnet)
		},
	}

	assetCmd.AddCommand(priceCmd, bookCmd, fundingCmd, watchCmd)

	return assetCmd
}
