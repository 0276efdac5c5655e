package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/commands"
	"github.com/kmandrev/bybit-cli/internal/config"
)

const unifiedAccountType = "UNIFIED"

func newAccountCmd(cfg *config.Config) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts and view account state",
	}

	addCmd := &cobra.Command{
		Use:   "add NAME API_KEY API_SECRET",
		Short: "Store a new account in the local vault",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault(cfg)
			if err != nil {
				return err
			}
			defer v.Close()

			return commands.AddAccount(v, args[0], args[1], args[2])
		},
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault(cfg)
			if err != nil {
				return err
			}
			defer v.Close()

			return commands.ShowAccounts(v, cfg.JSONOutput)
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault(cfg)
			if err != nil {
				return err
			}
			defer v.Close()

			return commands.RemoveAccount(v, args[0])
		},
	}

	setDefaultCmd := &cobra.Command{
		Use:   "set-default NAME",
		Short: "Mark an account as the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVault(cfg)
			if err != nil {
				return err
			}
			defer v.Close()

			return commands.SetDefaultAccount(v, args[0])
		},
	}

	balancesCmd := &cobra.Command{
		Use:   "balances",
		Short: "Show wallet balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.ShowBalances(cmd.Context(), client, unifiedAccountType, cfg.JSONOutput)
		},
	}

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "Show open positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.ShowPositions(cmd.Context(), client, cfg.Category, cfg.SettleCoin(), cfg.JSONOutput)
		},
	}

	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "Show active orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.ShowOrders(cmd.Context(), client, cfg.Category, cfg.SettleCoin(), cfg.JSONOutput)
		},
	}

	portfolioCmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show balances, positions and orders together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.ShowPortfolio(cmd.Context(), client, unifiedAccountType, cfg.Category, cfg.SettleCoin(), cfg.JSONOutput)
		},
	}

	watchCmd := &cobra.Command{
		Use:       "watch TOPIC",
		Short:     "Watch live account updates (wallet, positions or orders)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"wallet", "positions", "orders"},
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := resolveAccount(cfg)
			if err != nil {
				return err
			}

			switch args[0] {
			case "wallet":
				return commands.WatchWallet(cmd.Context(), account, cfg.Testnet)
			case "positions":
				return commands.WatchPositions(cmd.Context(), account, cfg.Testnet)
			case "orders":
				return commands.WatchOrders(cmd.Context(), account, cfg.Testnet)
			default:
				return fmt.Errorf("unknown watch topic %q: use wallet, positions or orders", args[0])
			}
		},
	}

	accountCmd.AddCommand(addCmd, lsCmd, rmCmd, setDefaultCmd)
	accountCmd.AddCommand(balancesCmd, positionsCmd, ordersCmd, portfolioCmd, watchCmd)

	return accountCmd
}
