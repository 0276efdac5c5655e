package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/clierr"
	"github.com/kmandrev/bybit-cli/internal/commands"
	"github.com/kmandrev/bybit-cli/internal/config"
	"github.com/kmandrev/bybit-cli/internal/crypto"
	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/logger"
	"github.com/kmandrev/bybit-cli/internal/output"
	"github.com/kmandrev/bybit-cli/internal/utils"
	"github.com/kmandrev/bybit-cli/internal/vault"
)

var (
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func main() {
	utils.LoadEnvironment()
	logger.Init()

	cfg := config.New()
	cfg.LoadFromEnvironment()

	rootCmd := &cobra.Command{
		Use:   "bb",
		Short: "A CLI tool for trading on Bybit",
		Long:  `bb is a CLI tool for managing Bybit accounts, querying markets and trading from the terminal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&cfg.Testnet, "testnet", cfg.Testnet, "Use the Bybit testnet")
	rootCmd.PersistentFlags().StringVar(&cfg.Category, "category", cfg.Category, "Product category (linear, spot, inverse, option)")
	rootCmd.PersistentFlags().StringVar(&cfg.Account, "account", "", "Account name (default: the vault default account)")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSONOutput, "json", false, "Print machine-readable JSON instead of tables")
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory where accounts and logs are stored")

	rootCmd.AddCommand(newAccountCmd(cfg))
	rootCmd.AddCommand(newMarketsCmd(cfg))
	rootCmd.AddCommand(newAssetCmd(cfg))
	rootCmd.AddCommand(newTradeCmd(cfg))
	rootCmd.AddCommand(newServerCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		renderError(cfg, err)
		os.Exit(1)
	}
}

func renderError(cfg *config.Config, err error) {
	cliErr := clierr.AsError(err)

	if cfg.JSONOutput {
		if out, jsonErr := output.FormatJSON(cliErr); jsonErr == nil {
			fmt.Fprintln(os.Stderr, out)
			return
		}
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+cliErr.Message)
	if cliErr.Suggestion != "" {
		fmt.Fprintln(os.Stderr, suggestionStyle.Render(cliErr.Suggestion))
	}
}

func openVault(cfg *config.Config) (*vault.Vault, error) {
	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return vault.Open(cfg.DataDir, cipher)
}

// resolveClient opens the vault, resolves the selected account and returns a
// REST client authenticated with its credentials.
func resolveClient(cfg *config.Config) (*exchange.Client, error) {
	v, err := openVault(cfg)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	account, err := commands.ResolveAccount(v, cfg.Account)
	if err != nil {
		return nil, err
	}

	return exchange.NewClient(account.APIKey, account.APISecret, cfg.Testnet), nil
}

// resolveAccount opens the vault and resolves the selected account without
// building a REST client; used by the private stream commands.
func resolveAccount(cfg *config.Config) (*vault.Account, error) {
	v, err := openVault(cfg)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	return commands.ResolveAccount(v, cfg.Account)
}

// publicClient returns an unauthenticated REST client for market data.
func publicClient(cfg *config.Config) *exchange.Client {
	return exchange.NewClient("", "", cfg.Testnet)
}
