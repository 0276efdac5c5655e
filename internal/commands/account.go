// Package commands implements the operations behind the CLI command tree:
// it resolves accounts from the vault, calls the exchange client and prints
// tables or JSON to stdout.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kmandrev/bybit-cli/internal/clierr"
	"github.com/kmandrev/bybit-cli/internal/crypto"
	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/models"
	"github.com/kmandrev/bybit-cli/internal/output"
	"github.com/kmandrev/bybit-cli/internal/vault"
)

// ResolveAccount returns the named account, or the vault default when name
// is empty.
func ResolveAccount(v *vault.Vault, name string) (*vault.Account, error) {
	if name != "" {
		account, err := v.Get(name)
		if err != nil {
			return nil, mapVaultError(err)
		}
		if account == nil {
			return nil, clierr.AccountNotFound(name)
		}
		return account, nil
	}

	account, err := v.GetDefault()
	if err != nil {
		return nil, mapVaultError(err)
	}
	if account == nil {
		return nil, clierr.APIKeyNotFound()
	}
	return account, nil
}

// AddAccount stores a new credential set in the vault.
func AddAccount(v *vault.Vault, name, apiKey, apiSecret string) error {
	if err := v.Add(name, apiKey, apiSecret); err != nil {
		if errors.Is(err, vault.ErrAccountExists) {
			return clierr.DuplicateAccount(name)
		}
		return err
	}

	fmt.Printf("Account %q added.\n", name)
	return nil
}

// RemoveAccount deletes a credential set. When the removed account was the
// default, no replacement is promoted.
func RemoveAccount(v *vault.Vault, name string) error {
	if err := v.Remove(name); err != nil {
		if errors.Is(err, vault.ErrAccountNotFound) {
			return clierr.AccountNotFound(name)
		}
		return err
	}

	fmt.Printf("Account %q removed.\n", name)
	return nil
}

// SetDefaultAccount marks the named account as default.
func SetDefaultAccount(v *vault.Vault, name string) error {
	if err := v.SetDefault(name); err != nil {
		if errors.Is(err, vault.ErrAccountNotFound) {
			return clierr.AccountNotFound(name)
		}
		return err
	}

	fmt.Printf("Default account set to %q.\n", name)
	return nil
}

// ShowAccounts lists configured accounts. Secrets are never printed: the
// Account JSON shape excludes them and the table shows the key only.
func ShowAccounts(v *vault.Vault, jsonOut bool) error {
	accounts, err := v.List()
	if err != nil {
		return mapVaultError(err)
	}

	if jsonOut {
		return printJSON(accounts)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts configured. Run 'bb account add' to create one.")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		marker := ""
		if a.IsDefault {
			marker = "*"
		}
		rows = append(rows, []string{a.Name, a.APIKey, marker})
	}
	fmt.Println(output.FormatTable([]string{"Name", "API Key", "Default"}, rows))
	return nil
}

// ShowBalances prints wallet balances for the resolved account.
func ShowBalances(ctx context.Context, client *exchange.Client, accountType string, jsonOut bool) error {
	accounts, err := client.WalletBalances(ctx, accountType)
	if err != nil {
		return err
	}

	balances := toWalletRows(accounts)
	if jsonOut {
		return printJSON(balances)
	}

	if len(balances) == 0 {
		fmt.Println("No balances found.")
		return nil
	}

	fmt.Println(output.FormatTable(
		[]string{"Coin", "Equity", "Available", "Unrealised PnL"},
		walletTableRows(balances),
	))
	return nil
}

// ShowPositions prints open positions.
func ShowPositions(ctx context.Context, client *exchange.Client, category, settleCoin string, jsonOut bool) error {
	entries, err := client.Positions(ctx, category, settleCoin)
	if err != nil {
		return err
	}

	positions := toPositionRows(entries)
	if jsonOut {
		return printJSON(positions)
	}

	if len(positions) == 0 {
		fmt.Println("No open positions.")
		return nil
	}

	fmt.Println(output.FormatTable(
		[]string{"Symbol", "Side", "Size", "Entry", "Mark", "Unreal. PnL", "Leverage"},
		positionTableRows(positions),
	))
	return nil
}

// ShowOrders prints active orders.
func ShowOrders(ctx context.Context, client *exchange.Client, category, settleCoin string, jsonOut bool) error {
	entries, err := client.ActiveOrders(ctx, category, settleCoin)
	if err != nil {
		return err
	}

	orders := toOrderRows(entries)
	if jsonOut {
		return printJSON(orders)
	}

	if len(orders) == 0 {
		fmt.Println("No active orders.")
		return nil
	}

	fmt.Println(output.FormatTable(
		[]string{"Order ID", "Symbol", "Side", "Type", "Price", "Qty", "Status", "Created"},
		orderTableRows(orders),
	))
	return nil
}

// ShowPortfolio prints balances, positions and orders in one shot.
func ShowPortfolio(ctx context.Context, client *exchange.Client, accountType, category, settleCoin string, jsonOut bool) error {
	accounts, err := client.WalletBalances(ctx, accountType)
	if err != nil {
		return err
	}
	positionEntries, err := client.Positions(ctx, category, settleCoin)
	if err != nil {
		return err
	}
	orderEntries, err := client.ActiveOrders(ctx, category, settleCoin)
	if err != nil {
		return err
	}

	balances := toWalletRows(accounts)
	positions := toPositionRows(positionEntries)
	orders := toOrderRows(orderEntries)

	if jsonOut {
		return printJSON(map[string]interface{}{
			"balances":  balances,
			"positions": positions,
			"orders":    orders,
		})
	}

	fmt.Println("Balances:")
	fmt.Println(output.FormatTable(
		[]string{"Coin", "Equity", "Available", "Unrealised PnL"},
		walletTableRows(balances),
	))
	fmt.Println()
	fmt.Println("Positions:")
	fmt.Println(output.FormatTable(
		[]string{"Symbol", "Side", "Size", "Entry", "Mark", "Unreal. PnL", "Leverage"},
		positionTableRows(positions),
	))
	fmt.Println()
	fmt.Println("Orders:")
	fmt.Println(output.FormatTable(
		[]string{"Order ID", "Symbol", "Side", "Type", "Price", "Qty", "Status", "Created"},
		orderTableRows(orders),
	))
	return nil
}

func mapVaultError(err error) error {
	if errors.Is(err, crypto.ErrDecryptionFailed) {
		return clierr.DecryptFailed()
	}
	return err
}

func printJSON(v interface{}) error {
	out, err := output.FormatJSON(v)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func toWalletRows(accounts []exchange.WalletAccount) []models.WalletBalance {
	balances := make([]models.WalletBalance, 0)
	for _, account := range accounts {
		for _, c := range account.Coin {
			balances = append(balances, models.WalletBalance{
				Coin:                c.Coin,
				Equity:              c.Equity,
				AvailableToWithdraw: c.AvailableToWithdraw,
				UnrealisedPnl:       c.UnrealisedPnl,
			})
		}
	}
	return balances
}

func toPositionRows(entries []exchange.Position) []models.PositionInfo {
	positions := make([]models.PositionInfo, 0, len(entries))
	for _, p := range entries {
		if p.Size == "0" || p.Size == "" {
			continue
		}
		positions = append(positions, models.PositionInfo{
			Symbol:        p.Symbol,
			Side:          p.Side,
			Size:          p.Size,
			EntryPrice:    p.AvgPrice,
			MarkPrice:     p.MarkPrice,
			UnrealisedPnl: p.UnrealisedPnl,
			Leverage:      p.Leverage,
		})
	}
	return positions
}

func toOrderRows(entries []exchange.Order) []models.OrderInfo {
	orders := make([]models.OrderInfo, 0, len(entries))
	for _, o := range entries {
		orders = append(orders, models.OrderInfo{
			OrderID:     o.OrderID,
			Symbol:      o.Symbol,
			Side:        o.Side,
			OrderType:   o.OrderType,
			Price:       o.Price,
			Qty:         o.Qty,
			OrderStatus: o.OrderStatus,
			CreatedTime: o.CreatedTime,
		})
	}
	return orders
}

func walletTableRows(balances []models.WalletBalance) [][]string {
	rows := make([][]string, 0, len(balances))
	for _, b := range balances {
		rows = append(rows, []string{b.Coin, b.Equity, b.AvailableToWithdraw, b.UnrealisedPnl})
	}
	return rows
}

func positionTableRows(positions []models.PositionInfo) [][]string {
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol, p.Side, p.Size, p.EntryPrice, p.MarkPrice, p.UnrealisedPnl, p.Leverage + "x",
		})
	}
	return rows
}

func orderTableRows(orders []models.OrderInfo) [][]string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			shortOrderID(o.OrderID), o.Symbol, o.Side, o.OrderType,
			dashIfEmpty(o.Price), o.Qty, o.OrderStatus, formatTimestamp(o.CreatedTime),
		})
	}
	return rows
}

func shortOrderID(id string) string {
	if len(id) > 12 {
		return id[:8] + "..."
	}
	return id
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTimestamp(ms string) string {
	var num int64
	if _, err := fmt.Sscanf(ms, "%d", &num); err != nil || num == 0 {
		return "-"
	}
	return time.UnixMilli(num).UTC().Format("2006-01-02 15:04:05")
}
