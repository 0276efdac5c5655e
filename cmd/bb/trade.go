package main

import (
	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/commands"
	"github.com/kmandrev/bybit-cli/internal/config"
)

func newTradeCmd(cfg *config.Config) *cobra.Command {
	tradeCmd := &cobra.Command{
		Use:   "trade",
		Short: "Place, amend and cancel orders",
	}

	addOrderFlags := func(cmd *cobra.Command, params *commands.OrderParams, withPrice bool) {
		cmd.Flags().StringVar(&params.Symbol, "symbol", "", "Trading symbol, e.g. BTCUSDT")
		cmd.Flags().StringVar(&params.Side, "side", "", "Order side: buy or sell")
		cmd.Flags().StringVar(&params.Qty, "qty", "", "Order quantity in base asset")
		if withPrice {
			cmd.Flags().StringVar(&params.Price, "price", "", "Limit price")
		}
		cmd.Flags().StringVar(&params.TakeProfit, "tp", "", "Take-profit price")
		cmd.Flags().StringVar(&params.StopLoss, "sl", "", "Stop-loss price")
		cmd.Flags().BoolVar(&params.ReduceOnly, "reduce-only", false, "Only reduce an existing position")
		_ = cmd.MarkFlagRequired("symbol")
		_ = cmd.MarkFlagRequired("side")
		_ = cmd.MarkFlagRequired("qty")
	}

	var limitParams commands.OrderParams
	orderLimitCmd := &cobra.Command{
		Use:   "order-limit",
		Short: "Place a limit order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tif") {
				limitParams.TimeInForce = commands.LoadOrderConfig(cfg.DataDir).DefaultTimeInForce
			}
			return commands.PlaceLimitOrder(cmd.Context(), client, cfg.Category, limitParams, cfg.JSONOutput)
		},
	}
	addOrderFlags(orderLimitCmd, &limitParams, true)
	orderLimitCmd.Flags().StringVar(&limitParams.TimeInForce, "tif", "GTC", "Time in force: GTC, IOC, FOK or PostOnly")
	_ = orderLimitCmd.MarkFlagRequired("price")

	var marketParams commands.OrderParams
	orderMarketCmd := &cobra.Command{
		Use:   "order-market",
		Short: "Place a market order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.PlaceMarketOrder(cmd.Context(), client, cfg.Category, marketParams, cfg.JSONOutput)
		},
	}
	addOrderFlags(orderMarketCmd, &marketParams, false)

	newConditionalCmd := func(use, short string, place func(cmd *cobra.Command, params commands.OrderParams) error) *cobra.Command {
		var params commands.OrderParams
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return place(cmd, params)
			},
		}
		cmd.Flags().StringVar(&params.Symbol, "symbol", "", "Trading symbol, e.g. BTCUSDT")
		cmd.Flags().StringVar(&params.Side, "side", "", "Order side: buy or sell")
		cmd.Flags().StringVar(&params.Qty, "qty", "", "Order quantity in base asset")
		cmd.Flags().StringVar(&params.Price, "price", "", "Limit price once triggered")
		cmd.Flags().StringVar(&params.TriggerPrice, "trigger", "", "Trigger price that arms the order")
		cmd.Flags().BoolVar(&params.ReduceOnly, "reduce-only", false, "Only reduce an existing position")
		for _, flag := range []string{"symbol", "side", "qty", "price", "trigger"} {
			_ = cmd.MarkFlagRequired(flag)
		}
		return cmd
	}

	orderStopLossCmd := newConditionalCmd(
		"order-stop-loss",
		"Place a stop-loss order that triggers when the price moves against you",
		func(cmd *cobra.Command, params commands.OrderParams) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.PlaceStopLossOrder(cmd.Context(), client, cfg.Category, params, cfg.JSONOutput)
		},
	)

	orderTakeProfitCmd := newConditionalCmd(
		"order-take-profit",
		"Place a take-profit order that triggers when the price moves in your favor",
		func(cmd *cobra.Command, params commands.OrderParams) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.PlaceTakeProfitOrder(cmd.Context(), client, cfg.Category, params, cfg.JSONOutput)
		},
	)

	var cancelSymbol, cancelOrderID string
	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel one order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.CancelOrder(cmd.Context(), client, cfg.Category, cancelSymbol, cancelOrderID, cfg.JSONOutput)
		},
	}
	cancelCmd.Flags().StringVar(&cancelSymbol, "symbol", "", "Trading symbol of the order")
	cancelCmd.Flags().StringVar(&cancelOrderID, "order-id", "", "Exchange order id")
	_ = cancelCmd.MarkFlagRequired("symbol")
	_ = cancelCmd.MarkFlagRequired("order-id")

	var cancelAllSymbol string
	cancelAllCmd := &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel all open orders, optionally for one symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			settleCoin := ""
			if cancelAllSymbol == "" {
				settleCoin = cfg.SettleCoin()
			}
			return commands.CancelAllOrders(cmd.Context(), client, cfg.Category, cancelAllSymbol, settleCoin, cfg.JSONOutput)
		},
	}
	cancelAllCmd.Flags().StringVar(&cancelAllSymbol, "symbol", "", "Restrict cancellation to one symbol")

	var amendSymbol, amendOrderID, amendQty, amendPrice string
	amendCmd := &cobra.Command{
		Use:   "amend",
		Short: "Change the price and/or quantity of an open order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.AmendOrder(cmd.Context(), client, cfg.Category, amendSymbol, amendOrderID, amendQty, amendPrice, cfg.JSONOutput)
		},
	}
	amendCmd.Flags().StringVar(&amendSymbol, "symbol", "", "Trading symbol of the order")
	amendCmd.Flags().StringVar(&amendOrderID, "order-id", "", "Exchange order id")
	amendCmd.Flags().StringVar(&amendQty, "qty", "", "New quantity")
	amendCmd.Flags().StringVar(&amendPrice, "price", "", "New price")
	_ = amendCmd.MarkFlagRequired("symbol")
	_ = amendCmd.MarkFlagRequired("order-id")

	var leverageSymbol, leverageValue string
	setLeverageCmd := &cobra.Command{
		Use:   "set-leverage",
		Short: "Set leverage for a symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient(cfg)
			if err != nil {
				return err
			}
			return commands.SetLeverage(cmd.Context(), client, cfg.Category, leverageSymbol, leverageValue, cfg.JSONOutput)
		},
	}
	setLeverageCmd.Flags().StringVar(&leverageSymbol, "symbol", "", "Trading symbol")
	setLeverageCmd.Flags().StringVar(&leverageValue, "leverage", "", "Leverage multiplier, e.g. 10")
	_ = setLeverageCmd.MarkFlagRequired("symbol")
	_ = setLeverageCmd.MarkFlagRequired("leverage")

	var configSlippage float64
	var configTif string
	var configConfirm bool
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "View or change persisted order defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed("slippage") ||
				cmd.Flags().Changed("tif") ||
				cmd.Flags().Changed("confirm")

			if changed {
				orderCfg := commands.LoadOrderConfig(cfg.DataDir)
				if cmd.Flags().Changed("slippage") {
					orderCfg.Slippage = configSlippage
				}
				if cmd.Flags().Changed("tif") {
					orderCfg.DefaultTimeInForce = configTif
				}
				if cmd.Flags().Changed("confirm") {
					orderCfg.ConfirmBeforeSubmit = configConfirm
				}
				if err := commands.SaveOrderConfig(cfg.DataDir, orderCfg); err != nil {
					return err
				}
			}

			return commands.ShowOrderConfig(cfg.DataDir, cfg.JSONOutput)
		},
	}
	configureCmd.Flags().Float64Var(&configSlippage, "slippage", 0.5, "Allowed slippage percentage")
	configureCmd.Flags().StringVar(&configTif, "tif", "GTC", "Default time in force for limit orders")
	configureCmd.Flags().BoolVar(&configConfirm, "confirm", true, "Ask for confirmation before submitting orders")

	tradeCmd.AddCommand(orderLimitCmd, orderMarketCmd, orderStopLossCmd, orderTakeProfitCmd)
	tradeCmd.AddCommand(cancelCmd, cancelAllCmd, amendCmd, setLeverageCmd, configureCmd)

	return tradeCmd
}
