package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kmandrev/bybit-cli/internal/config"
	"github.com/kmandrev/bybit-cli/internal/logger"
	"github.com/kmandrev/bybit-cli/internal/output"
	"github.com/kmandrev/bybit-cli/internal/server"
)

func newServerCmd(cfg *config.Config) *cobra.Command {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the background market-data server",
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := server.Start(cfg.DataDir, cfg.Testnet)
			if err != nil {
				return err
			}
			fmt.Printf("Server started with PID %d.\n", pid)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := server.Stop(cfg.DataDir); err != nil {
				return err
			}
			fmt.Println("Server stopped.")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := server.GetStatus(cfg.DataDir)

			if cfg.JSONOutput {
				out, err := output.FormatJSON(status)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}

			if status.Running {
				fmt.Printf("Server is running with PID %d.\n", status.PID)
			} else {
				fmt.Println("Server is not running.")
			}
			return nil
		},
	}

	// The foreground body spawned by `server start`; hidden from help.
	runCmd := &cobra.Command{
		Use:    "run",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitFileOnly(cfg.DataDir); err != nil {
				return err
			}
			defer logger.Close()

			return server.Run(cfg.DataDir, cfg.Testnet)
		},
	}

	serverCmd.AddCommand(startCmd, stopCmd, statusCmd, runCmd)

	return serverCmd
}
