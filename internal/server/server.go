// Package server manages the background market-data daemon: a detached child
// process tracked through a PID marker file in the data directory.
package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kmandrev/bybit-cli/internal/exchange"
	"github.com/kmandrev/bybit-cli/internal/logger"
)

const pidFilename = "server.pid"

// Status describes whether the daemon is running.
type Status struct {
	Running bool `json:"running"`
	PID     int  `json:"pid,omitempty"`
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, pidFilename)
}

// WritePid records a daemon process id in the data directory.
func WritePid(dataDir string, pid int) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return os.WriteFile(pidFilePath(dataDir), []byte(strconv.Itoa(pid)), 0600)
}

// ReadPid reads the recorded process id. The second return value is false
// when the marker is absent or unparsable.
func ReadPid(dataDir string) (int, bool) {
	data, err := os.ReadFile(pidFilePath(dataDir))
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

// RemovePid deletes the marker file. A missing file is not an error.
func RemovePid(dataDir string) error {
	err := os.Remove(pidFilePath(dataDir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// GetStatus reports whether the daemon is running. A marker pointing at a
// process that no longer exists is stale: it is removed opportunistically and
// reported as not running.
func GetStatus(dataDir string) Status {
	pid, ok := ReadPid(dataDir)
	if !ok {
		return Status{Running: false}
	}

	if isProcessRunning(pid) {
		return Status{Running: true, PID: pid}
	}

	_ = RemovePid(dataDir)
	return Status{Running: false}
}

// Start spawns a detached `bb server run` child and records its pid.
func Start(dataDir string, testnet bool) (int, error) {
	if status := GetStatus(dataDir); status.Running {
		return 0, fmt.Errorf("server already running with PID %d", status.PID)
	}

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to resolve executable path: %w", err)
	}

	args := []string{"server", "run"}
	if testnet {
		args = append(args, "--testnet")
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), "BYBIT_CLI_DATA_DIR="+dataDir)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start server: %w", err)
	}

	pid := cmd.Process.Pid
	if err := WritePid(dataDir, pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}

	_ = cmd.Process.Release()
	return pid, nil
}

// Stop terminates a running daemon and removes the marker.
func Stop(dataDir string) error {
	status := GetStatus(dataDir)
	if !status.Running {
		return fmt.Errorf("server is not running")
	}

	process, err := os.FindProcess(status.PID)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop server (PID %d): %w", status.PID, err)
	}

	return RemovePid(dataDir)
}

// Run is the daemon body: it holds a public stream connection open until a
// termination signal arrives, then cleans up exactly once before returning.
func Run(dataDir string, testnet bool) error {
	if err := WritePid(dataDir, os.Getpid()); err != nil {
		return err
	}
	defer func() { _ = RemovePid(dataDir) }()

	stream := exchange.NewWSClient("", "", testnet, false)
	if err := stream.Connect(context.Background()); err != nil {
		return err
	}
	defer stream.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	logger.Info("Server running with PID %d", os.Getpid())

	for {
		select {
		case msg := <-stream.Updates():
			logger.Debug("Received update for topic %s (%d bytes)", msg.Topic, len(msg.Data))
		case err := <-stream.Errors():
			return fmt.Errorf("stream failed: %w", err)
		case <-keepAlive.C:
			// Nothing to refresh yet; the ticker keeps the loop responsive.
		case sig := <-sigChan:
			logger.Info("Received signal %v, shutting down", sig)
			return nil
		}
	}
}
