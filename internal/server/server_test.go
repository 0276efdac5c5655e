package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPidRoundTrip(t *testing.T) {
	dataDir := t.TempDir()

	if err := WritePid(dataDir, 12345); err != nil {
		t.Fatalf("WritePid failed: %v", err)
	}

	pid, ok := ReadPid(dataDir)
	if !ok || pid != 12345 {
		t.Errorf("ReadPid = (%d, %v), want (12345, true)", pid, ok)
	}

	if err := RemovePid(dataDir); err != nil {
		t.Fatalf("RemovePid failed: %v", err)
	}

	if _, ok := ReadPid(dataDir); ok {
		t.Error("ReadPid should fail after RemovePid")
	}
}

func TestRemovePidMissingFile(t *testing.T) {
	if err := RemovePid(t.TempDir()); err != nil {
		t.Errorf("RemovePid on missing file: %v", err)
	}
}

func TestReadPidInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not-a-pid"},
		{"negative", "-5"},
		{"zero", "0"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dataDir, pidFilename), []byte(tt.content), 0600); err != nil {
				t.Fatalf("failed to seed pid file: %v", err)
			}

			if pid, ok := ReadPid(dataDir); ok {
				t.Errorf("ReadPid(%q) = (%d, true), want not ok", tt.content, pid)
			}
		})
	}
}

func TestGetStatusNoMarker(t *testing.T) {
	status := GetStatus(t.TempDir())
	if status.Running {
		t.Errorf("GetStatus without marker = %+v, want not running", status)
	}
}

func TestGetStatusRunningProcess(t *testing.T) {
	dataDir := t.TempDir()

	// Our own pid is guaranteed to be alive.
	if err := WritePid(dataDir, os.Getpid()); err != nil {
		t.Fatalf("WritePid failed: %v", err)
	}

	status := GetStatus(dataDir)
	if !status.Running || status.PID != os.Getpid() {
		t.Errorf("GetStatus = %+v, want running with own pid", status)
	}
}

func TestGetStatusRemovesStaleMarker(t *testing.T) {
	dataDir := t.TempDir()

	// A pid far beyond pid_max cannot belong to a live process.
	if err := WritePid(dataDir, 1<<30); err != nil {
		t.Fatalf("WritePid failed: %v", err)
	}

	status := GetStatus(dataDir)
	if status.Running {
		t.Errorf("GetStatus with stale pid = %+v, want not running", status)
	}

	if _, err := os.Stat(filepath.Join(dataDir, pidFilename)); !os.IsNotExist(err) {
		t.Error("stale pid marker should have been removed")
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	if err := Stop(t.TempDir()); err == nil {
		t.Error("Stop without a running server should fail")
	}
}
