package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigureFileOutput(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "optionflow.log")
	log := Logger()
	if err := log.Configure("report", "text", path, 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	log.WithComponent("test").Info("hello file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Fatalf("log line not written: %q", data)
	}
}

func TestConfigureReportLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	log := Logger()
	if err := log.Configure("report", "json", "stderr", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("report level should log at info, got %v", log.GetLevel())
	}

	t.Setenv("LOG_LEVEL", "debug")
	if err := log.Configure("warn", "json", "stderr", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("LOG_LEVEL should win, got %v", log.GetLevel())
	}
}

func TestConfigureInvalidKeepsSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	log := Logger()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	if err := log.Configure("warn", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level changed by failed configure: %v", log.GetLevel())
	}
	log.WithComponent("test").Info("still buffered")
	if !strings.Contains(buf.String(), "still buffered") {
		t.Fatalf("output changed by failed configure")
	}
}

func TestErrorCounting(t *testing.T) {
	ResetCounters()
	log := Logger()
	log.SetOutput(&bytes.Buffer{})
	log.WithComponent("test").WithError(errors.New("boom")).Error("failed")
	if ErrorCount() != 1 {
		t.Fatalf("expected 1 error, got %d", ErrorCount())
	}
}

func TestLogReportIncludesCounters(t *testing.T) {
	ResetCounters()
	IncrementPairsRead(3)
	IncrementEvaluations(2)
	IncrementFileWritten(128)

	log := Logger()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	LogReport(context.Background(), log)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry: %v", err)
	}
	if entry["pairs_read"] != float64(3) || entry["evaluations"] != float64(2) {
		t.Errorf("unexpected counters: %v", entry)
	}
	if entry["bytes_written"] != float64(128) {
		t.Errorf("bytes_written = %v", entry["bytes_written"])
	}
	if entry["message"] != "runtime report" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
}

func TestDashboardBodyIsJSON(t *testing.T) {
	var v map[string]interface{}
	if err := json.Unmarshal([]byte(dashboardBody("Test")), &v); err != nil {
		t.Fatalf("dashboard body is not valid JSON: %v", err)
	}
}
