package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)

	l.Debug("hidden %d", 1)
	l.Info("shown %d", 2)
	l.Error("failed: %s", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message written at info level: %q", out)
	}
	if !strings.Contains(out, "INFO: shown 2") {
		t.Fatalf("missing info line: %q", out)
	}
	if !strings.Contains(out, "ERROR: failed: boom") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logview.log")

	l, err := New(Options{LogFile: path, Verbose: true, Quiet: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	l.Debug("read %s", "/var/log/syslog")
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "DEBUG: read /var/log/syslog") {
		t.Fatalf("log file = %q", data)
	}
}

func TestNop_IsSilent(t *testing.T) {
	l := Nop()
	l.Error("nothing %v", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	var nilLogger *Logger
	nilLogger.Info("no panic")
}
