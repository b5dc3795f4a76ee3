package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingPrepare_Disabled(t *testing.T) {
	conf := &LoggingConfig{}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	// everything goes to nop cores, must not panic
	log.Info("dropped")
	log.Error("dropped too")
}

func TestLoggingPrepare_FileLog(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "edit.log")
	conf := &LoggingConfig{
		FileLogger: LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	log.Info("file sink check")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("expected log file at destination: %v", err)
	}
	if !strings.Contains(string(data), "file sink check") {
		t.Errorf("log file does not contain the logged message: %q", string(data))
	}
}

func TestLoggingPrepare_RedirectsOnBadDestination(t *testing.T) {
	// a directory that does not exist cannot hold the log file
	dest := filepath.Join(t.TempDir(), "missing", "edit.log")
	conf := &LoggingConfig{
		FileLogger: LoggerConfig{Level: "normal", Destination: dest, Mode: "append"},
	}

	rpt := &Report{entries: make(map[string]entry)}

	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	log.Info("redirected sink check")
	_ = log.Sync()

	if p, ok := rpt.entries["panic.log"]; ok {
		defer os.Remove(p.original)
	}
	final, ok := rpt.entries["final.log"]
	if !ok {
		t.Fatalf("expected redirected log location in the report")
	}
	defer os.Remove(final.original)
	if final.original == dest {
		t.Errorf("expected a fallback location, got the unusable destination %q", dest)
	}
}
