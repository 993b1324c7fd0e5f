package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRootCmdHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "echo"} {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing %q", name)
		}
	}
}

func TestLoadConfigExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"transport":{"listenAddr":"127.0.0.1:7777"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Transport.ListenAddr != "127.0.0.1:7777" {
		t.Errorf("listenAddr = %q", cfg.Transport.ListenAddr)
	}
	// untouched sections keep their defaults
	if cfg.Bridge.Prefix != "editorbridge::" {
		t.Errorf("prefix = %q", cfg.Bridge.Prefix)
	}
}

func TestLoadConfigMissingExplicitFileErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("explicitly named but missing config must error")
	}
}
