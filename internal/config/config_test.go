package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Timeout() != 60*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Timeout())
	}
}

func TestFromYAMLKeepsDefaultsForUnsetFields(t *testing.T) {
	cfg, err := FromYAML([]byte("ai:\n  model: gpt-4o-mini\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Fatalf("override lost: %s", cfg.AI.Model)
	}
	if cfg.User.DefaultID != "local" || cfg.AI.MaxRetries != 3 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero timeout":     "ai:\n  timeout_seconds: 0\n",
		"bad temperature":  "ai:\n  temperature: 3.5\n",
		"empty model":      "ai:\n  model: \"\"\n",
		"empty default id": "user:\n  default_id: \"\"\n",
	}
	for name, yml := range cases {
		if _, err := FromYAML([]byte(yml)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	yml := "chat:\n  welcome_message: Hi there\nserver:\n  addr: \":9090\"\n"
	if err := os.WriteFile(filepath.Join(dir, "ventureline.yml"), []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chat.WelcomeMessage != "Hi there" || cfg.Server.Addr != ":9090" {
		t.Fatalf("file values lost: %+v", cfg)
	}
}
