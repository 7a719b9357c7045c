package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, path string, contents string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning", input: "warning", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "invalid", input: "trace", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := parseLogLevel(testCase.input)
			if testCase.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !testCase.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if testCase.wantErr {
				return
			}
			if got != testCase.want {
				t.Fatalf("level = %v, want %v", got, testCase.want)
			}
		})
	}
}

func TestApplyConfigFile(t *testing.T) {
	t.Run("loads all supported fields", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bot.json")
		writeConfigFile(t, configPath, `{
			"log_level": "debug",
			"bot_name": "demo-bot",
			"auto_accept_friendship": false,
			"self": {"id": "self-1", "name": "Demo"},
			"contacts": [
				{"id": "c-1", "name": "Alice", "alias": "ally", "phone": ["+1"]},
				{"id": "c-2", "name": "Bob", "handle": "bob_online"}
			]
		}`)

		cfg := defaultAppConfig()
		if err := applyConfigFile(&cfg, configPath); err != nil {
			t.Fatalf("apply config: %v", err)
		}
		if err := validateAppConfig(&cfg); err != nil {
			t.Fatalf("validate config: %v", err)
		}

		if cfg.logLevel != slog.LevelDebug {
			t.Fatalf("log level = %v, want debug", cfg.logLevel)
		}
		if cfg.botName != "demo-bot" {
			t.Fatalf("bot name = %q, want demo-bot", cfg.botName)
		}
		if cfg.autoAcceptFriendship {
			t.Fatal("auto accept friendship should be disabled")
		}
		if cfg.self.id != "self-1" || cfg.self.name != "Demo" {
			t.Fatalf("self = %+v", cfg.self)
		}
		if len(cfg.contacts) != 2 || cfg.contacts[0].alias != "ally" || cfg.contacts[1].handle != "bob_online" {
			t.Fatalf("contacts = %+v", cfg.contacts)
		}
	})

	t.Run("keeps defaults for omitted fields", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bot.json")
		writeConfigFile(t, configPath, `{"log_level": "warn"}`)

		cfg := defaultAppConfig()
		if err := applyConfigFile(&cfg, configPath); err != nil {
			t.Fatalf("apply config: %v", err)
		}

		if cfg.logLevel != slog.LevelWarn {
			t.Fatalf("log level = %v, want warn", cfg.logLevel)
		}
		if cfg.botName != defaultBotName {
			t.Fatalf("bot name = %q, want default", cfg.botName)
		}
		if len(cfg.contacts) == 0 {
			t.Fatal("default contacts dropped")
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bot.json")
		writeConfigFile(t, configPath, `{`)

		cfg := defaultAppConfig()
		if err := applyConfigFile(&cfg, configPath); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("rejects unsupported log level", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bot.json")
		writeConfigFile(t, configPath, `{"log_level": "verbose"}`)

		cfg := defaultAppConfig()
		err := applyConfigFile(&cfg, configPath)
		if err == nil || !strings.Contains(err.Error(), "log_level") {
			t.Fatalf("err = %v, want log_level parse error", err)
		}
	})
}

func TestValidateAppConfig(t *testing.T) {
	t.Run("requires self id", func(t *testing.T) {
		cfg := defaultAppConfig()
		cfg.self.id = ""

		if err := validateAppConfig(&cfg); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("rejects duplicate contact ids", func(t *testing.T) {
		cfg := defaultAppConfig()
		cfg.contacts = []seedContact{{id: "c-1"}, {id: "c-1"}}

		if err := validateAppConfig(&cfg); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("rejects contact reusing the self id", func(t *testing.T) {
		cfg := defaultAppConfig()
		cfg.contacts = []seedContact{{id: cfg.self.id}}

		if err := validateAppConfig(&cfg); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
