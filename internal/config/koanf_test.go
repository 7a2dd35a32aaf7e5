// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.PrintAgent.Attempts != 3 {
		t.Errorf("PrintAgent.Attempts = %d, want 3", cfg.PrintAgent.Attempts)
	}
	if cfg.PrintAgent.InitialBackoff != 250*time.Millisecond {
		t.Errorf("PrintAgent.InitialBackoff = %v, want 250ms", cfg.PrintAgent.InitialBackoff)
	}
	if cfg.PrintAgent.MaxBackoff != 2*time.Second {
		t.Errorf("PrintAgent.MaxBackoff = %v, want 2s", cfg.PrintAgent.MaxBackoff)
	}
	if cfg.PrintAgent.Budget != 5*time.Second {
		t.Errorf("PrintAgent.Budget = %v, want 5s", cfg.PrintAgent.Budget)
	}
	if cfg.Hub.WriteWait != 5*time.Second {
		t.Errorf("Hub.WriteWait = %v, want 5s", cfg.Hub.WriteWait)
	}
	if cfg.Media.Provider != "none" {
		t.Errorf("Media.Provider = %q, want none", cfg.Media.Provider)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	tf := envTransform(serverEnv)
	tests := map[string]string{
		"HTTP_PORT":           "server.port",
		"PRINT_AGENT_URL":     "printagent.url",
		"STORE_URL":           "store.path",
		"DATABASE_NAME":       "store.database",
		"CORS_ORIGINS":        "security.cors_origins",
		"LIVEKIT_API_SECRET":  "media.livekit.api_secret",
		"PATH":                "",
		"SOME_RANDOM_SETTING": "",
	}
	for in, want := range tests {
		if got := tf(in); got != want {
			t.Errorf("envTransform(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("PRINT_AGENT_URL", "http://10.0.0.5:8765")
	t.Setenv("PRINT_AGENT_ATTEMPTS", "5")
	t.Setenv("PRINT_AGENT_INITIAL_BACKOFF", "100ms")
	t.Setenv("CORS_ORIGINS", "https://shop.example, https://admin.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.PrintAgent.URL != "http://10.0.0.5:8765" {
		t.Errorf("PrintAgent.URL = %q", cfg.PrintAgent.URL)
	}
	if cfg.PrintAgent.Attempts != 5 {
		t.Errorf("PrintAgent.Attempts = %d, want 5", cfg.PrintAgent.Attempts)
	}
	if cfg.PrintAgent.InitialBackoff != 100*time.Millisecond {
		t.Errorf("PrintAgent.InitialBackoff = %v, want 100ms", cfg.PrintAgent.InitialBackoff)
	}
	want := []string{"https://shop.example", "https://admin.example"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Hub.SendBuffer != 256 {
		t.Errorf("Hub.SendBuffer = %d, want default 256", cfg.Hub.SendBuffer)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8888
store:
  path: "/srv/liveshop"
  in_memory: false
stream:
  title: "Friday Drop"
media:
  provider: livekit
  livekit:
    api_key: "key"
    api_secret: "secret"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Store.Path != "/srv/liveshop" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Stream.Title != "Friday Drop" {
		t.Errorf("Stream.Title = %q", cfg.Stream.Title)
	}
	if cfg.Media.Provider != "livekit" || cfg.Media.LiveKit.APISecret != "secret" {
		t.Errorf("Media = %+v", cfg.Media)
	}
	if cfg.Media.HMS.URL == "" {
		t.Error("vendor defaults should survive a partial media section")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "server.port"},
		{"bad agent url", map[string]string{"PRINT_AGENT_URL": "localhost"}, "printagent.url"},
		{"zero attempts", map[string]string{"PRINT_AGENT_ATTEMPTS": "0"}, "printagent.attempts"},
		{"slow writes", map[string]string{"HUB_WRITE_WAIT": "30s"}, "hub.write_wait"},
		{"unknown vendor", map[string]string{"MEDIA_PROVIDER": "skype"}, "media.provider"},
		{"unknown timezone", map[string]string{"PRINT_AGENT_TIMEZONE": "Mars/Olympus"}, "printagent.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestPrintAgentLocation(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PRINT_AGENT_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	loc, err := cfg.PrintAgent.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %s, want Europe/Berlin", loc)
	}

	if loc, _ := (PrintAgentConfig{}).Location(); loc != time.Local {
		t.Errorf("empty timezone should resolve to the host zone, got %s", loc)
	}
}

func TestLoadAgent(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PRINTER_ALIASES", "Zebra_GK420d, GK420d")
	t.Setenv("PRINTER_COMMANDS", "lp -d {printer} -o raw {file}")
	t.Setenv("AGENT_PORT", "9001")

	cfg, err := LoadAgent()
	if err != nil {
		t.Fatalf("LoadAgent() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Printer.Aliases, []string{"Zebra_GK420d", "GK420d"}) {
		t.Errorf("Aliases = %v", cfg.Printer.Aliases)
	}
	if len(cfg.Printer.Commands) != 1 {
		t.Errorf("Commands = %v", cfg.Printer.Commands)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want loopback default", cfg.Server.Host)
	}
}

func TestAgentValidateRequiresFilePlaceholder(t *testing.T) {
	cfg := defaultAgentConfig()
	cfg.Printer.Commands = []string{"lp -d {printer}"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for command without {file}")
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.yaml")
	if err := os.WriteFile(path, []byte("server: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	if got := findConfigFile(nil); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}

	t.Setenv(ConfigPathEnvVar, "")
	if got := findConfigFile([]string{filepath.Join(dir, "nope.yaml"), path}); got != path {
		t.Errorf("findConfigFile(defaults) = %q, want %q", got, path)
	}
}
