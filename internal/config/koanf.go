// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/liveshop/config.yaml",
}

// DefaultAgentConfigPaths are searched by the print agent.
var DefaultAgentConfigPaths = []string{
	"printagent.yaml",
	"printagent.yml",
	"/etc/liveshop/printagent.yaml",
}

// serverEnv maps environment variables to server config keys. Anything not
// listed is ignored so unrelated variables cannot leak into the config.
var serverEnv = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"store_path":          "store.path",
	"store_url":           "store.path",
	"store_database":      "store.database",
	"database_name":       "store.database",
	"store_in_memory":     "store.in_memory",
	"store_seed_products": "store.seed_products",
	"store_gc_interval":   "store.gc_interval",

	"print_agent_url":              "printagent.url",
	"print_agent_timeout":          "printagent.timeout",
	"print_agent_attempts":         "printagent.attempts",
	"print_agent_initial_backoff":  "printagent.initial_backoff",
	"print_agent_max_backoff":      "printagent.max_backoff",
	"print_agent_budget":           "printagent.budget",
	"print_agent_breaker_failures": "printagent.breaker_failures",
	"print_agent_breaker_timeout":  "printagent.breaker_timeout",
	"print_agent_timezone":         "printagent.timezone",

	"hub_send_buffer":     "hub.send_buffer",
	"hub_write_wait":      "hub.write_wait",
	"hub_pong_wait":       "hub.pong_wait",
	"hub_viewer_interval": "hub.viewer_interval",

	"stream_title":       "stream.title",
	"stream_description": "stream.description",

	"media_provider":          "media.provider",
	"media_timeout":           "media.timeout",
	"media_token_ttl":         "media.token_ttl",
	"livekit_url":             "media.livekit.url",
	"livekit_api_key":         "media.livekit.api_key",
	"livekit_api_secret":      "media.livekit.api_secret",
	"hms_url":                 "media.hms.url",
	"hms_access_key":          "media.hms.api_key",
	"hms_secret":              "media.hms.api_secret",
	"hms_template_id":         "media.hms.template_id",
	"daily_url":               "media.daily.url",
	"daily_api_key":           "media.daily.api_key",
	"events_enabled":          "events.enabled",
	"nats_url":                "events.nats_url",
	"nats_stream":             "events.stream",
	"nats_subject":            "events.subject",
	"cors_origins":            "security.cors_origins",
	"rate_limit_requests":     "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"max_profile_image_bytes": "security.max_image_bytes",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

var serverSlicePaths = []string{
	"security.cors_origins",
}

var agentEnv = map[string]string{
	"agent_host":              "server.host",
	"agent_port":              "server.port",
	"agent_cors_origins":      "server.cors_origins",
	"printer_aliases":         "printer.aliases",
	"printer_list_command":    "printer.list_command",
	"printer_commands":        "printer.commands",
	"printer_work_dir":        "printer.work_dir",
	"printer_journal_path":    "printer.journal_path",
	"printer_command_timeout": "printer.command_timeout",
	"printer_rate":            "printer.rate_per_second",
	"printer_burst":           "printer.burst",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
}

var agentSlicePaths = []string{
	"server.cors_origins",
	"printer.aliases",
	"printer.commands",
}

// Load reads the API server configuration: defaults, then the YAML file,
// then the environment. The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := load(defaultConfig(), DefaultConfigPaths, serverEnv, serverSlicePaths, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadAgent reads the print agent configuration the same way as Load.
func LoadAgent() (*AgentConfig, error) {
	cfg := &AgentConfig{}
	if err := load(defaultAgentConfig(), DefaultAgentConfigPaths, agentEnv, agentSlicePaths, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func load(defaults interface{}, paths []string, envMap map[string]string, slicePaths []string, out interface{}) error {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(paths); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform(envMap)), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k, slicePaths); err != nil {
		return fmt.Errorf("failed to process slice fields: %w", err)
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first default
// path that exists, else "".
func findConfigFile(paths []string) string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitSliceFields turns comma separated env values into string slices.
// Values that already are slices (from YAML) are left alone.
func splitSliceFields(k *koanf.Koanf, paths []string) error {
	for _, path := range paths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		vals := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				vals = append(vals, p)
			}
		}
		if err := k.Set(path, vals); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func envTransform(m map[string]string) func(string) string {
	return func(key string) string {
		return m[strings.ToLower(key)]
	}
}
