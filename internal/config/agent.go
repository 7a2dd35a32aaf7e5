// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package config

import "time"

// AgentConfig is the print agent configuration.
type AgentConfig struct {
	Server  AgentServerConfig `koanf:"server"`
	Printer PrinterConfig     `koanf:"printer"`
	Logging LoggingConfig     `koanf:"logging"`
}

// AgentServerConfig controls the agent's HTTP listener. The agent binds to
// loopback by default since it only serves the local API server.
type AgentServerConfig struct {
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

// PrinterConfig describes how the agent finds and feeds the label printer.
//
// Commands are templates; {printer} and {file} are substituted per job and
// tried in order until one succeeds.
type PrinterConfig struct {
	Aliases        []string      `koanf:"aliases"`
	ListCommand    string        `koanf:"list_command"`
	Commands       []string      `koanf:"commands"`
	WorkDir        string        `koanf:"work_dir"`
	JournalPath    string        `koanf:"journal_path"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
	RatePerSecond  float64       `koanf:"rate_per_second"`
	Burst          int           `koanf:"burst"`
}

func defaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Server: AgentServerConfig{
			Host:        "127.0.0.1",
			Port:        8765,
			CORSOrigins: []string{"*"},
		},
		Printer: PrinterConfig{
			Aliases: []string{
				"Zebra_Technologies_ZTC_GK420d",
				"Zebra Technologies ZTC GK420d",
				"ZTC-GK420d",
				"GK420d",
				"Zebra",
			},
			ListCommand: "lpstat -p -d",
			Commands: []string{
				"lp -d {printer} -o raw {file}",
				"lpr -P {printer} -o raw {file}",
			},
			WorkDir:        "labels",
			JournalPath:    "labels/journal.db",
			CommandTimeout: 10 * time.Second,
			RatePerSecond:  4,
			Burst:          2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
