// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var validMediaProviders = map[string]bool{
	"none":    true,
	"livekit": true,
	"hms":     true,
	"daily":   true,
}

// Validate checks the server configuration and returns every problem found,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required unless store.in_memory is set"))
	}
	if err := validateHTTPURL("printagent.url", c.PrintAgent.URL); err != nil {
		errs = append(errs, err)
	}
	if c.PrintAgent.Attempts < 1 {
		errs = append(errs, fmt.Errorf("printagent.attempts must be at least 1, got %d", c.PrintAgent.Attempts))
	}
	if c.PrintAgent.Timeout <= 0 || c.PrintAgent.Timeout > maxOutboundTimeout {
		errs = append(errs, fmt.Errorf("printagent.timeout must be in (0, %s], got %s", maxOutboundTimeout, c.PrintAgent.Timeout))
	}
	if c.PrintAgent.InitialBackoff <= 0 || c.PrintAgent.MaxBackoff < c.PrintAgent.InitialBackoff {
		errs = append(errs, errors.New("printagent backoff must satisfy 0 < initial_backoff <= max_backoff"))
	}
	if _, err := c.PrintAgent.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Hub.SendBuffer < 1 {
		errs = append(errs, fmt.Errorf("hub.send_buffer must be positive, got %d", c.Hub.SendBuffer))
	}
	if c.Hub.WriteWait <= 0 || c.Hub.WriteWait > maxWriteWait {
		errs = append(errs, fmt.Errorf("hub.write_wait must be in (0, %s], got %s", maxWriteWait, c.Hub.WriteWait))
	}
	if !validMediaProviders[strings.ToLower(c.Media.Provider)] {
		errs = append(errs, fmt.Errorf("media.provider %q is not one of none, livekit, hms, daily", c.Media.Provider))
	}
	if c.Media.Timeout > maxOutboundTimeout {
		errs = append(errs, fmt.Errorf("media.timeout must not exceed %s", maxOutboundTimeout))
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		errs = append(errs, errors.New("events.nats_url is required when events are enabled"))
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitRequests < 1 {
		errs = append(errs, errors.New("security.rate_limit_reqs must be positive when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

// Validate checks the agent configuration.
func (c *AgentConfig) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if len(c.Printer.Aliases) == 0 {
		errs = append(errs, errors.New("printer.aliases must list at least one printer name"))
	}
	if len(c.Printer.Commands) == 0 {
		errs = append(errs, errors.New("printer.commands must list at least one spool command"))
	}
	for _, cmd := range c.Printer.Commands {
		if !strings.Contains(cmd, "{file}") {
			errs = append(errs, fmt.Errorf("printer command %q has no {file} placeholder", cmd))
		}
	}
	if c.Printer.WorkDir == "" {
		errs = append(errs, errors.New("printer.work_dir is required"))
	}
	if c.Printer.RatePerSecond <= 0 {
		errs = append(errs, errors.New("printer.rate_per_second must be positive"))
	}

	return errors.Join(errs...)
}

const (
	maxOutboundTimeout = 30 * time.Second
	maxWriteWait       = 5 * time.Second
)

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}
