// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package services

import (
	"context"
	"errors"
	"fmt"
)

// Runner is satisfied by *printing.Dispatcher.
type Runner interface {
	Run(ctx context.Context) error
}

// PrintDispatcherService runs the label job router. A router that exits
// while ctx is live is reported as a failure so suture restarts it with a
// fresh router; jobs dispatched in between are reported as unreachable.
type PrintDispatcherService struct {
	dispatcher Runner
	name       string
}

// NewPrintDispatcherService wraps d.
func NewPrintDispatcherService(d Runner) *PrintDispatcherService {
	return &PrintDispatcherService{dispatcher: d, name: "print-dispatcher"}
}

// Serve implements suture.Service.
func (p *PrintDispatcherService) Serve(ctx context.Context) error {
	err := p.dispatcher.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("router stopped")
	}
	return fmt.Errorf("print dispatcher: %w", err)
}

func (p *PrintDispatcherService) String() string {
	return p.name
}
