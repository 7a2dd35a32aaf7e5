// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package services

import (
	"context"
	"fmt"
	"io"
)

// CloserService holds a resource open for the life of the tree and closes
// it when the supervisor stops. It ties the event publisher's NATS
// connection to the tree's shutdown ordering.
type CloserService struct {
	closer io.Closer
	name   string
}

// NewCloserService wraps c under name.
func NewCloserService(name string, c io.Closer) *CloserService {
	return &CloserService{closer: c, name: name}
}

// Serve implements suture.Service. It waits for ctx and then closes.
func (c *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := c.closer.Close(); err != nil {
		return fmt.Errorf("close %s: %w", c.name, err)
	}
	return ctx.Err()
}

func (c *CloserService) String() string {
	return c.name
}
