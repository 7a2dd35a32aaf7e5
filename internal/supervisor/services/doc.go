// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

// Package services adapts the server's components to suture.Service.
//
// Each wrapper takes a narrow interface rather than the concrete type, so
// the package imports none of the components it supervises and tests can
// substitute fakes. Every wrapper implements fmt.Stringer; suture uses the
// name in its log events.
package services
