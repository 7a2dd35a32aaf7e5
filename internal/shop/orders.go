// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/metrics"
	"github.com/tomtom215/liveshop/internal/models"
)

// maxOrderLimit caps an explicit page size.
const maxOrderLimit = 1000

// CreateOrderRequest is the body of POST /api/orders. Price overrides the
// catalogue unit price when present.
type CreateOrderRequest struct {
	CustomerID string        `json:"customer_id" validate:"required,max=128"`
	ProductID  string        `json:"product_id" validate:"required,max=128"`
	Size       string        `json:"size" validate:"required,max=32"`
	Quantity   int           `json:"quantity" validate:"gt=0"`
	Price      *models.Money `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// ShortCustomerRef is the last four characters of the customer id, or the
// whole id when shorter. It is the reference read out in the chat line and
// printed on the label.
func ShortCustomerRef(customerID string) string {
	r := []rune(customerID)
	if len(r) < 4 {
		return customerID
	}
	return string(r[len(r)-4:])
}

// OrderLine formats the chat announcement for an order:
//
//	**Bestellung** EFGH I 2x I 17,00 I M
func OrderLine(customerID string, quantity int, total models.Money, size string) string {
	return fmt.Sprintf("**Bestellung** %s I %dx I %s I %s",
		ShortCustomerRef(customerID), quantity, total.Comma(), size)
}

// CreateOrder runs the order pipeline. Only validation, product lookup and
// persistence can fail it.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	req.Size = strings.TrimSpace(req.Size)
	if err := validate(&req); err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fromStore(err, "product "+req.ProductID)
	}

	unit := product.Price
	if req.Price != nil {
		unit = *req.Price
	}

	order := &models.Order{
		ID:          newID(),
		CustomerID:  req.CustomerID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Size:        req.Size,
		Quantity:    req.Quantity,
		UnitPrice:   unit,
		Total:       unit.Times(req.Quantity),
		CreatedAt:   s.instant("orders"),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()

	session := s.state.IncrementSessionOrders()
	s.announce(ctx, order, session)

	if s.printer != nil {
		s.printer.Dispatch(models.LabelJob{
			CustomerNumber: ShortCustomerRef(order.CustomerID),
			Price:          order.Total.Comma(),
			OrderID:        order.ID,
			CreatedAt:      order.CreatedAt,
		})
	}

	s.publish(ctx, TopicOrderCreated, order)

	logging.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("customer_id", order.CustomerID).
		Str("product_id", order.ProductID).
		Int("quantity", order.Quantity).
		Str("total", order.Total.String()).
		Msg("order created")
	return order, nil
}

// announce broadcasts the order line followed by the counters.
func (s *Service) announce(ctx context.Context, o *models.Order, session int64) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastOrder(models.OrderNotification{
		Message:     OrderLine(o.CustomerID, o.Quantity, o.Total, o.Size),
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		ProductName: o.ProductName,
		Size:        o.Size,
		Quantity:    o.Quantity,
		UnitPrice:   o.UnitPrice,
		Total:       o.Total,
	})
	s.hub.BroadcastCounters(models.OrderCounters{
		SessionOrders: session,
		TotalOrders:   s.totalOrders(ctx),
	})
}

// totalOrders counts persisted orders; a failing store reads as zero.
func (s *Service) totalOrders(ctx context.Context) int64 {
	n, err := s.store.CountOrders(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to count orders")
		return 0
	}
	return int64(n)
}

// ListOrders returns orders newest first. limit <= 0 returns every order;
// a positive limit is capped at maxOrderLimit.
func (s *Service) ListOrders(ctx context.Context, customerID string, limit int) ([]models.Order, error) {
	if limit > 0 {
		limit = min(limit, maxOrderLimit)
	} else {
		limit = 0
	}
	return s.store.ListOrders(ctx, strings.TrimSpace(customerID), limit)
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fromStore(err, "order "+id)
	}
	return o, nil
}
