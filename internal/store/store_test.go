// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/liveshop/internal/logging"
	"github.com/tomtom215/liveshop/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newCustomer(id, number, email string) *models.Customer {
	now := time.Now().UTC()
	return &models.Customer{
		ID:               id,
		CustomerNumber:   number,
		Email:            email,
		Name:             "Test " + number,
		ActivationStatus: models.ActivationPending,
		Language:         models.LanguageDE,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir, Database: "show1"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()
	if err := s.CreateOrder(ctx, &models.Order{ID: "o1", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := s.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(Options{Dir: dir, Database: "show1"})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetOrder(ctx, "o1"); err != nil {
		t.Errorf("order should survive reopen: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetOrder(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrder() error = %v, want ErrNotFound", err)
	}
}

func TestCustomerUniqueCustomerNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := newCustomer("c1", "10299", "a@example.com")
	if err := s.CreateCustomer(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := s.CreateCustomer(ctx, newCustomer("c2", "10299", "b@example.com"))
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Field != "customer_number" {
		t.Fatalf("second create error = %v, want customer_number conflict", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}

	got, err := s.GetCustomer(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "a@example.com" || got.ActivationStatus != models.ActivationPending {
		t.Errorf("first customer changed: %+v", got)
	}
	if _, err := s.GetCustomer(ctx, "c2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rejected customer should not exist, err = %v", err)
	}
	// The email of the rejected write must not have been indexed.
	if err := s.CreateCustomer(ctx, newCustomer("c3", "10300", "b@example.com")); err != nil {
		t.Errorf("b@example.com should still be free: %v", err)
	}
}

func TestCustomerUniqueEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateCustomer(ctx, newCustomer("c1", "1", "same@example.com")); err != nil {
		t.Fatal(err)
	}
	err := s.CreateCustomer(ctx, newCustomer("c2", "2", "same@example.com"))
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Fatalf("error = %v, want email conflict", err)
	}
}

func TestFindCustomerByIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateCustomer(ctx, newCustomer("c1", "777", "x@example.com")); err != nil {
		t.Fatal(err)
	}

	byNumber, err := s.FindCustomer(ctx, "customer_number", "777")
	if err != nil || byNumber.ID != "c1" {
		t.Errorf("FindCustomer(number) = %v, %v", byNumber, err)
	}
	byEmail, err := s.FindCustomer(ctx, "email", "x@example.com")
	if err != nil || byEmail.ID != "c1" {
		t.Errorf("FindCustomer(email) = %v, %v", byEmail, err)
	}
	byName, err := s.FindCustomer(ctx, "name", "Test 777")
	if err != nil || byName.ID != "c1" {
		t.Errorf("FindCustomer(name) = %v, %v", byName, err)
	}
	if _, err := s.FindCustomer(ctx, "email", "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSetMovesIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateCustomer(ctx, newCustomer("c1", "1", "old@example.com")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCustomer(ctx, newCustomer("c2", "2", "other@example.com")); err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateCustomer(ctx, "c1", map[string]interface{}{"email": "new@example.com"}); err != nil {
		t.Fatalf("UpdateCustomer() error = %v", err)
	}
	if _, err := s.FindCustomer(ctx, "email", "old@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old email index should be gone, err = %v", err)
	}
	if c, err := s.FindCustomer(ctx, "email", "new@example.com"); err != nil || c.ID != "c1" {
		t.Errorf("new email lookup = %v, %v", c, err)
	}

	_, err := s.UpdateCustomer(ctx, "c1", map[string]interface{}{"email": "other@example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("update onto taken email: err = %v, want conflict", err)
	}

	if _, err := s.UpdateCustomer(ctx, "nope", map[string]interface{}{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCustomerFreesIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateCustomer(ctx, newCustomer("c1", "1", "a@example.com")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCustomer(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCustomer() error = %v", err)
	}
	if err := s.DeleteCustomer(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if err := s.CreateCustomer(ctx, newCustomer("c2", "1", "a@example.com")); err != nil {
		t.Errorf("number and email should be reusable after delete: %v", err)
	}
}

func TestConcurrentDuplicateCustomers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.CreateCustomer(ctx, newCustomer(fmt.Sprintf("c%d", i), "42", fmt.Sprintf("u%d@example.com", i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("%d creates succeeded, want exactly 1", ok)
	}
	n2, _ := s.Count(ctx, Customers, Filter{"customer_number": "42"})
	if n2 != 1 {
		t.Errorf("Count = %d, want 1", n2)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	for i, cust := range []string{"A", "B", "A", "C"} {
		o := &models.Order{
			ID:         fmt.Sprintf("o%d", i),
			CustomerID: cust,
			Quantity:   1,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateOrder(ctx, o); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListOrders(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"o3", "o2", "o1", "o0"}
	for i, o := range all {
		if o.ID != want[i] {
			t.Fatalf("order %d = %s, want %s", i, o.ID, want[i])
		}
	}

	forA, err := s.ListOrders(ctx, "A", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(forA) != 2 || forA[0].ID != "o2" || forA[1].ID != "o0" {
		t.Errorf("orders for A = %+v", forA)
	}

	limited, _ := s.ListOrders(ctx, "", 2)
	if len(limited) != 2 || limited[0].ID != "o3" {
		t.Errorf("limited = %+v", limited)
	}

	n, err := s.CountOrders(ctx)
	if err != nil || n != 4 {
		t.Errorf("CountOrders = %d, %v", n, err)
	}
}

func TestSortHandlesFractionalTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	whole := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	frac := whole.Add(100 * time.Millisecond)

	// "…10:00:00Z" sorts after "…10:00:00.1Z" as a string; it must not here.
	if err := s.CreateChatMessage(ctx, &models.ChatMessage{ID: "b", CreatedAt: frac}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateChatMessage(ctx, &models.ChatMessage{ID: "a", CreatedAt: whole}); err != nil {
		t.Fatal(err)
	}
	msgs, err := s.RecentChatMessages(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].ID != "b" {
		t.Errorf("newest first = %+v", msgs)
	}
}

func TestListEventsOrderedByDateTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	events := []models.Event{
		{ID: "e1", Date: "2026-06-02", Time: "10:00", Title: "later day"},
		{ID: "e2", Date: "2026-06-01", Time: "20:00", Title: "evening"},
		{ID: "e3", Date: "2026-06-01", Time: "09:30", Title: "morning"},
	}
	for i := range events {
		if err := s.CreateEvent(ctx, &events[i]); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"e3", "e2", "e1"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("events = %+v, want order %v", got, want)
		}
	}
}

func TestSeedProductsOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.SeedProducts(ctx, DefaultCatalogue)
	if err != nil || n != len(DefaultCatalogue) {
		t.Fatalf("first seed = %d, %v", n, err)
	}
	n, err = s.SeedProducts(ctx, DefaultCatalogue)
	if err != nil || n != 0 {
		t.Errorf("second seed = %d, %v; want 0", n, err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if products[0].ID != "1" || !products[0].Price.Equal(models.MoneyFromFloat(8.5)) {
		t.Errorf("first product = %+v", products[0])
	}
}

func TestProfileImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.CreateCustomer(ctx, newCustomer("c1", "1", "a@example.com")); err != nil {
		t.Fatal(err)
	}

	img := &models.ProfileImage{ID: "c1", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}, UpdatedAt: time.Now().UTC()}
	if err := s.PutProfileImage(ctx, img); err != nil {
		t.Fatalf("PutProfileImage() error = %v", err)
	}
	got, err := s.GetProfileImage(ctx, "c1")
	if err != nil || string(got.Data) != string(img.Data) {
		t.Errorf("GetProfileImage() = %v, %v", got, err)
	}
	c, _ := s.GetCustomer(ctx, "c1")
	if c.ProfileImageType != "image/png" {
		t.Errorf("ProfileImageType = %q", c.ProfileImageType)
	}

	if err := s.PutProfileImage(ctx, &models.ProfileImage{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("image for unknown customer: err = %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.CreateOrder(ctx, &models.Order{ID: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
