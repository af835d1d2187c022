package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comichut/supportdesk/internal/domain"
)

func TestSnapshot_AllEndpointsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/users/user-1/profile":
			json.NewEncoder(w).Encode(domain.CustomerProfile{
				UserID: "user-1", Name: "Reed", Email: "reed@example.com",
				JoinedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			})
		case "/api/users/user-1/cart":
			json.NewEncoder(w).Encode([]domain.CartItem{
				{ProductID: "p1", Title: "Saga Vol. 1", Quantity: 2, UnitPrice: 999},
			})
		case "/api/users/user-1/orders":
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("expected limit=5, got %q", r.URL.Query().Get("limit"))
			}
			json.NewEncoder(w).Encode([]domain.OrderSummary{
				{OrderID: "o1", Status: "shipped", Total: 1998},
			})
		case "/api/users/user-1/wishlist":
			json.NewEncoder(w).Encode([]domain.WishlistItem{
				{ProductID: "p2", Title: "Monstress Vol. 3"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL)
	snap, err := client.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.Profile == nil || snap.Profile.Name != "Reed" {
		t.Errorf("unexpected profile: %+v", snap.Profile)
	}
	if len(snap.Cart) != 1 || snap.Cart[0].Quantity != 2 {
		t.Errorf("unexpected cart: %+v", snap.Cart)
	}
	if len(snap.RecentOrders) != 1 || snap.RecentOrders[0].Status != "shipped" {
		t.Errorf("unexpected orders: %+v", snap.RecentOrders)
	}
	if len(snap.Wishlist) != 1 {
		t.Errorf("unexpected wishlist: %+v", snap.Wishlist)
	}
	if snap.CapturedAt.IsZero() {
		t.Error("capturedAt must be set")
	}
}

func TestSnapshot_PartialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users/user-1/cart" {
			json.NewEncoder(w).Encode([]domain.CartItem{{ProductID: "p1", Title: "Saga Vol. 1", Quantity: 1}})
			return
		}
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	snap, err := client.Snapshot(context.Background(), "user-1")

	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
	// The healthy endpoint's data still comes back.
	if len(snap.Cart) != 1 {
		t.Errorf("partial snapshot should keep the cart: %+v", snap.Cart)
	}
	if snap.Profile != nil {
		t.Errorf("failed profile fetch must leave profile nil: %+v", snap.Profile)
	}
}

func TestSnapshot_GuestIsEmpty(t *testing.T) {
	client := New("http://storefront.invalid")

	snap, err := client.Snapshot(context.Background(), "")
	if err != nil {
		t.Fatalf("guest snapshot must not call the storefront: %v", err)
	}
	if snap.Profile != nil || snap.Cart != nil || snap.RecentOrders != nil || snap.Wishlist != nil {
		t.Errorf("guest snapshot should be empty: %+v", snap)
	}
	if snap.CapturedAt.IsZero() {
		t.Error("capturedAt must still be set")
	}
}
