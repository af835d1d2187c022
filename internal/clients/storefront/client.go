package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/comichut/supportdesk/internal/domain"
)

// Client talks to the storefront's read-only CRUD endpoints to capture the
// customer-context snapshot at conversation start. Every call is best-effort:
// the caller degrades to an empty snapshot on failure.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Second},
	}
}

// Snapshot fetches profile, cart, recent orders and wishlist for the given
// user. Partial results are returned together with the first error so the
// caller can log the degradation; the snapshot is never refreshed afterwards.
func (c *Client) Snapshot(ctx context.Context, userID string) (domain.CustomerContext, error) {
	snap := domain.CustomerContext{CapturedAt: time.Now().UTC()}
	if userID == "" {
		return snap, nil
	}

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
	}

	var profile domain.CustomerProfile
	if err := c.getJSON(ctx, "/api/users/"+userID+"/profile", &profile); err != nil {
		keep(err)
	} else {
		snap.Profile = &profile
	}

	keep(c.getJSON(ctx, "/api/users/"+userID+"/cart", &snap.Cart))
	keep(c.getJSON(ctx, "/api/users/"+userID+"/orders?limit=5", &snap.RecentOrders))
	keep(c.getJSON(ctx, "/api/users/"+userID+"/wishlist", &snap.Wishlist))

	return snap, firstErr
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront returned %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
