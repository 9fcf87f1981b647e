// Package discount is the client for the discount resolver. Calls go through
// a circuit breaker: when the resolver is down, sessions fail fast with an
// unavailable error instead of piling up on a dead upstream.
package discount

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/clients"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/sony/gobreaker/v2"
)

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*wire.Discount]
}

func NewClient(baseURL string) *Client {
	settings := gobreaker.Settings{
		Name:    "discount-resolver",
		Timeout: 15 * time.Second,
		// Business errors (unknown code, bad input) are valid responses from
		// a healthy upstream and must not trip the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch apierr.KindOf(err) {
			case apierr.KindNotFound, apierr.KindInvalidArgument:
				return true
			}
			return false
		},
	}

	return &Client{
		baseURL: baseURL,
		http:    clients.NewHTTPClient(10 * time.Second),
		breaker: gobreaker.NewCircuitBreaker[*wire.Discount](settings),
	}
}

func (c *Client) GetDiscount(ctx context.Context, code string) (*wire.Discount, error) {
	discount, err := c.breaker.Execute(func() (*wire.Discount, error) {
		return c.getDiscount(ctx, code)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apierr.Unavailable("discount resolver unavailable: %v", err)
	}
	return discount, err
}

func (c *Client) getDiscount(ctx context.Context, code string) (*wire.Discount, error) {
	u := fmt.Sprintf("%s/v1/discounts/%s", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("discount resolver unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var discount wire.Discount
	if err := json.NewDecoder(resp.Body).Decode(&discount); err != nil {
		return nil, fmt.Errorf("failed to decode discount: %w", err)
	}
	return &discount, nil
}
