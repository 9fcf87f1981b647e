// Package cart is the client for the cart aggregation service. GetCart and
// CreateCart carry the bearer credential; the item write paths do not.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/clients"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
)

type Client struct {
	baseURL    string
	http       *http.Client
	streamHTTP *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		http:       clients.NewHTTPClient(10 * time.Second),
		streamHTTP: clients.NewHTTPClient(0),
	}
}

func (c *Client) GetCart(ctx context.Context, userName, token string) (*wire.Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/carts/%s", c.baseURL, url.PathEscape(userName)), nil)
	if err != nil {
		return nil, err
	}
	setBearer(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("cart service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var cart wire.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &cart, nil
}

func (c *Client) CreateCart(ctx context.Context, userName, token string) (*wire.Cart, error) {
	body, err := json.Marshal(wire.Cart{UserName: userName})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/carts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	setBearer(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("cart service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, wire.DecodeError(resp)
	}

	var cart wire.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &cart, nil
}

// AddItemsSession is one streamed add-items exchange. Send elements one by
// one, then CloseAndRecv to commit the session and read the aggregate
// result. The session is one-shot.
type AddItemsSession struct {
	pw   *io.PipeWriter
	enc  *wire.StreamEncoder[wire.AddItemRequest]
	done chan struct{}
	resp *http.Response
	err  error
}

// AddItems opens a session. The request body is a pipe: elements are on the
// wire as soon as Send returns, matching the server's element-at-a-time
// processing order.
func (c *Client) AddItems(ctx context.Context) (*AddItemsSession, error) {
	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/carts/items", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", wire.ContentTypeNDJSON)

	s := &AddItemsSession{
		pw:   pw,
		enc:  wire.NewStreamEncoder[wire.AddItemRequest](pw),
		done: make(chan struct{}),
	}
	go func() {
		s.resp, s.err = c.streamHTTP.Do(req)
		close(s.done)
	}()
	return s, nil
}

func (s *AddItemsSession) Send(req wire.AddItemRequest) error {
	select {
	case <-s.done:
		// Server already failed the session; surface its error rather than
		// a bare pipe error.
		if s.err != nil {
			return apierr.Unavailable("cart service unreachable: %v", s.err)
		}
		defer s.resp.Body.Close()
		return wire.DecodeError(s.resp)
	default:
	}
	return s.enc.Send(req)
}

func (s *AddItemsSession) CloseAndRecv() (*wire.AddItemsResponse, error) {
	s.pw.Close()
	<-s.done

	if s.err != nil {
		return nil, apierr.Unavailable("cart service unreachable: %v", s.err)
	}
	defer s.resp.Body.Close()

	if s.resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(s.resp)
	}

	var result wire.AddItemsResponse
	if err := json.NewDecoder(s.resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode add items response: %w", err)
	}
	return &result, nil
}

func (c *Client) RemoveItem(ctx context.Context, userName string, productID int64) (*wire.RemoveItemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/v1/carts/%s/items/%d", c.baseURL, url.PathEscape(userName), productID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("cart service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var result wire.RemoveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode remove item response: %w", err)
	}
	return &result, nil
}

func setBearer(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
