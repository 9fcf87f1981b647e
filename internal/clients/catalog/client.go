// Package catalog is the client for the catalog source, including its two
// streamed exchanges: the server-streamed fetch-all and the client-streamed
// bulk insert.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/clients"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
)

type Client struct {
	baseURL string
	http    *http.Client
	// streamHTTP has no client timeout: a catalog stream lives as long as
	// its context does.
	streamHTTP *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		http:       clients.NewHTTPClient(10 * time.Second),
		streamHTTP: clients.NewHTTPClient(0),
	}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*wire.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/products/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var product wire.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &product, nil
}

// ProductStream is the finite, one-shot fetch-all sequence. Recv returns
// io.EOF after the last product; the stream cannot be restarted.
type ProductStream struct {
	body io.ReadCloser
	dec  *wire.StreamDecoder[wire.Product]
}

func (s *ProductStream) Recv() (*wire.Product, error) {
	p, err := s.dec.Recv()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode product stream: %w", err)
	}
	return &p, nil
}

func (s *ProductStream) Close() error {
	return s.body.Close()
}

func (c *Client) GetAllProducts(ctx context.Context) (*ProductStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, wire.DecodeError(resp)
	}

	return &ProductStream{
		body: resp.Body,
		dec:  wire.NewStreamDecoder[wire.Product](resp.Body),
	}, nil
}

func (c *Client) AddProduct(ctx context.Context, product wire.Product) (*wire.Product, error) {
	body, err := json.Marshal(product)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/products", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, wire.DecodeError(resp)
	}

	var inserted wire.Product
	if err := json.NewDecoder(resp.Body).Decode(&inserted); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &inserted, nil
}

// BulkSession is the client-streamed bulk insert: Send products one by one,
// then CloseAndRecv for the aggregate result.
type BulkSession struct {
	pw   *io.PipeWriter
	enc  *wire.StreamEncoder[wire.Product]
	done chan struct{}
	resp *http.Response
	err  error
}

func (c *Client) InsertBulkProducts(ctx context.Context) (*BulkSession, error) {
	pr, pw := io.Pipe()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/products/bulk", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", wire.ContentTypeNDJSON)

	s := &BulkSession{
		pw:   pw,
		enc:  wire.NewStreamEncoder[wire.Product](pw),
		done: make(chan struct{}),
	}
	go func() {
		s.resp, s.err = c.streamHTTP.Do(req)
		close(s.done)
	}()
	return s, nil
}

func (s *BulkSession) Send(product wire.Product) error {
	return s.enc.Send(product)
}

func (s *BulkSession) CloseAndRecv() (*wire.BulkInsertResponse, error) {
	s.pw.Close()
	<-s.done

	if s.err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", s.err)
	}
	defer s.resp.Body.Close()

	if s.resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(s.resp)
	}

	var result wire.BulkInsertResponse
	if err := json.NewDecoder(s.resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode bulk insert response: %w", err)
	}
	return &result, nil
}

func (c *Client) UpdateProduct(ctx context.Context, product wire.Product) (*wire.Product, error) {
	body, err := json.Marshal(product)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/v1/products/%d", c.baseURL, product.ProductID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var updated wire.Product
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) (*wire.DeleteProductResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/v1/products/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("catalog unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var result wire.DeleteProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode delete response: %w", err)
	}
	return &result, nil
}
