// Package identity is the client side of the token gate: endpoint discovery
// followed by a client-credentials exchange.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/clients"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
)

type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: clients.NewHTTPClient(10 * time.Second)}
}

func (c *Client) Discover(ctx context.Context, issuerURL string) (*wire.DiscoveryDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(issuerURL, "/")+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apierr.Unavailable("identity server unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wire.DecodeError(resp)
	}

	var doc wire.DiscoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("discovery document has no token endpoint")
	}
	return &doc, nil
}

// ClientCredentialsToken exchanges a scoped client credential for an access
// token at the discovered token endpoint.
func (c *Client) ClientCredentialsToken(ctx context.Context, tokenEndpoint, clientID, clientSecret, scope string) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"scope":         {scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apierr.Unavailable("identity server unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", wire.DecodeError(resp)
	}

	var token wire.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response has no access token")
	}
	return token.AccessToken, nil
}
