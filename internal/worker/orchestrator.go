// Package worker holds the background drivers: the cart-build orchestrator
// that replays the catalog into the cart service on a timer, and the product
// generator that keeps the catalog populated.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"go.uber.org/zap"
)

// The orchestrator talks to every boundary through these interfaces; the
// concrete HTTP clients implement them.

type IdentityClient interface {
	Discover(ctx context.Context, issuerURL string) (*wire.DiscoveryDocument, error)
	ClientCredentialsToken(ctx context.Context, tokenEndpoint, clientID, clientSecret, scope string) (string, error)
}

type CartClient interface {
	GetCart(ctx context.Context, userName, token string) (*wire.Cart, error)
	CreateCart(ctx context.Context, userName, token string) (*wire.Cart, error)
	AddItems(ctx context.Context) (AddItemsSession, error)
}

type AddItemsSession interface {
	Send(req wire.AddItemRequest) error
	CloseAndRecv() (*wire.AddItemsResponse, error)
}

type CatalogClient interface {
	GetAllProducts(ctx context.Context) (ProductStream, error)
}

type ProductStream interface {
	Recv() (*wire.Product, error)
	Close() error
}

type OrchestratorConfig struct {
	IdentityServerURL string
	ClientID          string
	ClientSecret      string
	Scope             string
	UserName          string
	DiscountCode      string
	ItemColor         string
	Interval          time.Duration
}

// Orchestrator assembles one user's cart from the full catalog, one cycle
// per interval. Cycles are strictly sequential; a cycle runs its whole
// streamed exchange before the next one starts.
type Orchestrator struct {
	cfg      OrchestratorConfig
	identity IdentityClient
	carts    CartClient
	catalog  CatalogClient
	log      *zap.SugaredLogger
}

func NewOrchestrator(cfg OrchestratorConfig, identity IdentityClient, carts CartClient, catalog CatalogClient, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		identity: identity,
		carts:    carts,
		catalog:  catalog,
		log:      log,
	}
}

// Run loops until ctx is cancelled. Any error out of a cycle is fatal to the
// caller; soft failures are handled inside the cycle.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := o.RunCycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle does one full pass: token, get-or-create cart, stream every
// catalog product into one add-items session, read the aggregate result.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	o.log.Infow("worker cycle started", "user", o.cfg.UserName)

	// Token and discovery failures downgrade the cycle: read operations will
	// be rejected, but the anonymous add-items path still works.
	token := o.acquireToken(ctx)

	if err := o.getOrCreateCart(ctx, token); err != nil {
		return err
	}

	session, err := o.carts.AddItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to open add-items session: %w", err)
	}

	products, err := o.catalog.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to open catalog stream: %w", err)
	}
	defer products.Close()

	count := 0
	for {
		// Cancellation is honored between elements, not just at cycle
		// boundaries.
		if err := ctx.Err(); err != nil {
			return err
		}

		product, err := products.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("catalog stream failed: %w", err)
		}

		element := wire.AddItemRequest{
			UserName:     o.cfg.UserName,
			DiscountCode: o.cfg.DiscountCode,
			NewCartItem: wire.CartItem{
				ProductID:   product.ProductID,
				ProductName: product.Name,
				Price:       product.Price,
				Color:       o.cfg.ItemColor,
				Quantity:    1,
			},
		}
		if err := session.Send(element); err != nil {
			return fmt.Errorf("failed to send add-item element: %w", err)
		}
		count++
		o.log.Debugw("add-item element sent", "product_id", product.ProductID)
	}

	result, err := session.CloseAndRecv()
	if err != nil {
		return fmt.Errorf("add-items session failed: %w", err)
	}

	o.log.Infow("worker cycle finished",
		"user", o.cfg.UserName,
		"streamed", count,
		"success", result.Success,
		"insert_count", result.InsertCount,
	)
	return nil
}

func (o *Orchestrator) acquireToken(ctx context.Context) string {
	doc, err := o.identity.Discover(ctx, o.cfg.IdentityServerURL)
	if err != nil {
		o.log.Errorw("identity discovery failed, proceeding without credential", "err", err)
		return ""
	}

	token, err := o.identity.ClientCredentialsToken(ctx, doc.TokenEndpoint,
		o.cfg.ClientID, o.cfg.ClientSecret, o.cfg.Scope)
	if err != nil {
		o.log.Errorw("token exchange failed, proceeding without credential", "err", err)
		return ""
	}

	o.log.Infow("access token acquired", "client", o.cfg.ClientID)
	return token
}

func (o *Orchestrator) getOrCreateCart(ctx context.Context, token string) error {
	cart, err := o.carts.GetCart(ctx, o.cfg.UserName, token)
	if err == nil {
		o.log.Infow("cart found", "user", cart.UserName, "items", len(cart.Items))
		return nil
	}
	if !apierr.IsNotFound(err) {
		return fmt.Errorf("failed to get cart: %w", err)
	}

	created, err := o.carts.CreateCart(ctx, o.cfg.UserName, token)
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	o.log.Infow("cart created", "user", created.UserName)
	return nil
}
