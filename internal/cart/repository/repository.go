package repository

import (
	"context"
	"errors"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartAlreadyExists = errors.New("cart already exists")
	// ErrCartConflict means a concurrent writer persisted the cart after we
	// read it. Not retried here; retry policy belongs to the caller.
	ErrCartConflict = errors.New("cart was modified concurrently")
)

// CartRepository owns cart records keyed by user name. Consumers define this
// interface, not the MongoDB implementation.
type CartRepository interface {
	GetCart(ctx context.Context, userName string) (*domain.Cart, error)
	// CreateCart stores an empty cart. A cart for an existing user name is
	// rejected with ErrCartAlreadyExists, never overwritten.
	CreateCart(ctx context.Context, userName string) (*domain.Cart, error)
	// PersistCart commits the locally mutated cart, conditional on the
	// version it was read at. Returns the number of committed documents
	// (0 or 1) so callers can signal success.
	PersistCart(ctx context.Context, cart *domain.Cart) (int64, error)
	DeleteCart(ctx context.Context, userName string) error
}
