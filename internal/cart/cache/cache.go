package cache

import (
	"context"
	"errors"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
)

type CartCache interface {
	Get(ctx context.Context, userName string) (*domain.Cart, error)
	Set(ctx context.Context, userName string, cart *domain.Cart) error
	Delete(ctx context.Context, userName string) error
}

var ErrCacheMiss = errors.New("cache miss")
