package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/apierr"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/cache"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Discount is the resolved value of a discount code: the amount subtracted
// from the unit price of a freshly inserted item.
type Discount struct {
	Code   string
	Amount float64
}

// DiscountResolver is the external discount lookup boundary.
type DiscountResolver interface {
	GetDiscount(ctx context.Context, code string) (*Discount, error)
}

// AddItemCommand is one element of an AddItems session. Elements are
// independent: each is evaluated against its own user's cart.
type AddItemCommand struct {
	UserName     string
	DiscountCode string
	Item         domain.CartItem
}

// AddItemStream yields AddItemCommands in arrival order, terminated by
// io.EOF. The sequence is finite and one-shot.
type AddItemStream interface {
	Recv() (*AddItemCommand, error)
}

type AddItemsResult struct {
	Success     bool
	InsertCount int64
}

type RemoveItemResult struct {
	Success bool
}

type CartService struct {
	repo      repository.CartRepository
	cache     cache.CartCache
	discounts DiscountResolver
	log       *zap.SugaredLogger
	sfg       singleflight.Group // collapses concurrent cache misses per user
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, discounts DiscountResolver, log *zap.SugaredLogger) *CartService {
	return &CartService{
		repo:      repo,
		cache:     cache,
		discounts: discounts,
		log:       log,
	}
}

// GetCart returns the cart for userName, reading through the cache. A missing
// cart is repository.ErrCartNotFound; only existing carts are ever cached.
func (s *CartService) GetCart(ctx context.Context, userName string) (*domain.Cart, error) {
	if err := validateUserName(userName); err != nil {
		return nil, err
	}

	v, err, _ := s.sfg.Do(userName, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userName)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warnw("cache get failed", "user", userName, "err", err)
		}

		cart, err = s.repo.GetCart(ctx, userName)
		if err != nil {
			return nil, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(ctx, userName, cart); errSet != nil {
				s.log.Warnw("cache set failed", "user", userName, "err", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// CreateCart stores an empty cart for userName. An existing cart is rejected
// with repository.ErrCartAlreadyExists, never overwritten.
func (s *CartService) CreateCart(ctx context.Context, userName string) (*domain.Cart, error) {
	if err := validateUserName(userName); err != nil {
		return nil, err
	}

	cart, err := s.repo.CreateCart(ctx, userName)
	if err != nil {
		return nil, err
	}

	s.log.Infow("cart created", "user", userName)
	return cart, nil
}

// AddItems drains one streamed session of add-item elements and applies them
// to a local working set, in arrival order. An element whose product id is
// already in the target cart increments its quantity; the element's discount
// code is ignored and the stored price untouched. A fresh product id is
// inserted with price = candidate price - resolved discount, with no floor.
//
// Any element referencing a user with no cart fails the whole session before
// anything is persisted, as does an unresolvable discount code. Mutations
// become visible atomically per cart at the final persist; a version conflict
// there is surfaced, not retried.
func (s *CartService) AddItems(ctx context.Context, stream AddItemStream) (*AddItemsResult, error) {
	working := make(map[string]*domain.Cart)
	var touched []string
	var mutations int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cmd, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if errValidate := validateCommand(cmd); errValidate != nil {
			return nil, errValidate
		}

		cart, ok := working[cmd.UserName]
		if !ok {
			cart, err = s.repo.GetCart(ctx, cmd.UserName)
			if err != nil {
				return nil, err
			}
			working[cmd.UserName] = cart
			touched = append(touched, cmd.UserName)
		}

		if existing := cart.Item(cmd.Item.ProductID); existing != nil {
			existing.Quantity++
			mutations++
			continue
		}

		discount, err := s.discounts.GetDiscount(ctx, cmd.DiscountCode)
		if err != nil {
			return nil, err
		}

		item := cmd.Item
		item.Price -= discount.Amount
		cart.Items = append(cart.Items, item)
		mutations++
	}

	for _, userName := range touched {
		if _, err := s.repo.PersistCart(ctx, working[userName]); err != nil {
			return nil, err
		}
		s.invalidate(userName)
	}

	s.log.Infow("add items session committed", "carts", len(touched), "mutations", mutations)
	return &AddItemsResult{Success: mutations > 0, InsertCount: mutations}, nil
}

// RemoveItem deletes one product line. A missing cart and a missing line are
// both not-found conditions, distinguishable by message only.
func (s *CartService) RemoveItem(ctx context.Context, userName string, productID int64) (*RemoveItemResult, error) {
	if err := validateUserName(userName); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, apierr.InvalidArgument("product_id must be greater than 0")
	}

	cart, err := s.repo.GetCart(ctx, userName)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return nil, apierr.NotFound("cart item with product id = %d is not found in the cart", productID)
	}

	removed, err := s.repo.PersistCart(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.invalidate(userName)

	return &RemoveItemResult{Success: removed > 0}, nil
}

func (s *CartService) invalidate(userName string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userName); err != nil {
		s.log.Warnw("cache invalidate failed", "user", userName, "err", err)
	}
}

func validateUserName(userName string) error {
	if strings.TrimSpace(userName) == "" {
		return apierr.InvalidArgument("username must not be empty")
	}
	return nil
}

func validateCommand(cmd *AddItemCommand) error {
	if err := validateUserName(cmd.UserName); err != nil {
		return err
	}
	if cmd.Item.ProductID <= 0 {
		return apierr.InvalidArgument("product_id must be greater than 0")
	}
	if cmd.Item.Quantity <= 0 {
		return apierr.InvalidArgument("quantity must be greater than 0")
	}
	return nil
}
