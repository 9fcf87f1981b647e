// Package poller drains checkout events and removes the corresponding carts.
// Cart deletion has no RPC surface; a completed checkout is the only thing
// that ends a cart's life.
package poller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/cache"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type checkoutEvent struct {
	UserName string `json:"username"`
}

type Poller struct {
	repo   repository.CartRepository
	cache  cache.CartCache
	reader *kafka.Reader
	log    *zap.SugaredLogger
}

func NewPoller(repo repository.CartRepository, cache cache.CartCache, log *zap.SugaredLogger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-outbox",
		GroupID:  "cart-service-consumer",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{repo: repo, cache: cache, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warnw("read checkout event failed", "err", err)
			}
			continue
		}

		p.handleMessage(ctx, m)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warnw("close kafka reader failed", "err", err)
	}
}

func (p *Poller) handleMessage(ctx context.Context, m kafka.Message) {
	var event checkoutEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Warnw("malformed checkout event", "err", err)
		return
	}
	if event.UserName == "" {
		p.log.Warnw("checkout event missing username")
		return
	}

	if err := p.repo.DeleteCart(ctx, event.UserName); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		p.log.Errorw("delete cart failed", "user", event.UserName, "err", err)
		return
	}

	if err := p.cache.Delete(ctx, event.UserName); err != nil {
		p.log.Warnw("cache delete failed", "user", event.UserName, "err", err)
	}

	p.log.Infow("cart cleared after checkout", "user", event.UserName)
}
