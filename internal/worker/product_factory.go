package worker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductFactory fabricates catalog entries for the product worker.
type ProductFactory struct {
	NamePrefix string
}

func (f *ProductFactory) Generate() wire.Product {
	return wire.Product{
		Name:        fmt.Sprintf("%s_%s", f.NamePrefix, uuid.NewString()[:8]),
		Description: fmt.Sprintf("%s product generated at %s", f.NamePrefix, time.Now().Format(time.RFC3339)),
		Price:       float64(rand.Intn(9000)+1000) / 10,
		Status:      1, // in stock
		CreatedAt:   time.Now().UTC(),
	}
}

type ProductInserter interface {
	AddProduct(ctx context.Context, product wire.Product) (*wire.Product, error)
}

// ProductWorker inserts one generated product per interval. Insert failures
// are fatal: a catalog that cannot accept writes means the whole pipeline is
// down.
type ProductWorker struct {
	factory  *ProductFactory
	catalog  ProductInserter
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewProductWorker(factory *ProductFactory, catalog ProductInserter, interval time.Duration, log *zap.SugaredLogger) *ProductWorker {
	return &ProductWorker{
		factory:  factory,
		catalog:  catalog,
		interval: interval,
		log:      log,
	}
}

func (w *ProductWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		product := w.factory.Generate()
		inserted, err := w.catalog.AddProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("failed to add product: %w", err)
		}
		w.log.Infow("product inserted", "id", inserted.ProductID, "name", inserted.Name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
