package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/amunra1102/grpc-asp-demo/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_UsesPrefixAndPriceRange(t *testing.T) {
	f := &ProductFactory{NamePrefix: "Handmade"}

	for i := 0; i < 50; i++ {
		p := f.Generate()
		assert.True(t, strings.HasPrefix(p.Name, "Handmade_"))
		assert.GreaterOrEqual(t, p.Price, float64(100))
		assert.Less(t, p.Price, float64(1000))
		assert.Equal(t, int32(1), p.Status)
	}
}

func TestGenerate_NamesAreUnique(t *testing.T) {
	f := &ProductFactory{NamePrefix: "Handmade"}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := f.Generate().Name
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}

type mockInserter struct {
	mu       sync.Mutex
	inserted []wire.Product
	err      error
}

func (m *mockInserter) AddProduct(_ context.Context, product wire.Product) (*wire.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	product.ProductID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, product)
	return &product, nil
}

func (m *mockInserter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inserted)
}

func TestProductWorker_InsertsUntilCancelled(t *testing.T) {
	inserter := &mockInserter{}
	w := NewProductWorker(&ProductFactory{NamePrefix: "Handmade"}, inserter, time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, inserter.count(), 0)
}

func TestProductWorker_InsertFailureIsFatal(t *testing.T) {
	inserter := &mockInserter{err: errors.New("catalog down")}
	w := NewProductWorker(&ProductFactory{NamePrefix: "Handmade"}, inserter, time.Hour, logger.NewNop())

	err := w.Run(context.Background())
	require.ErrorContains(t, err, "failed to add product")
}
