package poller

import (
	"context"
	"errors"
	"testing"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
	"github.com/amunra1102/grpc-asp-demo/internal/cart/repository"
	"github.com/amunra1102/grpc-asp-demo/internal/platform/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

type mockRepo struct {
	deleted   []string
	deleteErr error
}

func (m *mockRepo) GetCart(context.Context, string) (*domain.Cart, error) {
	return nil, repository.ErrCartNotFound
}

func (m *mockRepo) CreateCart(context.Context, string) (*domain.Cart, error) {
	return nil, errors.New("not implemented")
}

func (m *mockRepo) PersistCart(context.Context, *domain.Cart) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockRepo) DeleteCart(_ context.Context, userName string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, userName)
	return nil
}

type mockCache struct {
	deleted []string
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCache) Set(context.Context, string, *domain.Cart) error { return nil }

func (m *mockCache) Delete(_ context.Context, userName string) error {
	m.deleted = append(m.deleted, userName)
	return nil
}

func newTestPoller(repo *mockRepo, cache *mockCache) *Poller {
	return &Poller{repo: repo, cache: cache, log: logger.NewNop()}
}

func TestHandleMessage_DeletesCartAndCache(t *testing.T) {
	repo := &mockRepo{}
	cache := &mockCache{}
	p := newTestPoller(repo, cache)

	p.handleMessage(context.Background(), kafka.Message{Value: []byte(`{"username":"swn"}`)})

	assert.Equal(t, []string{"swn"}, repo.deleted)
	assert.Equal(t, []string{"swn"}, cache.deleted)
}

func TestHandleMessage_MalformedEventIgnored(t *testing.T) {
	repo := &mockRepo{}
	cache := &mockCache{}
	p := newTestPoller(repo, cache)

	p.handleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})

	assert.Empty(t, repo.deleted)
	assert.Empty(t, cache.deleted)
}

func TestHandleMessage_MissingUserNameIgnored(t *testing.T) {
	repo := &mockRepo{}
	cache := &mockCache{}
	p := newTestPoller(repo, cache)

	p.handleMessage(context.Background(), kafka.Message{Value: []byte(`{}`)})

	assert.Empty(t, repo.deleted)
	assert.Empty(t, cache.deleted)
}

func TestHandleMessage_AlreadyDeletedCartStillInvalidatesCache(t *testing.T) {
	repo := &mockRepo{deleteErr: repository.ErrCartNotFound}
	cache := &mockCache{}
	p := newTestPoller(repo, cache)

	p.handleMessage(context.Background(), kafka.Message{Value: []byte(`{"username":"swn"}`)})

	assert.Equal(t, []string{"swn"}, cache.deleted)
}

func TestHandleMessage_RepoFailureSkipsCache(t *testing.T) {
	repo := &mockRepo{deleteErr: errors.New("mongo down")}
	cache := &mockCache{}
	p := newTestPoller(repo, cache)

	p.handleMessage(context.Background(), kafka.Message{Value: []byte(`{"username":"swn"}`)})

	assert.Empty(t, cache.deleted)
}
