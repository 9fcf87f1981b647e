package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) CartRepository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userName string) (*domain.Cart, error) {
	var cart domain.Cart

	filter := bson.M{"user_name": userName}
	err := m.collection.FindOne(ctx, filter).Decode(&cart)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

func (m *mongoRepository) CreateCart(ctx context.Context, userName string) (*domain.Cart, error) {
	now := time.Now()
	cart := &domain.Cart{
		UserName:  userName,
		Items:     []domain.CartItem{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := m.collection.InsertOne(ctx, cart)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCartAlreadyExists
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	if oid, ok := res.InsertedID.(interface{ Hex() string }); ok {
		cart.ID = oid.Hex()
	}
	return cart, nil
}

// PersistCart commits the cart with a conditional update on the version it
// was read at. The version filter is what serializes writers per cart
// identity: whoever matches first wins, the loser sees ErrCartConflict.
func (m *mongoRepository) PersistCart(ctx context.Context, cart *domain.Cart) (int64, error) {
	now := time.Now()

	filter := bson.M{
		"user_name": cart.UserName,
		"version":   cart.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"items":      cart.Items,
			"updated_at": now,
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to persist cart: %w", err)
	}

	if res.MatchedCount == 0 {
		// Either the cart vanished or someone bumped the version under us.
		count, err := m.collection.CountDocuments(ctx, bson.M{"user_name": cart.UserName})
		if err != nil {
			return 0, fmt.Errorf("failed to check cart presence: %w", err)
		}
		if count == 0 {
			return 0, ErrCartNotFound
		}
		return 0, ErrCartConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return res.ModifiedCount, nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, userName string) error {
	filter := bson.M{"user_name": userName}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// EnsureIndexes creates the unique user_name index that enforces the
// one-cart-per-user invariant. Must run before the repository serves writes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := db.Collection("carts").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
