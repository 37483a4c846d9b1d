package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keranjang/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartsCollection is the MongoDB collection holding cart documents.
const CartsCollection = "carts"

// MongoCartRepository is a MongoDB implementation of CartRepository. Each cart
// is one document with its line items embedded, so every save is a
// single-document atomic write.
type MongoCartRepository struct {
	coll *mongo.Collection
}

// NewMongoCartRepository creates a repository over the carts collection of db.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{coll: db.Collection(CartsCollection)}
}

// EnsureIndexes creates the unique owner index (one cart per user).
func (r *MongoCartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_user_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create carts user_id index: %w", err)
	}
	return nil
}

// GetByUserID retrieves the cart owned by userID.
func (r *MongoCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("cart for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Save inserts a new cart or updates the stored one if its version still
// matches.
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	next := cart.Clone()
	next.UpdatedAt = now
	next.Version = cart.Version + 1

	if cart.Version == 0 {
		if next.ID == "" {
			next.ID = uuid.New().String()
		}
		next.CreatedAt = now
		if _, err := r.coll.InsertOne(ctx, next); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("cart for user %s: %w", cart.UserID, ErrVersionConflict)
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		*cart = *next
		return nil
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": cart.ID, "version": cart.Version},
		bson.M{
			"$set": bson.M{"items": next.Items, "updated_at": next.UpdatedAt},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("cart %s at version %d: %w", cart.ID, cart.Version, ErrVersionConflict)
	}
	*cart = *next
	return nil
}
