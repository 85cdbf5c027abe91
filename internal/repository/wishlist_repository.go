package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dias221467/Wishlist_Manager/internal/models"
	"github.com/Dias221467/Wishlist_Manager/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const imageBatchSize = 500

// ErrWishlistItemNotFound is returned when an item does not exist or is owned
// by another user.
var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistRepository stores wishlist items in MongoDB. Every query is scoped
// by the owning user id.
type WishlistRepository struct {
	collection *mongo.Collection
}

// NewWishlistRepository creates a new instance of WishlistRepository.
func NewWishlistRepository(db *mongo.Database) *WishlistRepository {
	return &WishlistRepository{collection: db.Collection("wishlist")}
}

// EnsureIndexes creates the owner index used by every query.
func (r *WishlistRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create wishlist user_id index: %w", err)
	}
	return nil
}

// Create inserts the item under userID and returns it with its assigned id.
func (r *WishlistRepository) Create(ctx context.Context, userID string, item *models.WishlistItem) (*models.WishlistItem, error) {
	now := time.Now()
	item.ID = primitive.NilObjectID
	item.UserID = userID
	item.CreatedAt = now
	item.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		logger.Log.WithError(err).WithField("userID", userID).Error("Failed to insert wishlist item")
		return nil, fmt.Errorf("insert wishlist item: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert wishlist item: unexpected id type %T", result.InsertedID)
	}
	item.ID = insertedID

	logger.Log.WithFields(map[string]interface{}{
		"userID": userID,
		"itemID": item.ID.Hex(),
	}).Info("Wishlist item created")
	return item, nil
}

// Get fetches a single item owned by userID.
func (r *WishlistRepository) Get(ctx context.Context, userID, id string) (*models.WishlistItem, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrWishlistItemNotFound
	}

	var item models.WishlistItem
	err = r.collection.FindOne(ctx, ownedBy(userID, objID)).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrWishlistItemNotFound
	}
	if err != nil {
		logger.Log.WithError(err).WithField("itemID", id).Error("Failed to find wishlist item")
		return nil, fmt.Errorf("find wishlist item: %w", err)
	}
	return &item, nil
}

// List returns every item owned by userID. The result is never nil.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		logger.Log.WithError(err).WithField("userID", userID).Error("Failed to list wishlist items")
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.WishlistItem{}
	for cursor.Next(ctx) {
		var item models.WishlistItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("decode wishlist item: %w", err)
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist items: %w", err)
	}

	return items, nil
}

// Patch overwrites the patch fields of an owned item and returns the stored
// result after the update.
func (r *WishlistRepository) Patch(ctx context.Context, userID, id string, patch *models.WishlistPatch) (*models.WishlistItem, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrWishlistItemNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.WishlistItem
	err = r.collection.FindOneAndUpdate(ctx, ownedBy(userID, objID), bson.M{"$set": patch}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrWishlistItemNotFound
	}
	if err != nil {
		logger.Log.WithError(err).WithField("itemID", id).Error("Failed to update wishlist item")
		return nil, fmt.Errorf("update wishlist item: %w", err)
	}

	logger.Log.WithField("itemID", id).Info("Wishlist item updated")
	return &updated, nil
}

// Delete removes an owned item.
func (r *WishlistRepository) Delete(ctx context.Context, userID, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrWishlistItemNotFound
	}

	result, err := r.collection.DeleteOne(ctx, ownedBy(userID, objID))
	if err != nil {
		logger.Log.WithError(err).WithField("itemID", id).Error("Failed to delete wishlist item")
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrWishlistItemNotFound
	}

	logger.Log.WithField("itemID", id).Info("Wishlist item deleted")
	return nil
}

// EachImage streams the image URL of every item across all users into fn.
// Iteration stops at the first error returned by fn.
func (r *WishlistRepository) EachImage(ctx context.Context, fn func(imageURL string) error) error {
	filter := bson.M{"image": bson.M{"$exists": true, "$ne": ""}}
	opts := options.Find().SetProjection(bson.M{"image": 1}).SetBatchSize(imageBatchSize)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("list wishlist images: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			Image string `bson:"image"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decode wishlist image: %w", err)
		}
		if err := fn(doc.Image); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate wishlist images: %w", err)
	}
	return nil
}

func ownedBy(userID string, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "user_id": userID}
}
