package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WishlistItem is a savings goal owned by a single user, paired with one image
// stored in the blob store.
type WishlistItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Amount     float64            `bson:"amount" json:"amount"`
	SavingPlan string             `bson:"saving_plan" json:"saving_plan"`
	Type       string             `bson:"type" json:"type"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	UserID     string             `bson:"user_id" json:"userId"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// WishlistPatch is the set of fields rewritten by an update. Every field is
// always populated; the service fills gaps from the stored item.
type WishlistPatch struct {
	Name       string    `bson:"name"`
	Amount     float64   `bson:"amount"`
	SavingPlan string    `bson:"saving_plan"`
	Type       string    `bson:"type"`
	Image      string    `bson:"image,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at"`
}
