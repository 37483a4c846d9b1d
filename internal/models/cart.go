package models

import "time"

// CartItem is a single product line within a cart.
type CartItem struct {
	ProductID string `json:"productId" bson:"product_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// Cart is the per-user shopping cart. There is at most one cart per user.
//
// Version is bumped by every successful save; stores only accept a save whose
// Version matches the stored one.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID    string     `json:"userId" gorm:"uniqueIndex;type:varchar(36);not null" bson:"user_id"`
	Items     []CartItem `json:"items" gorm:"serializer:json;type:text" bson:"items"`
	Version   int64      `json:"version" gorm:"not null;default:0" bson:"version"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// FindItem returns the index of the line for productID, or -1.
func (c *Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate items without touching
// the original.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.Items = make([]CartItem, len(c.Items))
	copy(clone.Items, c.Items)
	return &clone
}
