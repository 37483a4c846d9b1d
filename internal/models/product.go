package models

import "time"

// Product represents a product in the store catalog.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null" bson:"name" validate:"required,min=3,max=100"`
	Description string    `json:"description" gorm:"type:varchar(500)" bson:"description" validate:"omitempty,max=500"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Stock       int       `json:"stock" bson:"stock" validate:"gte=0"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}
