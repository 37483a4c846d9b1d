package models

import "time"

// User represents a registered customer.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username  string    `json:"username" gorm:"type:varchar(100);not null" bson:"username"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null" bson:"password"` // bcrypt hash, never serialized
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}
