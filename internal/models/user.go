package models

import "time"

// User represents a marketplace account.
type User struct {
	ID        string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	Name      string    `json:"name" bson:"name" gorm:"type:varchar(255)"`
	Password  string    `json:"-" bson:"password_hash" gorm:"column:password_hash;type:varchar(255);not null"` // bcrypt hash, never serialized
	Role      Role      `json:"role" bson:"role" gorm:"type:varchar(16);not null;default:buyer"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID   string
	Role Role
}
