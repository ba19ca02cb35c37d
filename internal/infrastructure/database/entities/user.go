package entities

import (
	"time"
)

// User represents the database schema for registered accounts.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID     string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email        string `gorm:"type:varchar(256);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(128);not null"`

	// Memory is the long-term context paragraph maintained by the
	// background extractor.
	Memory string `gorm:"type:text;not null;default:''"`
}

// TableName specifies the table name for User.
func (User) TableName() string {
	return "users"
}
