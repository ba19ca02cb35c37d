package user

import (
	"context"
	"errors"
	"time"
)

// User is a registered account. Memory holds the free-text long-term
// context maintained for the account by the background extractor.
type User struct {
	ID           uint      `json:"-"`
	PublicID     string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Memory       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned on username/email collisions.
var ErrAlreadyExists = errors.New("user already exists")

// Repository persists accounts and their memory blobs.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ListMemories returns username -> memory for every account. Used to
	// hydrate the in-process memory store at startup.
	ListMemories(ctx context.Context) (map[string]string, error)

	// UpdateMemory overwrites the stored memory for the given username.
	UpdateMemory(ctx context.Context, username, memory string) error
}
