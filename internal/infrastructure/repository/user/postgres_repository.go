// Package user provides the GORM-backed implementation of the user
// repository.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "coachchat/ai-bridge/internal/domain/user"
	"coachchat/ai-bridge/internal/infrastructure/database/entities"
)

// PostgresRepository implements domain.Repository on PostgreSQL.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository wraps the shared GORM handle.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ domain.Repository = (*PostgresRepository)(nil)

// Create inserts the account, assigning a public ID when absent.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	entity := toEntity(u)
	if entity.PublicID == "" {
		entity.PublicID = uuid.NewString()
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	*u = *toDomain(entity)
	return nil
}

// FindByUsername returns the account with the given username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByEmail returns the account with the given email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var entity entities.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomain(&entity), nil
}

// ListMemories returns username -> memory for every account.
func (r *PostgresRepository) ListMemories(ctx context.Context) (map[string]string, error) {
	var rows []entities.User
	if err := r.db.WithContext(ctx).Select("username", "memory").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	memories := make(map[string]string, len(rows))
	for _, row := range rows {
		memories[row.Username] = row.Memory
	}
	return memories, nil
}

// UpdateMemory overwrites the stored memory for the given username.
func (r *PostgresRepository) UpdateMemory(ctx context.Context, username, memory string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("username = ?", username).
		Update("memory", memory)
	if result.Error != nil {
		return fmt.Errorf("update memory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key")
}

func toEntity(u *domain.User) *entities.User {
	return &entities.User{
		ID:           u.ID,
		PublicID:     u.PublicID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Memory:       u.Memory,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomain(e *entities.User) *domain.User {
	return &domain.User{
		ID:           e.ID,
		PublicID:     e.PublicID,
		Username:     e.Username,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		Memory:       e.Memory,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
