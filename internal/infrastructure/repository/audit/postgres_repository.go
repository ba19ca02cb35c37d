// Package audit persists completed AI replies for offline inspection.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"coachchat/ai-bridge/internal/domain/session"
	"coachchat/ai-bridge/internal/infrastructure/database/entities"
)

// PostgresRepository implements session.ReplyRecorder on PostgreSQL.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository wraps the shared GORM handle.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ session.ReplyRecorder = (*PostgresRepository)(nil)

// RecordReply appends one audit row per completed reply.
func (r *PostgresRepository) RecordReply(ctx context.Context, rec session.ReplyRecord) error {
	entity := entities.ReplyAudit{
		MessageID:  rec.MessageID,
		ChannelCID: rec.ChannelCID,
		UserID:     rec.UserID,
		Text:       rec.Text,
	}

	if rec.Usage != nil {
		raw, err := json.Marshal(rec.Usage)
		if err != nil {
			return fmt.Errorf("marshal usage: %w", err)
		}
		entity.Usage = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("record reply: %w", err)
	}
	return nil
}
