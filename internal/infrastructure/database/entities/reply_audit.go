package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ReplyAudit records one completed AI reply per row. Appended after the
// session clears its indicator; never updated.
type ReplyAudit struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	MessageID  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	ChannelCID string `gorm:"type:varchar(128);index;not null"`
	UserID     string `gorm:"type:varchar(64);index;not null"`
	Text       string `gorm:"type:text;not null"`

	// Usage holds the token accounting reported by the backend, when any.
	Usage datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for ReplyAudit.
func (ReplyAudit) TableName() string {
	return "reply_audits"
}
