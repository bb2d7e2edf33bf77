package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuestCartRecord is a row of guest_carts.
type GuestCartRecord struct {
	SessionID string     `gorm:"column:session_id;primaryKey"`
	Items     string     `gorm:"column:items;not null"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
}

func (GuestCartRecord) TableName() string { return "guest_carts" }

// Repository persists guest carts in postgres or sqlite.
type Repository struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewRepository constructs a guest cart repository bound to the provided DB.
func NewRepository(db *gorm.DB, ttl time.Duration) *Repository {
	return &Repository{db: db, ttl: ttl, now: time.Now}
}

// Load returns the unexpired guest cart for the session.
func (r *Repository) Load(ctx context.Context, sessionID string) (GuestItems, error) {
	var record GuestCartRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND (expires_at IS NULL OR expires_at > ?)", sessionID, r.now().UTC()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GuestItems{}, nil
		}
		return nil, err
	}
	return decodeGuestItems(record.Items)
}

// Save upserts the guest cart for the session.
func (r *Repository) Save(ctx context.Context, sessionID string, items GuestItems) error {
	raw, err := encodeGuestItems(items)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	record := GuestCartRecord{
		SessionID: sessionID,
		Items:     raw,
		UpdatedAt: now,
	}
	if r.ttl > 0 {
		expires := now.Add(r.ttl)
		record.ExpiresAt = &expires
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at", "expires_at"}),
		}).
		Create(&record).Error
}

// Clear deletes the guest cart for the session.
func (r *Repository) Clear(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&GuestCartRecord{}).Error
}

// PurgeExpired deletes expired guest carts and returns how many were removed.
func (r *Repository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", r.now().UTC()).
		Delete(&GuestCartRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging expired guest carts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
