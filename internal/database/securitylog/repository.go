package securitylog

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/authgate/internal/entities"
)

// DefaultListLimit caps the number of entries returned by List.
const DefaultListLimit = 200

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append saves a security log entry. Entries are never updated afterwards.
func (r *Repository) Append(ctx context.Context, entry *entities.SecurityLogEntry) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// List retrieves the most recent entries, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]entities.SecurityLogEntry, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	var entries []entities.SecurityLogEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
