package repository

import (
	"context"

	"github.com/symph-co/shorturl/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkEventRepository stores the audit trail of link lifecycle events.
type LinkEventRepository interface {
	Create(ctx context.Context, event *model.LinkEvent) error
}

type linkEventRepository struct {
	db *gorm.DB
}

// NewLinkEventRepository returns a GORM-backed LinkEventRepository.
func NewLinkEventRepository(db *gorm.DB) LinkEventRepository {
	return &linkEventRepository{db: db}
}

// Create is idempotent on the event id so redelivered messages are harmless.
func (r *linkEventRepository) Create(ctx context.Context, event *model.LinkEvent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}
