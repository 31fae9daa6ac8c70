package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/symph-co/shorturl/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateSlug signals that another link already owns the slug.
	ErrDuplicateSlug = errors.New("slug already in use")
)

// LinkRepository defines the data access contract for short links.
//
// Lookups report absence as a nil link with a nil error.
type LinkRepository interface {
	FindByID(ctx context.Context, id string) (*model.Link, error)
	FindBySlug(ctx context.Context, slug string) (*model.Link, error)
	Save(ctx context.Context, link model.Link) (*model.Link, error)
	Update(ctx context.Context, id string, patch model.LinkPatch) (*model.Link, error)
	DeleteByID(ctx context.Context, id string) error
	FindAllPaginated(ctx context.Context, page, limit int) ([]model.Link, error)
	CountAll(ctx context.Context) (int64, error)
}

// ExpiryCounter counts links whose expiry lies before a point in time.
type ExpiryCounter interface {
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}

// LinkStore is the Postgres-backed LinkRepository. It owns no caching.
type LinkStore struct {
	db *gorm.DB
}

// NewLinkStore returns a GORM-backed link store.
func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) FindByID(ctx context.Context, id string) (*model.Link, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.first(ctx, "id = ?", id)
}

func (s *LinkStore) FindBySlug(ctx context.Context, slug string) (*model.Link, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *LinkStore) first(ctx context.Context, query string, arg interface{}) (*model.Link, error) {
	var link model.Link
	if err := s.db.WithContext(ctx).Where(query, arg).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (s *LinkStore) Save(ctx context.Context, link model.Link) (*model.Link, error) {
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *LinkStore) Update(ctx context.Context, id string, patch model.LinkPatch) (*model.Link, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	if cols := patch.Columns(); len(cols) > 0 {
		result := s.db.WithContext(ctx).
			Model(&model.Link{}).
			Where("id = ?", id).
			Updates(cols)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, nil
		}
	}

	return s.FindByID(ctx, id)
}

func (s *LinkStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Link{}).Error
}

func (s *LinkStore) FindAllPaginated(ctx context.Context, page, limit int) ([]model.Link, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var result []model.Link
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (s *LinkStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Link{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *LinkStore) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Count(&n).Error
	return n, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlug
	}
	return err
}

var _ LinkRepository = (*LinkStore)(nil)
