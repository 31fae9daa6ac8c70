package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/symph-co/shorturl/internal/app/model"
	"github.com/symph-co/shorturl/internal/app/repository"
	"go.uber.org/zap"
)

// maxSlugAttempts bounds regeneration when a generated slug collides.
const maxSlugAttempts = 3

// LinkService defines behaviour-level operations on links.
// Absent links are reported as a nil link with a nil error.
type LinkService interface {
	Create(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	GetByID(ctx context.Context, id string) (*model.Link, error)
	GetBySlug(ctx context.Context, slug string) (*model.Link, error)
	GetAll(ctx context.Context, page, limit int) (*Page, error)
	Update(ctx context.Context, id string, input UpdateLinkInput) (*model.Link, error)
	Delete(ctx context.Context, id string) error
}

// Config holds the defaults the service applies.
type Config struct {
	ShortURLBase string
	DefaultPage  int
	DefaultLimit int
}

// Deps groups the collaborators of the link service. Events and Slugs are optional.
type Deps struct {
	Links  repository.LinkRepository
	Events EventPublisher
	Slugs  *SlugGenerator
	Config Config
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

type linkService struct {
	links  repository.LinkRepository
	events EventPublisher
	slugs  *SlugGenerator
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(deps Deps) LinkService {
	s := &linkService{
		links:  deps.Links,
		events: deps.Events,
		slugs:  deps.Slugs,
		cfg:    deps.Config,
		logger: deps.Logger,
		now:    deps.Now,
		newID:  deps.NewID,
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.slugs == nil {
		s.slugs = NewSlugGenerator(DefaultSlugGuardSize)
	}
	if s.cfg.ShortURLBase == "" {
		s.cfg.ShortURLBase = "https://symph.co/"
	}
	if s.cfg.DefaultPage <= 0 {
		s.cfg.DefaultPage = 1
	}
	if s.cfg.DefaultLimit <= 0 {
		s.cfg.DefaultLimit = 5
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// CreateLinkInput captures data required to create a link. An empty Slug
// asks the service to generate one.
type CreateLinkInput struct {
	OriginalURL string
	Slug        string
	ExpiresAt   *time.Time
	UTM         model.UTM
}

// UpdateLinkInput captures fields that can be changed on an existing link.
type UpdateLinkInput struct {
	OriginalURL *string
	Slug        *string
	ExpiresAt   *time.Time
	UTM         model.UTM
}

// Page is one page of links plus the derived page count.
type Page struct {
	Results    []model.Link `json:"results"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

func (s *linkService) Create(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	now := s.now()
	link := model.Link{
		ID:          s.newID(),
		OriginalURL: input.OriginalURL,
		CreatedAt:   now,
		UpdatedAt:   now,
		ClickCount:  0,
	}.WithExpiresAt(input.ExpiresAt).WithUTM(input.UTM)

	if input.Slug != "" {
		saved, err := s.links.Save(ctx, link.WithSlug(s.cfg.ShortURLBase, input.Slug))
		if err != nil {
			return nil, fmt.Errorf("create link: %w", err)
		}
		s.publish(ctx, model.LinkCreated, saved)
		return saved, nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		saved, err := s.links.Save(ctx, link.WithSlug(s.cfg.ShortURLBase, s.slugs.Next()))
		if err == nil {
			s.publish(ctx, model.LinkCreated, saved)
			return saved, nil
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, fmt.Errorf("create link: %w", err)
		}
		lastErr = err
		s.logger.Warn("generated slug collided, regenerating", zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("create link: %d generated slugs collided: %w", maxSlugAttempts, lastErr)
}

func (s *linkService) GetByID(ctx context.Context, id string) (*model.Link, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) GetBySlug(ctx context.Context, slug string) (*model.Link, error) {
	link, err := s.links.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get link by slug: %w", err)
	}
	return link, nil
}

func (s *linkService) GetAll(ctx context.Context, page, limit int) (*Page, error) {
	if page <= 0 {
		page = s.cfg.DefaultPage
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	results, err := s.links.FindAllPaginated(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	total, err := s.links.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}
	if results == nil {
		results = []model.Link{}
	}

	return &Page{
		Results:    results,
		Page:       page,
		TotalPages: totalPages(total, limit),
	}, nil
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Update keeps shortUrl in step with slug.
func (s *linkService) Update(ctx context.Context, id string, input UpdateLinkInput) (*model.Link, error) {
	patch := model.LinkPatch{
		OriginalURL: input.OriginalURL,
		Slug:        input.Slug,
		ExpiresAt:   input.ExpiresAt,
		UTMSource:   input.UTM.Source,
		UTMMedium:   input.UTM.Medium,
		UTMCampaign: input.UTM.Campaign,
		UTMTerm:     input.UTM.Term,
		UTMContent:  input.UTM.Content,
	}
	if input.Slug != nil {
		shortURL := model.ShortURLFor(s.cfg.ShortURLBase, *input.Slug)
		patch.ShortURL = &shortURL
	}

	link, err := s.links.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	if link != nil {
		s.publish(ctx, model.LinkUpdated, link)
	}
	return link, nil
}

func (s *linkService) Delete(ctx context.Context, id string) error {
	if err := s.links.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	s.publish(ctx, model.LinkDeleted, &model.Link{ID: id})
	return nil
}

func (s *linkService) publish(ctx context.Context, t model.LinkEventType, link *model.Link) {
	event := model.LinkEvent{
		ID:         uuid.NewString(),
		Type:       t,
		LinkID:     link.ID,
		Slug:       link.Slug,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish link event",
			zap.String("type", string(t)),
			zap.String("link_id", link.ID),
			zap.Error(err),
		)
	}
}
