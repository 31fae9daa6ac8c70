package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/go-playground/validator/v10"
	"github.com/symph-co/shorturl/internal/app/apperror"
	"github.com/symph-co/shorturl/internal/app/model"
	"github.com/symph-co/shorturl/internal/app/repository"
	"github.com/symph-co/shorturl/internal/app/service"
	"go.uber.org/zap"
)

// MaxPageLimit caps the page size a client may request.
const MaxPageLimit = 100

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Now         func() time.Time
}

// APIHandler implements the /api/uri management endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	validate    *validator.Validate
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		validate:    newValidator(now),
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	uri := router.Group("/api/uri")
	{
		uri.Post("/", h.CreateLink)
		uri.Get("/", h.ListLinks)
		uri.Get("/:id", h.GetLink)
		uri.Put("/:id", h.UpdateLink)
		uri.Delete("/:id", h.DeleteLink)
	}
}

// utmFields are the optional campaign parameters shared by create and update.
type utmFields struct {
	UTMSource   *string `json:"utmSource,omitempty" validate:"omitempty,max=255"`
	UTMMedium   *string `json:"utmMedium,omitempty" validate:"omitempty,max=255"`
	UTMCampaign *string `json:"utmCampaign,omitempty" validate:"omitempty,max=255"`
	UTMTerm     *string `json:"utmTerm,omitempty" validate:"omitempty,max=255"`
	UTMContent  *string `json:"utmContent,omitempty" validate:"omitempty,max=255"`
}

func (u utmFields) utm() model.UTM {
	return model.UTM{
		Source:   u.UTMSource,
		Medium:   u.UTMMedium,
		Campaign: u.UTMCampaign,
		Term:     u.UTMTerm,
		Content:  u.UTMContent,
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	OriginalURL string     `json:"originalUrl" validate:"required,http_url"`
	Slug        string     `json:"slug,omitempty" validate:"omitempty,slug"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" validate:"omitempty,future"`
	utmFields
}

// UpdateLinkRequest represents the request body for updating a link.
type UpdateLinkRequest struct {
	OriginalURL *string    `json:"originalUrl,omitempty" validate:"omitempty,http_url"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,slug"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" validate:"omitempty,future"`
	utmFields
}

// CreateLink handles POST /api/uri
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Invalid("Request body must be a JSON object.").Wrap(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	link, err := h.linkService.Create(c.UserContext(), service.CreateLinkInput{
		OriginalURL: req.OriginalURL,
		Slug:        req.Slug,
		ExpiresAt:   req.ExpiresAt,
		UTM:         req.utm(),
	})
	if err != nil {
		if req.Slug != "" && errors.Is(err, repository.ErrDuplicateSlug) {
			return apperror.SlugTaken(req.Slug).Wrap(err)
		}
		return err
	}

	h.logger.Debug("link created", zap.String("id", link.ID), zap.String("slug", link.Slug))
	return c.Status(fiber.StatusCreated).JSON(link)
}

// ListLinks handles GET /api/uri?page=&limit=
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	page := c.QueryInt("page")
	limit := c.QueryInt("limit")
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	result, err := h.linkService.GetAll(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetLink handles GET /api/uri/:id
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	link, err := h.linkService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if link == nil {
		return apperror.NotFound()
	}
	return c.JSON(link)
}

// UpdateLink handles PUT /api/uri/:id
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Invalid("Request body must be a JSON object.").Wrap(err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(err)
	}

	id := c.Params("id")
	link, err := h.linkService.Update(c.UserContext(), id, service.UpdateLinkInput{
		OriginalURL: req.OriginalURL,
		Slug:        req.Slug,
		ExpiresAt:   req.ExpiresAt,
		UTM:         req.utm(),
	})
	if err != nil {
		if req.Slug != nil && errors.Is(err, repository.ErrDuplicateSlug) {
			return apperror.SlugTaken(*req.Slug).Wrap(err)
		}
		return err
	}
	if link == nil {
		return apperror.NotFound()
	}

	h.logger.Debug("link updated", zap.String("id", id))
	return c.JSON(link)
}

// DeleteLink handles DELETE /api/uri/:id
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	if err := h.linkService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
