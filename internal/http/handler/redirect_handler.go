package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/symph-co/shorturl/internal/app/apperror"
	"github.com/symph-co/shorturl/internal/app/model"
	"github.com/symph-co/shorturl/internal/app/service"
	"github.com/symph-co/shorturl/internal/http/middleware"
	"github.com/symph-co/shorturl/internal/http/view"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Now         func() time.Time
}

// RedirectHandler resolves slugs for browsers.
type RedirectHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	now         func() time.Time
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &RedirectHandler{
		logger:      logger,
		linkService: deps.LinkService,
		now:         now,
	}
}

// Register wires redirect routes onto the provided router. It must run after
// every fixed single-segment route.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/:slug/preview", h.Preview)
	router.Get("/:slug", h.Resolve)
}

// Resolve handles GET /:slug. Expiry is reported, not enforced.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	link, err := h.load(c)
	if err != nil {
		return err
	}

	if link.IsExpired(h.now()) {
		c.Set(middleware.LinkExpiredHeader, "true")
	}

	h.logger.Debug("redirecting short link", zap.String("slug", link.Slug), zap.String("target", link.OriginalURL))
	return c.Redirect(link.OriginalURL, fiber.StatusFound)
}

// Preview handles GET /:slug/preview
func (h *RedirectHandler) Preview(c *fiber.Ctx) error {
	link, err := h.load(c)
	if err != nil {
		return err
	}

	html, err := view.RenderPreviewPage(view.PreviewPageData{
		Slug:      link.Slug,
		ShortURL:  link.ShortURL,
		TargetURL: link.OriginalURL,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
		Expired:   link.IsExpired(h.now()),
	})
	if err != nil {
		return err
	}

	return c.Type("html", "utf-8").SendString(html)
}

func (h *RedirectHandler) load(c *fiber.Ctx) (*model.Link, error) {
	link, err := h.linkService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperror.NotFound()
	}
	return link, nil
}
