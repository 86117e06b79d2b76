package pages

import (
	"errors"

	"jobcrawler/internal/models"
	"jobcrawler/internal/store"
	"jobcrawler/internal/utils/parser"

	"github.com/gofiber/fiber/v2"
)

const maxListLimit = 500

type Handler struct {
	pages store.PageStore
	sites store.SiteStore
}

func NewHandler(pages store.PageStore, sites store.SiteStore) *Handler {
	return &Handler{pages: pages, sites: sites}
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}

type listQuery struct {
	Status string `form:"status"`
	Site   string `form:"site"`
	Limit  int    `form:"limit"`
}

// HandleList serves GET /v1/pages?status=&site=&limit=
func (h *Handler) HandleList(c *fiber.Ctx) error {
	q := listQuery{Limit: 100}
	if err := parser.ParseQuery(c, &q); err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	f := store.PageFilter{Limit: q.Limit}
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if q.Status != "" {
		st, ok := models.ParsePageStatus(q.Status)
		if !ok {
			return fail(c, fiber.StatusBadRequest, "invalid status")
		}
		f.Status = st
	}
	if q.Site != "" {
		site, err := h.sites.GetSite(c.Context(), q.Site)
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "site not found")
		}
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, err.Error())
		}
		f.SiteID = site.ID
	}
	list, err := h.pages.ListPages(c.Context(), f)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "pages": list})
}

// HandleRetry resets an error page to pending so the next cycle picks it up.
func (h *Handler) HandleRetry(c *fiber.Ctx) error {
	id := c.Params("id")
	page, err := h.pages.GetPage(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "not_found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	if page.Status != models.PageError {
		return fail(c, fiber.StatusConflict, "only pages in error can be retried")
	}
	if err := h.pages.ResetPage(c.Context(), id); err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "id": id, "status": models.PagePending})
}
