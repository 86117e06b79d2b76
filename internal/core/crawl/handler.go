package crawl

import (
	"errors"

	"jobcrawler/internal/core/cycle"
	"jobcrawler/internal/store"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	runs  *cycle.Service
	crawl *CrawlService
	sites store.SiteStore
}

func NewCrawlHandler(runs *cycle.Service, crawl *CrawlService, sites store.SiteStore) *Handler {
	return &Handler{runs: runs, crawl: crawl, sites: sites}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Success: false, Error: msg})
}

func (h *Handler) HandleListSites(c *fiber.Ctx) error {
	sites, err := h.sites.ListSites(c.Context())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "sites": sites})
}

func (h *Handler) HandleCreateCycle(c *fiber.Ctx) error {
	id, err := h.crawl.Enqueue(c.Context(), c.Params("slug"))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "site not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "run_id": id})
}

func (h *Handler) HandleGetCycle(c *fiber.Ctx) error {
	run, err := h.runs.Get(c.Context(), c.Params("id"))
	if errors.Is(err, cycle.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "not_found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "run": run})
}
