package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventSite/app/models"
	"github.com/ManuelReschke/EventSite/app/repository"
)

// PageController handles page requests for the public site and the admin API
type PageController struct {
	pageRepo repository.PageRepository
}

func NewPageController(pageRepo repository.PageRepository) *PageController {
	return &PageController{pageRepo: pageRepo}
}

type pageRequest struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"content"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	IsActive        *bool  `json:"is_active"`
}

func (r pageRequest) apply(page *models.Page) {
	page.Title = r.Title
	page.Slug = repository.NormalizeSlug(r.Slug)
	page.Content = r.Content
	page.MetaTitle = r.MetaTitle
	page.MetaDescription = r.MetaDescription
	if r.IsActive != nil {
		page.IsActive = *r.IsActive
	}
}

// HandleIndex lists the active pages for navigation and sitemaps.
func (pc *PageController) HandleIndex(c *fiber.Ctx) error {
	pages, err := pc.pageRepo.GetActive()
	if err != nil {
		log.WithError(err).Error("[Pages] listing failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load pages")
	}

	items := make([]fiber.Map, 0, len(pages))
	for _, p := range pages {
		items = append(items, fiber.Map{"slug": p.Slug, "title": p.Title, "updated_at": p.UpdatedAt})
	}
	return c.JSON(fiber.Map{"pages": items})
}

// HandleShow returns an active page by slug
func (pc *PageController) HandleShow(c *fiber.Ctx) error {
	page, err := pc.pageRepo.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "Page not found")
		}
		log.WithError(err).Error("[Pages] lookup failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load page")
	}

	return c.JSON(fiber.Map{
		"slug":             page.Slug,
		"title":            page.Title,
		"seo_title":        page.SEOTitle(),
		"meta_description": page.MetaDescription,
		"content":          page.Content,
		"updated_at":       page.UpdatedAt,
	})
}

// HandleAdminList returns every page including drafts
func (pc *PageController) HandleAdminList(c *fiber.Ctx) error {
	pages, err := pc.pageRepo.GetAll()
	if err != nil {
		log.WithError(err).Error("[Pages] list failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load pages")
	}
	return c.JSON(fiber.Map{"pages": pages})
}

func (pc *PageController) HandleAdminCreate(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}

	page := models.Page{IsActive: true}
	req.apply(&page)
	if err := page.Validate(); err != nil {
		return apiError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := pc.pageRepo.Create(&page); err != nil {
		return pc.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

func (pc *PageController) HandleAdminUpdate(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid_id", "Invalid page ID")
	}
	page, err := pc.pageRepo.GetByID(id)
	if err != nil {
		return pc.writeError(c, err)
	}

	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	req.apply(page)
	if err := page.Validate(); err != nil {
		return apiError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	if err := pc.pageRepo.Update(page); err != nil {
		return pc.writeError(c, err)
	}
	return c.JSON(page)
}

func (pc *PageController) HandleAdminDelete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid_id", "Invalid page ID")
	}
	if err := pc.pageRepo.Delete(id); err != nil {
		return pc.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (pc *PageController) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apiError(c, fiber.StatusNotFound, "not_found", "Page not found")
	case errors.Is(err, repository.ErrSlugTaken):
		return apiError(c, fiber.StatusConflict, "slug_taken", "A page with this slug already exists")
	}
	log.WithError(err).Error("[Pages] write failed")
	return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save page")
}
