package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventSite/app/models"
	"github.com/ManuelReschke/EventSite/app/repository"
)

const maxPublicTestimonials = 50

type TestimonialController struct {
	repo repository.TestimonialRepository
}

func NewTestimonialController(repo repository.TestimonialRepository) *TestimonialController {
	return &TestimonialController{repo: repo}
}

type testimonialRequest struct {
	Author      string `json:"author"`
	Company     string `json:"company"`
	Quote       string `json:"quote"`
	Rating      int    `json:"rating"`
	SortOrder   int    `json:"sort_order"`
	IsPublished bool   `json:"is_published"`
}

func (r testimonialRequest) apply(t *models.Testimonial) {
	t.Author = r.Author
	t.Company = r.Company
	t.Quote = r.Quote
	t.Rating = r.Rating
	t.SortOrder = r.SortOrder
	t.IsPublished = r.IsPublished
}

// HandlePublished lists published testimonials for the site, ?limit= caps it.
func (tc *TestimonialController) HandlePublished(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", maxPublicTestimonials)
	if limit <= 0 || limit > maxPublicTestimonials {
		limit = maxPublicTestimonials
	}

	list, err := tc.repo.GetPublished(limit)
	if err != nil {
		log.WithError(err).Error("[Testimonials] list failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonials")
	}
	return c.JSON(fiber.Map{"testimonials": list})
}

func (tc *TestimonialController) HandleAdminList(c *fiber.Ctx) error {
	list, err := tc.repo.GetAll()
	if err != nil {
		log.WithError(err).Error("[Testimonials] admin list failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load testimonials")
	}
	return c.JSON(fiber.Map{"testimonials": list})
}

func (tc *TestimonialController) HandleAdminCreate(c *fiber.Ctx) error {
	var req testimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}

	var t models.Testimonial
	req.apply(&t)
	if err := t.Validate(); err != nil {
		return apiError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := tc.repo.Create(&t); err != nil {
		return tc.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (tc *TestimonialController) HandleAdminUpdate(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid_id", "Invalid testimonial ID")
	}
	t, err := tc.repo.GetByID(id)
	if err != nil {
		return tc.writeError(c, err)
	}

	var req testimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	req.apply(t)
	if err := t.Validate(); err != nil {
		return apiError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := tc.repo.Update(t); err != nil {
		return tc.writeError(c, err)
	}
	return c.JSON(t)
}

func (tc *TestimonialController) HandleAdminDelete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid_id", "Invalid testimonial ID")
	}
	if err := tc.repo.Delete(id); err != nil {
		return tc.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TestimonialController) writeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusNotFound, "not_found", "Testimonial not found")
	}
	log.WithError(err).Error("[Testimonials] write failed")
	return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save testimonial")
}
