package controllers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventSite/app/models"
	"github.com/ManuelReschke/EventSite/app/repository"
)

const defaultQuotePageSize = 50

// StatsInvalidator drops cached dashboard numbers after a change.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// AdminQuoteController serves the quote dashboard API
type AdminQuoteController struct {
	quoteRepo repository.QuoteRepository
	stats     StatsInvalidator
	validate  *validator.Validate
}

// NewAdminQuoteController creates the controller; stats may be nil.
func NewAdminQuoteController(quoteRepo repository.QuoteRepository, stats StatsInvalidator) *AdminQuoteController {
	return &AdminQuoteController{quoteRepo: quoteRepo, stats: stats, validate: validator.New()}
}

func (ac *AdminQuoteController) invalidateStats(ctx context.Context) {
	if ac.stats != nil {
		ac.stats.Invalidate(ctx)
	}
}

type quoteStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted quoted won lost archived"`
}

// HandleList returns quotes newest first, optionally filtered by ?status=
func (ac *AdminQuoteController) HandleList(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !models.IsValidQuoteStatus(status) {
		return apiError(c, fiber.StatusBadRequest, "invalid_status", "Unknown quote status")
	}

	filter := repository.QuoteFilter{
		Status: status,
		Offset: c.QueryInt("offset", 0),
		Limit:  c.QueryInt("limit", defaultQuotePageSize),
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	quotes, err := ac.quoteRepo.List(c.UserContext(), filter)
	if err != nil {
		log.WithError(err).Error("[AdminQuotes] list failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load quotes")
	}
	total, err := ac.quoteRepo.Count(c.UserContext(), status)
	if err != nil {
		log.WithError(err).Error("[AdminQuotes] count failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count quotes")
	}

	return c.JSON(fiber.Map{"quotes": quotes, "total": total})
}

func (ac *AdminQuoteController) HandleGet(c *fiber.Ctx) error {
	quote, err := ac.quoteRepo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "Quote not found")
		}
		log.WithError(err).Error("[AdminQuotes] get failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load quote")
	}
	return c.JSON(quote)
}

// HandleUpdateStatus moves a quote along new -> contacted -> quoted -> won|lost,
// or to archived from any state.
func (ac *AdminQuoteController) HandleUpdateStatus(c *fiber.Ctx) error {
	var req quoteStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid_body", "Invalid request body")
	}
	if err := ac.validate.Struct(req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "validation_failed", "status must be one of new, contacted, quoted, won, lost, archived")
	}

	id := c.Params("id")
	if err := ac.quoteRepo.UpdateStatus(c.UserContext(), id, req.Status); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apiError(c, fiber.StatusNotFound, "not_found", "Quote not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			return apiError(c, fiber.StatusConflict, "invalid_transition", err.Error())
		}
		log.WithError(err).WithField("quote_id", id).Error("[AdminQuotes] status update failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update quote")
	}

	ac.invalidateStats(c.UserContext())

	quote, err := ac.quoteRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load quote")
	}
	log.WithFields(log.Fields{"quote_id": id, "status": req.Status}).Info("[AdminQuotes] status updated")
	return c.JSON(quote)
}

func (ac *AdminQuoteController) HandleDelete(c *fiber.Ctx) error {
	if err := ac.quoteRepo.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusNotFound, "not_found", "Quote not found")
		}
		log.WithError(err).Error("[AdminQuotes] delete failed")
		return apiError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete quote")
	}
	ac.invalidateStats(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}
