package controllers

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/ManuelReschke/EventSite/app/models"
	"github.com/ManuelReschke/EventSite/app/repository"
	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
)

// QuoteFromSubmission maps a validated quote request onto a new row. Empty
// fields become NULL, never empty strings.
func QuoteFromSubmission(v intake.Validated) *models.QuoteSubmission {
	s := v.Submission
	quote := &models.QuoteSubmission{
		Name:         nullable(s.Name),
		Email:        nullable(s.Email),
		Phone:        nullable(s.Phone),
		Company:      nullable(s.Company),
		EventDate:    nullable(s.EventDate),
		Venue:        nullable(s.Venue),
		EventType:    nullable(s.EventType),
		AudienceSize: nullable(string(s.AudienceSize)),
		BudgetRange:  nullable(s.BudgetRange),
		Message:      nullable(s.Message),
		Status:       models.QuoteStatusNew,
	}
	if len(s.Services) > 0 {
		services := datatypes.NewJSONSlice([]string(s.Services))
		quote.Services = &services
	}
	return quote
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// QuoteDispatcher persists validated quote requests.
type QuoteDispatcher struct {
	repo repository.QuoteRepository
}

func NewQuoteDispatcher(repo repository.QuoteRepository) *QuoteDispatcher {
	return &QuoteDispatcher{repo: repo}
}

func (d *QuoteDispatcher) Dispatch(ctx context.Context, v intake.Validated) error {
	if err := d.repo.Create(ctx, QuoteFromSubmission(v)); err != nil {
		return fmt.Errorf("insert quote submission: %w", err)
	}
	return nil
}

// NewQuotePipeline wires the quote form. It has no rate limit and no
// required fields; skipCaptcha is only honoured outside production.
func NewQuotePipeline(opts IntakeOptions, skipCaptcha bool, repo repository.QuoteRepository) *intake.Pipeline {
	return intake.New(intake.Options{
		Name:            "quote",
		Verifier:        opts.Verifier,
		SkipCaptcha:     skipCaptcha,
		Dispatcher:      NewQuoteDispatcher(repo),
		DispatchTimeout: opts.DispatchTimeout,
		ClientIP:        ClientAddress,
		Observer:        opts.Observer,
	})
}
