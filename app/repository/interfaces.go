package repository

import (
	"context"

	"github.com/ManuelReschke/EventSite/app/models"
)

// QuoteRepository defines the interface for quote submission operations.
// The intake path only creates; the admin dashboard reads and updates status.
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.QuoteSubmission) error
	GetByID(ctx context.Context, id string) (*models.QuoteSubmission, error)
	List(ctx context.Context, filter QuoteFilter) ([]models.QuoteSubmission, error)
	Count(ctx context.Context, status string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// QuoteFilter narrows admin listings. Empty Status means all.
type QuoteFilter struct {
	Status string
	Offset int
	Limit  int
}

// PageRepository defines the interface for page-related operations
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	GetAll() ([]models.Page, error)
	GetActive() ([]models.Page, error)
	Update(page *models.Page) error
	Delete(id uint) error
}

// TestimonialRepository defines the interface for testimonial operations
type TestimonialRepository interface {
	Create(t *models.Testimonial) error
	GetByID(id uint) (*models.Testimonial, error)
	GetAll() ([]models.Testimonial, error)
	GetPublished(limit int) ([]models.Testimonial, error)
	Update(t *models.Testimonial) error
	Delete(id uint) error
}
