package repository

import (
	"gorm.io/gorm"
)

// Repositories bundles every repository backed by the same connection.
type Repositories struct {
	Quote       QuoteRepository
	Page        PageRepository
	Testimonial TestimonialRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Quote:       NewQuoteRepository(db),
		Page:        NewPageRepository(db),
		Testimonial: NewTestimonialRepository(db),
	}
}
