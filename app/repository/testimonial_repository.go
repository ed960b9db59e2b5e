package repository

import (
	"github.com/ManuelReschke/EventSite/app/models"
	"gorm.io/gorm"
)

type testimonialRepository struct {
	db *gorm.DB
}

func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(t *models.Testimonial) error {
	return r.db.Create(t).Error
}

func (r *testimonialRepository) GetByID(id uint) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepository) GetAll() ([]models.Testimonial, error) {
	var list []models.Testimonial
	err := r.db.Order("sort_order ASC, id ASC").Find(&list).Error
	return list, err
}

// GetPublished returns published testimonials in display order; limit <= 0 means all.
func (r *testimonialRepository) GetPublished(limit int) ([]models.Testimonial, error) {
	var list []models.Testimonial
	q := r.db.Where("is_published = ?", true).Order("sort_order ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&list).Error
	return list, err
}

func (r *testimonialRepository) Update(t *models.Testimonial) error {
	return r.db.Save(t).Error
}

func (r *testimonialRepository) Delete(id uint) error {
	return r.db.Delete(&models.Testimonial{}, id).Error
}
