package repository

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/EventSite/app/models"
	"gorm.io/gorm"
)

var ErrSlugTaken = errors.New("slug already in use")

// pageRepository implements the PageRepository interface
type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new page repository instance
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// NormalizeSlug lowercases and trims a slug and strips surrounding slashes.
func NormalizeSlug(slug string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(slug)), "/")
}

// Create stores a new page; the slug must be free.
func (r *pageRepository) Create(page *models.Page) error {
	page.Slug = NormalizeSlug(page.Slug)
	taken, err := r.slugTaken(page.Slug, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}
	return r.db.Create(page).Error
}

func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	if err := r.db.First(&page, id).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug only returns active pages; drafts are invisible to the site.
func (r *pageRepository) GetBySlug(slug string) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("slug = ? AND is_active = ?", NormalizeSlug(slug), true).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) GetAll() ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Order("updated_at DESC").Find(&pages).Error
	return pages, err
}

func (r *pageRepository) GetActive() ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("is_active = ?", true).Order("title ASC").Find(&pages).Error
	return pages, err
}

// Update saves all fields; the slug may change if no other page owns it.
func (r *pageRepository) Update(page *models.Page) error {
	page.Slug = NormalizeSlug(page.Slug)
	taken, err := r.slugTaken(page.Slug, page.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}
	return r.db.Save(page).Error
}

// Delete soft deletes a page by its ID
func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Page{}, id).Error
}

// slugTaken counts soft-deleted rows too, the unique index still covers them.
func (r *pageRepository) slugTaken(slug string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.Unscoped().Model(&models.Page{}).Where("slug = ?", NormalizeSlug(slug))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}
