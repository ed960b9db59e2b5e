package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Page is an editable CMS page (about, services, venues, legal).
type Page struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Slug            string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	Content         string         `gorm:"type:longtext;not null" json:"content" validate:"required,min=1"`
	MetaTitle       string         `gorm:"type:varchar(70)" json:"meta_title" validate:"max=70"`
	MetaDescription string         `gorm:"type:varchar(160)" json:"meta_description" validate:"max=160"`
	IsActive        bool           `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Page) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// SEOTitle falls back to the page title when no meta title was set.
func (p *Page) SEOTitle() string {
	if p.MetaTitle != "" {
		return p.MetaTitle
	}
	return p.Title
}
