package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type Testimonial struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Author      string         `gorm:"type:varchar(255);not null" json:"author" validate:"required,max=255"`
	Company     string         `gorm:"type:varchar(255)" json:"company" validate:"max=255"`
	Quote       string         `gorm:"type:text;not null" json:"quote" validate:"required"`
	Rating      int            `gorm:"default:5" json:"rating" validate:"min=1,max=5"`
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`
	IsPublished bool           `gorm:"default:false" json:"is_published"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Testimonial) Validate() error {
	v := validator.New()
	return v.Struct(t)
}
