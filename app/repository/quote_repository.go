package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventSite/app/models"
)

var ErrInvalidTransition = errors.New("invalid quote status transition")

const maxQuoteListLimit = 200

type quoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

// Create inserts exactly one row.
func (r *quoteRepository) Create(ctx context.Context, quote *models.QuoteSubmission) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepository) GetByID(ctx context.Context, id string) (*models.QuoteSubmission, error) {
	var quote models.QuoteSubmission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepository) List(ctx context.Context, filter QuoteFilter) ([]models.QuoteSubmission, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxQuoteListLimit {
		limit = maxQuoteListLimit
	}

	q := r.db.WithContext(ctx).Model(&models.QuoteSubmission{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var quotes []models.QuoteSubmission
	err := q.Order("created_at DESC").Offset(filter.Offset).Limit(limit).Find(&quotes).Error
	return quotes, err
}

func (r *quoteRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.QuoteSubmission{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}

// UpdateStatus moves a quote along its lifecycle. The write only applies
// while the row still holds the status the transition was checked against.
func (r *quoteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	quote, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !models.CanTransitionQuote(quote.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, quote.Status, status)
	}

	applied, err := r.compareAndSetStatus(ctx, id, quote.Status, status)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: %s is no longer %s", ErrInvalidTransition, id, quote.Status)
	}
	return nil
}

func (r *quoteRepository) compareAndSetStatus(ctx context.Context, id, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.QuoteSubmission{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete soft deletes a quote; an unknown or already deleted id is
// gorm.ErrRecordNotFound.
func (r *quoteRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.QuoteSubmission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
