package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	QuoteStatusNew       = "new"
	QuoteStatusContacted = "contacted"
	QuoteStatusQuoted    = "quoted"
	QuoteStatusWon       = "won"
	QuoteStatusLost      = "lost"
	QuoteStatusArchived  = "archived"
)

// QuoteStatuses returns every status in lifecycle order.
func QuoteStatuses() []string {
	return []string{QuoteStatusNew, QuoteStatusContacted, QuoteStatusQuoted, QuoteStatusWon, QuoteStatusLost, QuoteStatusArchived}
}

// quoteTransitions lists the statuses reachable from each status. archived
// is reachable from anywhere and leads nowhere.
var quoteTransitions = map[string][]string{
	QuoteStatusNew:       {QuoteStatusContacted, QuoteStatusQuoted, QuoteStatusLost},
	QuoteStatusContacted: {QuoteStatusQuoted, QuoteStatusLost},
	QuoteStatusQuoted:    {QuoteStatusWon, QuoteStatusLost},
	QuoteStatusWon:       {},
	QuoteStatusLost:      {},
	QuoteStatusArchived:  {},
}

// QuoteSubmission is a quote request from the public form. Optional fields
// are NULL when the visitor left them empty.
type QuoteSubmission struct {
	ID           string                       `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         *string                      `gorm:"type:varchar(255)" json:"name"`
	Email        *string                      `gorm:"type:varchar(255);index" json:"email"`
	Phone        *string                      `gorm:"type:varchar(64)" json:"phone"`
	Company      *string                      `gorm:"type:varchar(255)" json:"company"`
	EventDate    *string                      `gorm:"type:varchar(64)" json:"event_date"`
	Venue        *string                      `gorm:"type:varchar(255)" json:"venue"`
	EventType    *string                      `gorm:"type:varchar(128)" json:"event_type"`
	AudienceSize *string                      `gorm:"type:varchar(64)" json:"audience_size"`
	Services     *datatypes.JSONSlice[string] `json:"services"`
	BudgetRange  *string                      `gorm:"type:varchar(128)" json:"budget_range"`
	Message      *string                      `gorm:"type:text" json:"message"`
	Status       string                       `gorm:"type:varchar(20);default:'new';index;not null" json:"status" validate:"required,oneof=new contacted quoted won lost archived"`
	CreatedAt    time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt               `gorm:"index" json:"-"`
}

func (QuoteSubmission) TableName() string {
	return "quote_submissions"
}

func (q *QuoteSubmission) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = QuoteStatusNew
	}
	return nil
}

func (q *QuoteSubmission) Validate() error {
	v := validator.New()
	return v.Struct(q)
}

// ServiceList returns the stored services or nil.
func (q *QuoteSubmission) ServiceList() []string {
	if q.Services == nil {
		return nil
	}
	return []string(*q.Services)
}

func IsValidQuoteStatus(status string) bool {
	_, ok := quoteTransitions[status]
	return ok
}

// CanTransitionQuote reports whether an admin may move a quote from one
// status to another.
func CanTransitionQuote(from, to string) bool {
	if !IsValidQuoteStatus(from) || !IsValidQuoteStatus(to) {
		return false
	}
	if from == QuoteStatusArchived {
		return false
	}
	if to == QuoteStatusArchived {
		return true
	}
	for _, next := range quoteTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
