package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign categories and statuses are closed enumerations; anything
// else is rejected at validation time.
var (
	CampaignCategories = []string{"elderly", "disabled", "children", "women", "other"}
	CampaignStatuses   = []string{"active", "completed", "cancelled"}
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type CampaignLocation struct {
	Village  string `bson:"village,omitempty" json:"village,omitempty"`
	District string `bson:"district,omitempty" json:"district,omitempty"`
	State    string `bson:"state,omitempty" json:"state,omitempty"`
}

// Donor is an append-only ledger entry embedded in its campaign. It has
// no identity outside the parent document.
type Donor struct {
	User      primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty"`
	Amount    float64            `bson:"amount" json:"amount"`
	Date      time.Time          `bson:"date" json:"date"`
	Anonymous bool               `bson:"anonymous" json:"anonymous"`
	Message   string             `bson:"message,omitempty" json:"message,omitempty"`

	// Enriched for display, never persisted. Suppressed when Anonymous.
	UserName    string `bson:"-" json:"user_name,omitempty"`
	UserPicture string `bson:"-" json:"user_picture,omitempty"`
}

// CampaignUpdate is an organizer-authored progress note.
type CampaignUpdate struct {
	Title   string    `bson:"title" json:"title"`
	Content string    `bson:"content" json:"content"`
	Date    time.Time `bson:"date" json:"date"`
	Images  []string  `bson:"images" json:"images"`
}

type Campaign struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	TargetAmount  float64            `bson:"target_amount" json:"target_amount"`
	RaisedAmount  float64            `bson:"raised_amount" json:"raised_amount"`
	StartDate     time.Time          `bson:"start_date" json:"start_date"`
	EndDate       time.Time          `bson:"end_date" json:"end_date"`
	Location      CampaignLocation   `bson:"location,omitempty" json:"location,omitempty"`
	Organizer     primitive.ObjectID `bson:"organizer" json:"organizer"`
	Beneficiaries int                `bson:"beneficiaries" json:"beneficiaries"`
	Images        []string           `bson:"images" json:"images"`
	Status        string             `bson:"status" json:"status"`
	Donors        []Donor            `bson:"donors" json:"donors"`
	Updates       []CampaignUpdate   `bson:"updates" json:"updates"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`

	// Derived fields, recomputed on every read.
	ProgressPercentage int          `bson:"-" json:"progress_percentage"`
	DaysRemaining      int          `bson:"-" json:"days_remaining"`
	OrganizerInfo      *UserSummary `bson:"-" json:"organizer_info,omitempty"`
}

// Progress returns raised/target as a whole percentage, clamped to
// [0, 100] so an over-funded campaign never reports more than 100.
func (c *Campaign) Progress() int {
	if c.TargetAmount <= 0 {
		return 0
	}
	pct := int(math.Round(c.RaisedAmount / c.TargetAmount * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// RemainingDays returns whole days until the end date, never negative.
func (c *Campaign) RemainingDays(now time.Time) int {
	days := int(math.Ceil(c.EndDate.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// FillDerived populates the computed display fields.
func (c *Campaign) FillDerived(now time.Time) {
	c.ProgressPercentage = c.Progress()
	c.DaysRemaining = c.RemainingDays(now)
}

// CampaignInput carries the client-supplied fields for create.
type CampaignInput struct {
	Title         string  `form:"title" json:"title"`
	Description   string  `form:"description" json:"description"`
	Category      string  `form:"category" json:"category"`
	TargetAmount  float64 `form:"target_amount" json:"target_amount"`
	EndDate       string  `form:"end_date" json:"end_date"`
	Village       string  `form:"village" json:"village"`
	District      string  `form:"district" json:"district"`
	State         string  `form:"state" json:"state"`
	Beneficiaries int     `form:"beneficiaries" json:"beneficiaries"`
}

// Validate checks the required fields and value constraints, returning
// one message per failing field. An empty slice means the input is valid.
func (in *CampaignInput) Validate() []string {
	var errs []string

	if in.Title == "" {
		errs = append(errs, "title is required")
	}
	if in.Description == "" {
		errs = append(errs, "description is required")
	}
	if !ValidCategory(in.Category) {
		errs = append(errs, fmt.Sprintf("category must be one of %v", CampaignCategories))
	}
	if in.TargetAmount < 1 {
		errs = append(errs, "target_amount must be at least 1")
	}
	if in.EndDate == "" {
		errs = append(errs, "end_date is required")
	} else if _, err := ParseDate(in.EndDate); err != nil {
		errs = append(errs, "end_date format is invalid, use RFC3339 or YYYY-MM-DD")
	}
	if in.Beneficiaries < 1 {
		errs = append(errs, "beneficiaries must be at least 1")
	}

	return errs
}

func ValidCategory(category string) bool {
	for _, c := range CampaignCategories {
		if c == category {
			return true
		}
	}
	return false
}

func ValidStatus(status string) bool {
	for _, s := range CampaignStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseDate accepts RFC3339 plus the date-only fallbacks clients send.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}
