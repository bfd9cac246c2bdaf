package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
)

// Field bounds shared by the HTTP schema and the domain constructors,
// counted in characters.
const (
	MaxTitleLength         = 255
	MaxDescriptionLength   = 4000
	MaxReporterEmailLength = 255
)

// Category classifies what a ticket is about.
type Category string

const (
	CategoryBug            Category = "bug"
	CategoryFeatureRequest Category = "feature_request"
	CategorySupport        Category = "support"
	CategoryBilling        Category = "billing"
	CategoryOther          Category = "other"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryBug,
	CategoryFeatureRequest,
	CategorySupport,
	CategoryBilling,
	CategoryOther,
}

// IsValid reports whether c is one of the enumerated categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority represents the urgency of a ticket.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// IsValid reports whether p is one of the enumerated priorities.
func (p Priority) IsValid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Status represents where a ticket is in its lifecycle.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

// Statuses lists every status.
var Statuses = []Status{StatusOpen, StatusResolved}

// IsValid reports whether s is one of the enumerated statuses.
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusResolved
}

// Ticket is a user-reported issue tracked from open to resolved.
type Ticket struct {
	ID            int64
	Title         string
	Description   string
	Category      Category
	Priority      Priority
	Status        Status
	ReporterEmail *string
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

// TicketParams holds the caller-supplied fields of a new ticket.
type TicketParams struct {
	Title         string
	Description   string
	ReporterEmail *string
}

// NewTicket builds an open ticket whose category and priority come from Classify.
func NewTicket(params TicketParams, now time.Time) (*Ticket, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if utf8.RuneCountInString(params.Title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if utf8.RuneCountInString(params.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}

	category, priority := Classify(params.Title, params.Description)

	return &Ticket{
		Title:         params.Title,
		Description:   params.Description,
		Category:      category,
		Priority:      priority,
		Status:        StatusOpen,
		ReporterEmail: params.ReporterEmail,
		CreatedAt:     now,
	}, nil
}

// TicketPatch carries a partial update. Nil fields are left untouched.
// ClearReporterEmail removes the contact even when ReporterEmail is nil.
type TicketPatch struct {
	Title              *string
	Description        *string
	Category           *Category
	Priority           *Priority
	Status             *Status
	ReporterEmail      *string
	ClearReporterEmail bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.Category == nil &&
		p.Priority == nil &&
		p.Status == nil &&
		p.ReporterEmail == nil &&
		!p.ClearReporterEmail
}

// Validate checks the supplied fields against the enumerations and bounds.
func (p TicketPatch) Validate() error {
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return apperrors.ErrTitleRequired
		}
		if utf8.RuneCountInString(*p.Title) > MaxTitleLength {
			return apperrors.ErrTitleTooLong
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
		return apperrors.ErrDescriptionTooLong
	}
	if p.Category != nil && !p.Category.IsValid() {
		return apperrors.ErrInvalidCategory
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		return apperrors.ErrInvalidPriority
	}
	if p.Status != nil && !p.Status.IsValid() {
		return apperrors.ErrInvalidStatus
	}
	return nil
}

// Apply copies the supplied fields onto t. A status change keeps ResolvedAt in
// step: moving to resolved stamps it if unset, moving to open clears it.
func (t *Ticket) Apply(p TicketPatch, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearReporterEmail {
		t.ReporterEmail = nil
	}
	if p.ReporterEmail != nil {
		email := *p.ReporterEmail
		t.ReporterEmail = &email
	}
	if p.Status != nil {
		t.Status = *p.Status
		switch t.Status {
		case StatusResolved:
			if t.ResolvedAt == nil {
				t.ResolvedAt = &now
			}
		case StatusOpen:
			t.ResolvedAt = nil
		}
	}
	return nil
}

// Resolve marks the ticket resolved at now. Resolving an already resolved
// ticket re-stamps the resolution time.
func (t *Ticket) Resolve(now time.Time) {
	t.Status = StatusResolved
	t.ResolvedAt = &now
}

// IsResolved reports whether the ticket has been resolved.
func (t *Ticket) IsResolved() bool {
	return t.Status == StatusResolved
}
