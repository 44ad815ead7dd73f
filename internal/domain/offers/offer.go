package offers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOfferNotFound is returned when an offer id does not resolve.
	ErrOfferNotFound = errors.New("offers: not found")
)

// StatusPending is the default status assigned to freshly created offers.
// Every other status value is opaque text owned by the backend; this layer
// never interprets it.
const StatusPending = "pending"

// Timeline is a fixed-duration delivery bucket a freelancer commits to.
type Timeline string

const (
	TimelineOneDay      Timeline = "1day"
	TimelineThreeDays   Timeline = "3days"
	TimelineOneWeek     Timeline = "1week"
	TimelineTwoWeeks    Timeline = "2weeks"
	TimelineOneMonth    Timeline = "1month"
	TimelineThreeMonths Timeline = "3months"
)

// Timelines lists every accepted delivery bucket.
func Timelines() []Timeline {
	return []Timeline{
		TimelineOneDay,
		TimelineThreeDays,
		TimelineOneWeek,
		TimelineTwoWeeks,
		TimelineOneMonth,
		TimelineThreeMonths,
	}
}

// Valid reports whether t is one of the fixed buckets.
func (t Timeline) Valid() bool {
	for _, known := range Timelines() {
		if t == known {
			return true
		}
	}
	return false
}

// Offer is a structured proposal exchanged between the two parties of a
// conversation. Status carries whatever the backend last recorded.
type Offer struct {
	ID          string
	JobID       string
	Name        string
	Description string
	Timeline    Timeline
	Budget      float64
	Status      string
}

// Draft carries the user-entered fields of an offer before submission.
type Draft struct {
	Name        string
	Description string
	Timeline    Timeline
	Budget      float64
}

// FieldError describes a single invalid draft field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("offers: %s %s", e.Field, e.Reason)
}

// ValidationError aggregates per-field failures so callers can surface
// them next to the originating inputs.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "offers: invalid draft: " + strings.Join(parts, "; ")
}

// Validate checks the draft field by field. It returns a *ValidationError
// listing every failing field, or nil when the draft is submittable.
func (d Draft) Validate() error {
	var fields []FieldError
	if len(strings.TrimSpace(d.Name)) < 2 {
		fields = append(fields, FieldError{Field: "name", Reason: "must be at least 2 characters"})
	}
	if len(strings.TrimSpace(d.Description)) < 10 {
		fields = append(fields, FieldError{Field: "description", Reason: "must be at least 10 characters"})
	}
	if !d.Timeline.Valid() {
		fields = append(fields, FieldError{Field: "timeline", Reason: "must be one of the fixed buckets"})
	}
	if d.Budget <= 0 {
		fields = append(fields, FieldError{Field: "budget", Reason: "must be positive"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Repository persists offers on the service side.
type Repository interface {
	ByID(ctx context.Context, id string) (*Offer, error)
	Save(ctx context.Context, offer *Offer) error
}
