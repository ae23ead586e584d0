// Package domain defines the sustainability action record and the rules that
// govern it on both sides of the REST API.
package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxActionLength bounds the activity label, in characters.
	MaxActionLength = 255
	// DateLayout is the calendar date format used on the wire.
	DateLayout = "2006-01-02"
)

// Field names as they appear in JSON payloads and validation errors.
const (
	FieldAction = "action"
	FieldDate   = "date"
	FieldPoints = "points"
)

// Validation messages returned by the REST API.
const (
	MsgRequired      = "This field is required."
	MsgBlank         = "This field may not be blank."
	MsgTooLong       = "Ensure this field has no more than 255 characters."
	MsgDateFormat    = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	MsgInteger       = "A valid integer is required."
	MsgPointsNonNeg  = "points must be >= 0"
	MsgNotFound      = "Not found."
	MsgMalformedJSON = "JSON parse error"
)

// Action is one tracked sustainability action. ID is assigned by the server
// and never changes afterwards.
type Action struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
	Date   string `json:"date"`
	Points int64  `json:"points"`
}

// ActionInput carries every writable field. It is the body of a create or a
// full replacement.
type ActionInput struct {
	Action string `json:"action"`
	Date   string `json:"date"`
	Points int64  `json:"points"`
}

// ActionPatch carries any subset of writable fields for a partial update.
type ActionPatch struct {
	Action *string `json:"action,omitempty"`
	Date   *string `json:"date,omitempty"`
	Points *int64  `json:"points,omitempty"`
}

// Input strips the server-assigned id.
func (a Action) Input() ActionInput {
	return ActionInput{Action: a.Action, Date: a.Date, Points: a.Points}
}

// WithID attaches an id, producing a stored record.
func (in ActionInput) WithID(id int64) Action {
	return Action{ID: id, Action: in.Action, Date: in.Date, Points: in.Points}
}

// Patch converts the input into a patch that sets every field.
func (in ActionInput) Patch() ActionPatch {
	action, date, points := in.Action, in.Date, in.Points
	return ActionPatch{Action: &action, Date: &date, Points: &points}
}

// Normalize trims the activity label.
func (in ActionInput) Normalize() ActionInput {
	in.Action = strings.TrimSpace(in.Action)
	return in
}

// Validate applies the server-side rules to a complete input.
func (in ActionInput) Validate() error {
	var errs []FieldError
	if msg := validateLabel(in.Action); msg != "" {
		errs = append(errs, FieldError{Field: FieldAction, Message: msg})
	}
	if msg := validateDate(in.Date); msg != "" {
		errs = append(errs, FieldError{Field: FieldDate, Message: msg})
	}
	if in.Points < 0 {
		errs = append(errs, FieldError{Field: FieldPoints, Message: MsgPointsNonNeg})
	}
	return NewValidationErrors(errs)
}

// IsEmpty reports whether the patch sets no fields.
func (p ActionPatch) IsEmpty() bool {
	return p.Action == nil && p.Date == nil && p.Points == nil
}

// Normalize trims the activity label when present.
func (p ActionPatch) Normalize() ActionPatch {
	if p.Action != nil {
		trimmed := strings.TrimSpace(*p.Action)
		p.Action = &trimmed
	}
	return p
}

// Validate applies the server-side rules to the fields that are present.
func (p ActionPatch) Validate() error {
	var errs []FieldError
	if p.Action != nil {
		if msg := validateLabel(*p.Action); msg != "" {
			errs = append(errs, FieldError{Field: FieldAction, Message: msg})
		}
	}
	if p.Date != nil {
		if msg := validateDate(*p.Date); msg != "" {
			errs = append(errs, FieldError{Field: FieldDate, Message: msg})
		}
	}
	if p.Points != nil && *p.Points < 0 {
		errs = append(errs, FieldError{Field: FieldPoints, Message: MsgPointsNonNeg})
	}
	return NewValidationErrors(errs)
}

// Apply merges the patch into a copy of a. The id is never touched.
func (p ActionPatch) Apply(a Action) Action {
	if p.Action != nil {
		a.Action = *p.Action
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Points != nil {
		a.Points = *p.Points
	}
	return a
}

func validateLabel(label string) string {
	if strings.TrimSpace(label) == "" {
		return MsgBlank
	}
	if utf8.RuneCountInString(label) > MaxActionLength {
		return MsgTooLong
	}
	return ""
}

func validateDate(date string) string {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return MsgDateFormat
	}
	return ""
}
