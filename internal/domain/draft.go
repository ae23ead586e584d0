package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Form-level messages shown before anything is sent to the server.
const (
	MsgDraftActionRequired = "Action is required."
	MsgDraftDateRequired   = "Date is required."
	MsgDraftPointsNumber   = "Points must be a number."
	MsgDraftPointsWhole    = "Points must be a whole number."
	MsgDraftPointsRange    = "Points is out of range."
)

// Draft holds the raw text of the three editable fields.
type Draft struct {
	Action string
	Date   string
	Points string
}

// DraftOf seeds a draft from a stored record, for row editing.
func DraftOf(a Action) Draft {
	return Draft{
		Action: a.Action,
		Date:   a.Date,
		Points: strconv.FormatInt(a.Points, 10),
	}
}

// Parse checks the draft the way the form does and builds the payload. Only
// the first failure is reported. Sign and date format rules are left to the
// server.
func (d Draft) Parse() (ActionInput, error) {
	in := ActionInput{
		Action: strings.TrimSpace(d.Action),
		Date:   strings.TrimSpace(d.Date),
	}
	if in.Action == "" {
		return ActionInput{}, NewValidationError("", MsgDraftActionRequired)
	}
	if in.Date == "" {
		return ActionInput{}, NewValidationError("", MsgDraftDateRequired)
	}
	points, err := parsePoints(strings.TrimSpace(d.Points))
	if err != nil {
		return ActionInput{}, err
	}
	in.Points = points
	return in, nil
}

// maxExactFloat is the largest magnitude at which every integer is
// representable as a float64.
const maxExactFloat = 1 << 53

// parsePoints reads integers exactly. Float notation ("10.0", "1e3") is
// accepted only while it still names an exact integer.
func parsePoints(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, NewValidationError("", MsgDraftPointsRange)
	}
	f, err := strconv.ParseFloat(raw, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, NewValidationError("", MsgDraftPointsRange)
	case err != nil || math.IsNaN(f) || math.IsInf(f, 0):
		return 0, NewValidationError("", MsgDraftPointsNumber)
	case f != math.Trunc(f):
		return 0, NewValidationError("", MsgDraftPointsWhole)
	case math.Abs(f) > maxExactFloat:
		return 0, NewValidationError("", MsgDraftPointsRange)
	}
	return int64(f), nil
}
