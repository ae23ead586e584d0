package actionserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/kingrea/ecotrack/internal/domain"
)

const (
	msgNull      = "This field may not be null."
	msgNotString = "Not a valid string."
	msgNotObject = "Invalid data. Expected a dictionary, but got %s."

	fieldNonField = "non_field_errors"
)

// errMalformed marks a body that is not valid JSON.
var errMalformed = errors.New("actionserver: malformed json")

// trailingZeros lets "25.0" and "25.00" count as integers.
var trailingZeros = regexp.MustCompile(`\.0*\s*$`)

// decodePayload parses a request body into a patch. With partial false every
// writable field is required. Unknown keys and "id" are ignored. Type errors
// and rule violations come back as one *domain.ValidationError.
func decodePayload(body []byte, partial bool) (domain.ActionPatch, error) {
	var patch domain.ActionPatch
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	raw, err := decodeJSON(body)
	if err != nil {
		return patch, err
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return patch, domain.NewValidationError(fieldNonField, fmt.Sprintf(msgNotObject, jsonKind(raw)))
	}

	var errs []domain.FieldError
	fail := func(field, msg string) {
		errs = append(errs, domain.FieldError{Field: field, Message: msg})
	}

	if v, present := fields[domain.FieldAction]; present {
		if s, msg := parseString(v); msg != "" {
			fail(domain.FieldAction, msg)
		} else {
			patch.Action = &s
		}
	} else if !partial {
		fail(domain.FieldAction, domain.MsgRequired)
	}

	if v, present := fields[domain.FieldDate]; present {
		switch s := v.(type) {
		case nil:
			fail(domain.FieldDate, msgNull)
		case string:
			trimmed := strings.TrimSpace(s)
			patch.Date = &trimmed
		default:
			fail(domain.FieldDate, domain.MsgDateFormat)
		}
	} else if !partial {
		fail(domain.FieldDate, domain.MsgRequired)
	}

	if v, present := fields[domain.FieldPoints]; present {
		if n, msg := parseInteger(v); msg != "" {
			fail(domain.FieldPoints, msg)
		} else {
			patch.Points = &n
		}
	} else if !partial {
		fail(domain.FieldPoints, domain.MsgRequired)
	}

	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			errs = append(errs, verr.Errors...)
		}
	}
	if err := domain.NewValidationErrors(errs); err != nil {
		return domain.ActionPatch{}, err
	}
	return patch, nil
}

// decodeJSON keeps numbers as json.Number so integers beyond 2^53 reach
// parseInteger unrounded.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, errMalformed
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errMalformed
	}
	return raw, nil
}

// inputOf converts a fully populated patch.
func inputOf(p domain.ActionPatch) domain.ActionInput {
	var in domain.ActionInput
	if p.Action != nil {
		in.Action = *p.Action
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Points != nil {
		in.Points = *p.Points
	}
	return in
}

func parseString(v any) (string, string) {
	switch s := v.(type) {
	case nil:
		return "", msgNull
	case string:
		return s, ""
	case json.Number:
		return s.String(), ""
	default:
		return "", msgNotString
	}
}

func parseInteger(v any) (int64, string) {
	switch n := v.(type) {
	case nil:
		return 0, msgNull
	case json.Number:
		if out, ok := integerText(n.String()); ok {
			return out, ""
		}
		if out, ok := exactInteger(n.String()); ok {
			return out, ""
		}
	case string:
		if out, ok := integerText(n); ok {
			return out, ""
		}
	}
	return 0, domain.MsgInteger
}

func integerText(text string) (int64, bool) {
	text = trailingZeros.ReplaceAllString(strings.TrimSpace(text), "")
	out, err := strconv.ParseInt(text, 10, 64)
	return out, err == nil
}

// exactInteger accepts exponent forms such as 1e3 only when they name an
// int64 without rounding.
func exactInteger(text string) (int64, bool) {
	if approx, err := strconv.ParseFloat(text, 64); err != nil || math.Abs(approx) > math.MaxInt64 {
		return 0, false
	}
	f, _, err := big.ParseFloat(text, 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() {
		return 0, false
	}
	out, acc := f.Int64()
	return out, acc == big.Exact
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case []any:
		return "list"
	case string:
		return "str"
	case bool:
		return "bool"
	case json.Number:
		return "int"
	default:
		return "value"
	}
}
