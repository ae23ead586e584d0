package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/ecotrack/internal/client"
	"github.com/kingrea/ecotrack/internal/domain"
)

// errorText turns a failure into the line shown next to the form or row.
// Server bodies win, then local validation text, then the raw error.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		if body := formatServerBody(statusErr.Body); body != "" {
			return body
		}
		return fmt.Sprintf("Request failed with status %d.", statusErr.StatusCode)
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message()
	}
	return err.Error()
}

// formatServerBody renders {"detail": "..."} and field-error maps such as
// {"points": ["points must be >= 0"]}. Anything else is returned verbatim.
func formatServerBody(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return body
	}
	if raw, ok := fields["detail"]; ok {
		var detail string
		if json.Unmarshal(raw, &detail) == nil && detail != "" {
			return detail
		}
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		msgs := messagesOf(fields[name])
		if len(msgs) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(msgs, " ")))
	}
	if len(parts) == 0 {
		return body
	}
	return strings.Join(parts, "; ")
}

func messagesOf(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}
	return nil
}
