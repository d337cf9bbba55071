package form

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the wire layout for calendar dates.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a typed date cannot be understood.
var ErrInvalidDate = errors.New("fecha inválida")

// FieldErrors maps a form field name to its user-facing message.
// A nil or empty map means the form is valid.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message per field.
// POST: fe[field] is set unless it already held a message
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Has reports whether field has an error.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Empty reports whether there are no errors.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Error implements error so FieldErrors can travel through error returns.
// Messages are ordered by field name for stable output.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+fe[f])
	}
	return strings.Join(msgs, "; ")
}

// Err returns fe as an error, or nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if fe.Empty() {
		return nil
	}
	return fe
}

// ParseDate reads a user-entered calendar date.
// HTML date inputs send YYYY-MM-DD; other unambiguous layouts are accepted too.
// PRE: none
// POST: Returns the date in YYYY-MM-DD, or ErrInvalidDate
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDate
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := dateparse.ParseStrict(raw)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// DatePart truncates an ISO 8601 timestamp to its YYYY-MM-DD date part.
// Values that do not start with a date are returned trimmed and unchanged.
func DatePart(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= len(DateLayout) {
		if _, err := time.Parse(DateLayout, v[:len(DateLayout)]); err == nil {
			return v[:len(DateLayout)]
		}
	}
	return v
}
