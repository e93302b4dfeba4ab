package orders

import (
	"strings"
	"time"

	"github.com/jrsteele09/store-insights/internal/errors"
)

const dateOnly = "2006-01-02"

// Range is an inclusive created-at window. It filters only when both bounds are set.
type Range struct {
	From time.Time
	To   time.Time
}

// Active reports whether the range should be applied.
func (r Range) Active() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Contains reports whether t falls inside an active range. Inactive ranges contain everything.
func (r Range) Contains(t time.Time) bool {
	if !r.Active() {
		return true
	}
	return !t.Before(r.From) && !t.After(r.To)
}

// ParseRange builds a Range from query values. Either value empty yields an inactive range.
// Values are RFC3339 timestamps or YYYY-MM-DD dates; a date-only end covers that whole day (UTC).
func ParseRange(startDate, endDate string) (Range, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return Range{}, nil
	}
	from, _, err := parseBound(startDate)
	if err != nil {
		return Range{}, errors.Wrapf(errors.ErrInvalidDate, "startDate %q", startDate)
	}
	to, dateOnlyEnd, err := parseBound(endDate)
	if err != nil {
		return Range{}, errors.Wrapf(errors.ErrInvalidDate, "endDate %q", endDate)
	}
	if dateOnlyEnd {
		to = to.Add(24*time.Hour - time.Millisecond)
	}
	if to.Before(from) {
		return Range{}, errors.Wrapf(errors.ErrInvalidDate, "startDate is after endDate")
	}
	return Range{From: from, To: to}, nil
}

func parseBound(value string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, value); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}
