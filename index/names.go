// Package index owns the time-sharded index naming convention and the
// best-effort template/mapping lifecycle around it. Actions are written to
// one index per company per calendar month; reads expand a date range into
// the comma-joined set of monthly indices covering it.
package index

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultPattern is the index naming template. Placeholders are
// substituted with the company ID and the UTC year and zero-padded month.
const DefaultPattern = "actions-{companyId}-{year}-{month}"

// Router computes index names from the naming pattern.
type Router struct {
	Pattern string
}

// NewRouter returns a Router for pattern, falling back to DefaultPattern
// when empty.
func NewRouter(pattern string) Router {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return Router{Pattern: pattern}
}

func (r Router) render(companyID string, t time.Time) string {
	name := strings.ReplaceAll(r.Pattern, "{companyId}", companyID)
	name = strings.ReplaceAll(name, "{year}", strconv.Itoa(t.Year()))
	name = strings.ReplaceAll(name, "{month}", fmt.Sprintf("%02d", int(t.Month())))
	return name
}

// Write returns the single index an action timestamped at ts is written
// to, using the timestamp's UTC year and month.
func (r Router) Write(companyID string, ts time.Time) string {
	return r.render(companyID, ts.UTC())
}

// Read expands a date range into the comma-joined monthly indices covering
// it. start defaults to now minus six months and end to now. Each bucket
// is named from its end boundary, so a partial final month resolves to
// that month's bucket even if the index does not exist yet; searches run
// with ignore-missing-index semantics.
func (r Router) Read(companyID string, start, end *time.Time, now time.Time) string {
	from := now.AddDate(0, -6, 0)
	if start != nil {
		from = *start
	}
	to := now
	if end != nil {
		to = *end
	}
	from, to = from.UTC(), to.UTC()

	var names []string
	cursor := from
	for {
		eom := endOfMonth(cursor)
		bucketEnd := eom
		if to.Before(eom) {
			bucketEnd = to
		}
		names = append(names, r.render(companyID, bucketEnd))
		if !eom.Before(to) {
			break
		}
		cursor = eom.Add(time.Millisecond)
	}
	return strings.Join(names, ",")
}

// Wildcard returns the pattern with every placeholder wildcarded, suitable
// for the index template's pattern and for listing managed indices.
func (r Router) Wildcard() string {
	name := strings.ReplaceAll(r.Pattern, "{companyId}", "*")
	name = strings.ReplaceAll(name, "{year}", "*")
	name = strings.ReplaceAll(name, "{month}", "*")
	return name
}

// endOfMonth returns the last represented instant of t's month in UTC.
func endOfMonth(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.Add(-time.Millisecond)
}
