// Package extract turns one line of free text into a calendar date and/or a
// time of day. Matching is an ordered list of independent rules over a
// normalized string; the first rule that fires wins and nothing here ever
// returns an error — an input no rule understands is simply a miss.
package extract

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String renders the date as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At materializes the date in the given location at midnight.
func (d Date) At(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// TimeOfDay is a wall-clock time in 24-hour form.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders the time as "15:04".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Result is the outcome of extraction. Nil fields mean "not present".
type Result struct {
	Date *Date
	Time *TimeOfDay
}

// Extractor parses dates and times out of chat messages. The clock is
// injected so "month/day without year" resolves deterministically in tests.
type Extractor struct {
	now func() time.Time
}

// New builds an extractor. A nil clock uses time.Now.
func New(now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{now: now}
}

// Extract attempts combined date+time extraction: the date rules run first
// and their matched span is cut out before the time rules run on the rest.
// A message like "5/5 14:00" or "5/5 2點半" therefore yields both fields.
func (e *Extractor) Extract(text string) Result {
	text = normalize(text)

	var res Result
	rest := text
	if d, span, ok := e.matchDate(text); ok {
		res.Date = &d
		rest = strings.TrimSpace(text[:span[0]] + " " + text[span[1]:])
	}
	if t, ok := matchTime(rest); ok {
		res.Time = &t
	}
	return res
}

// ExtractDate runs only the date rules.
func (e *Extractor) ExtractDate(text string) (Date, bool) {
	d, _, ok := e.matchDate(normalize(text))
	return d, ok
}

// ExtractTime runs only the time rules.
func (e *Extractor) ExtractTime(text string) (TimeOfDay, bool) {
	return matchTime(normalize(text))
}

// normalize maps fullwidth digits and punctuation, common in LINE input,
// onto their ASCII forms before any rule runs.
func normalize(text string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= '０' && r <= '９':
			sb.WriteRune('0' + (r - '０'))
		case r == '：':
			sb.WriteRune(':')
		case r == '／':
			sb.WriteRune('/')
		case r == '　':
			sb.WriteRune(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
