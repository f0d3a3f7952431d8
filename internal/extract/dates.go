package extract

import (
	"regexp"
	"strconv"
	"time"
)

func monthOf(m int) time.Month {
	return time.Month(m)
}

// Date rules in priority order. Each regex is tried across the whole string
// and the first occurrence with a valid month/day wins; an invalid hit (such
// as "14.00" read as month 14) falls through to later occurrences and rules.
var (
	// 2025-05-03, 2025/5/3, 2025.5.3, 2025年5月3日
	fullDateRE = regexp.MustCompile(`(\d{4})[年\-/.](\d{1,2})[月\-/.](\d{1,2})日?`)
	// 5/3, 5-3, 5.3, 5月3日 — year defaults to the current year
	monthDayRE = regexp.MustCompile(`(\d{1,2})[月\-/.](\d{1,2})日?`)
)

// matchDate returns the extracted date plus the byte span it was matched at,
// so combined parsing can cut the date out before running the time rules.
func (e *Extractor) matchDate(text string) (Date, []int, bool) {
	for _, m := range fullDateRE.FindAllStringSubmatchIndex(text, -1) {
		year := atoiSpan(text, m, 1)
		month := atoiSpan(text, m, 2)
		day := atoiSpan(text, m, 3)
		if validMonthDay(month, day) {
			return Date{Year: year, Month: monthOf(month), Day: day}, m[0:2], true
		}
	}

	for _, m := range monthDayRE.FindAllStringSubmatchIndex(text, -1) {
		month := atoiSpan(text, m, 1)
		day := atoiSpan(text, m, 2)
		if validMonthDay(month, day) {
			return Date{Year: e.now().Year(), Month: monthOf(month), Day: day}, m[0:2], true
		}
	}

	return Date{}, nil, false
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

func atoiSpan(text string, m []int, group int) int {
	lo, hi := m[2*group], m[2*group+1]
	if lo < 0 {
		return 0
	}
	n, _ := strconv.Atoi(text[lo:hi])
	return n
}
