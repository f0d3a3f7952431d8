package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// meridiem is an explicit morning/afternoon qualifier found near the time.
type meridiem int

const (
	meridiemNone meridiem = iota
	meridiemAM
	meridiemPM
)

var (
	// 14:00, 2.30 — separator form with explicit minutes
	sepTimeRE = regexp.MustCompile(`(\d{1,2})[:.](\d{2})`)
	// 2點半, 2:半, 2.半 — half past
	halfTimeRE = regexp.MustCompile(`(\d{1,2})[點:.]半`)
	// 2點, 2點30, 2點30分
	chineseTimeRE = regexp.MustCompile(`(\d{1,2})點(?:(\d{1,2})分?)?`)

	amWords = []string{"早上", "上午", "凌晨", "am", "AM"}
	pmWords = []string{"下午", "晚上", "傍晚", "pm", "PM"}
)

// timeMatcher is one rule: it reports the parsed time, whether minutes were
// written out in separator form, and whether the rule fired at all.
type timeMatcher func(text string) (hour, minute int, sepForm bool, ok bool)

// Rule order matters and is part of the contract: explicit hour+minute,
// then half-past forms, then a bare hour.
var timeMatchers = []timeMatcher{
	matchSepTime,
	matchHalfTime,
	matchChineseTime,
	matchBareHour,
}

// matchTime runs the ordered time rules over text and applies the meridiem
// resolution to the winning rule's hour.
func matchTime(text string) (TimeOfDay, bool) {
	q := findMeridiem(text)
	for _, rule := range timeMatchers {
		hour, minute, sepForm, ok := rule(text)
		if !ok {
			continue
		}
		if hour > 23 || minute > 59 {
			continue
		}
		return TimeOfDay{Hour: resolveMeridiem(hour, sepForm, q), Minute: minute}, true
	}
	return TimeOfDay{}, false
}

// resolveMeridiem decides the 24-hour hour for an ambiguous input.
//
// The salon's bookings concentrate after noon, so an hour below 12 with no
// explicit morning qualifier and no separator-form minutes ("2:30") is read
// as afternoon. This is a coarse business heuristic carried over on purpose;
// replacing it with an explicit AM/PM prompt is a live question, which is why
// it sits alone here rather than inside the matchers.
func resolveMeridiem(hour int, sepForm bool, q meridiem) int {
	if hour >= 12 {
		return hour
	}
	switch q {
	case meridiemAM:
		return hour
	case meridiemPM:
		return hour + 12
	default:
		if sepForm {
			return hour
		}
		return hour + 12
	}
}

func findMeridiem(text string) meridiem {
	for _, w := range amWords {
		if strings.Contains(text, w) {
			return meridiemAM
		}
	}
	for _, w := range pmWords {
		if strings.Contains(text, w) {
			return meridiemPM
		}
	}
	return meridiemNone
}

func matchSepTime(text string) (int, int, bool, bool) {
	m := sepTimeRE.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, false
	}
	return atoi(m[1]), atoi(m[2]), true, true
}

func matchHalfTime(text string) (int, int, bool, bool) {
	m := halfTimeRE.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, false
	}
	return atoi(m[1]), 30, false, true
}

func matchChineseTime(text string) (int, int, bool, bool) {
	m := chineseTimeRE.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false, false
	}
	minute := 0
	if m[2] != "" {
		minute = atoi(m[2])
	}
	return atoi(m[1]), minute, false, true
}

// matchBareHour fires only when the text, stripped of qualifier words and
// whitespace, is nothing but one or two digits.
func matchBareHour(text string) (int, int, bool, bool) {
	stripped := text
	for _, w := range append(append([]string{}, amWords...), pmWords...) {
		stripped = strings.ReplaceAll(stripped, w, "")
	}
	stripped = strings.TrimSpace(stripped)
	if len(stripped) < 1 || len(stripped) > 2 {
		return 0, 0, false, false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return 0, 0, false, false
		}
	}
	return atoi(stripped), 0, false, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
