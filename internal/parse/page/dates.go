package page

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cartelera/cartelera/internal/textutil"
)

var (
	dmySlash = regexp.MustCompile(`(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})`)
	dmyDe    = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+([a-záéíóúñ]+)(?:\s+de\s+(\d{4}))?`)
	hourMin  = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDate best-effort parses the messy date strings venue sites publish.
// Numeric day/month ordering follows the local convention (day first). A
// date with no year takes the next occurrence relative to now. Returns the
// zero time when nothing matches.
func parseDate(raw string, now time.Time) time.Time {
	s := textutil.Collapse(raw)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}

	hour, minute := extractTime(s)

	if m := dmySlash.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if validDate(day, month) {
			return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
		}
	}

	if m := dmyDe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := spanishMonths[strings.ToLower(m[2])]
		if ok && day >= 1 && day <= 31 {
			year := now.Year()
			if m[3] != "" {
				year, _ = strconv.Atoi(m[3])
			}
			t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
			// No explicit year and the date already passed: it means the
			// next occurrence.
			if m[3] == "" && t.Before(now.AddDate(0, 0, -1)) {
				t = t.AddDate(1, 0, 0)
			}
			return t
		}
	}

	return time.Time{}
}

func extractTime(s string) (int, int) {
	if m := hourMin.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h < 24 && min < 60 {
			return h, min
		}
	}
	return 0, 0
}

func validDate(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}
