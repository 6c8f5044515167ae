package extractor

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	dashVariants = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-")
	toSeparator  = regexp.MustCompile(`\bto\b`)

	// [Month] YYYY - [Month] (YYYY|present)
	dateRangeRe = regexp.MustCompile(`\b(?:` + monthPattern + `\.?,?\s+)?(\d{4})\s*-\s*(?:` + monthPattern + `\.?,?\s+)?(\d{4}|present|current)\b`)

	monthByPrefix = map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}
)

const (
	minYear = 1900
	maxYear = 2100
)

// interval is a half-open span of months, stored as year*12 + month-1
type interval struct {
	start, end int
}

// ComputeExperienceYears sums the non-overlapping duration of every date range
// found in text. "present" resolves to now. It returns nil when no valid range
// is found so that "no data" stays distinct from zero years.
func ComputeExperienceYears(text string, now time.Time) *int {
	merged := mergeIntervals(findIntervals(text, now))

	months := 0
	for _, iv := range merged {
		months += iv.end - iv.start
	}
	if months == 0 {
		return nil
	}

	years := math.Round(float64(months)/12*10) / 10
	rounded := int(math.Round(years))
	return &rounded
}

func normalizeSeparators(text string) string {
	text = strings.ToLower(text)
	text = dashVariants.Replace(text)
	return toSeparator.ReplaceAllString(text, "-")
}

// findIntervals parses every date range in text. Unparseable and empty or
// inverted ranges are dropped.
func findIntervals(text string, now time.Time) []interval {
	matches := dateRangeRe.FindAllStringSubmatch(normalizeSeparators(text), -1)

	intervals := make([]interval, 0, len(matches))
	for _, m := range matches {
		start, ok := parseEndpoint(m[1], m[2], now)
		if !ok {
			continue
		}
		end, ok := parseEndpoint(m[3], m[4], now)
		if !ok {
			continue
		}
		if end <= start {
			continue
		}
		intervals = append(intervals, interval{start: start, end: end})
	}
	return intervals
}

// parseEndpoint turns an optional month and a year (or "present") into a
// month index. A missing month defaults to January.
func parseEndpoint(month, year string, now time.Time) (int, bool) {
	if year == "present" || year == "current" {
		return now.Year()*12 + int(now.Month()) - 1, true
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < minYear || y > maxYear {
		return 0, false
	}

	m := 1
	if month != "" {
		if len(month) < 3 {
			return 0, false
		}
		var ok bool
		m, ok = monthByPrefix[month[:3]]
		if !ok {
			return 0, false
		}
	}
	return y*12 + m - 1, true
}

// mergeIntervals sorts by start and collapses overlapping or adjacent spans so
// concurrent roles are not counted twice.
func mergeIntervals(intervals []interval) []interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	merged := []interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.start <= last.end {
			if iv.end > last.end {
				last.end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
