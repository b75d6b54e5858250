// Package hours bridges human-entered time text ("H:MM") and the decimal
// hour arithmetic used for caps, aggregation, and payroll.
//
// All functions are total: malformed input degrades to zero rather than
// erroring, matching the validate-then-parse calling convention — callers
// reject bad text with IsValidTimeFormat before converting it.
package hours

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// maxHours is the sanity bound on the hour component of time text.
const maxHours = 1000

var timePattern = regexp.MustCompile(`^\d+:([0-5]?\d)$`)

// TimeToDecimal converts "H:MM" text to decimal hours. Empty text is 0.
// Text without a colon is parsed as a plain decimal number for legacy
// compatibility; invalid or negative numeric text yields 0.
func TimeToDecimal(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	if !strings.Contains(text, ":") {
		dec, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(dec) || dec < 0 {
			return 0
		}
		return dec
	}

	parts := strings.Split(text, ":")
	if len(parts) != 2 {
		return 0
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || h < 0 || m < 0 {
		return 0
	}
	return float64(h) + float64(m)/60
}

// DecimalToTime formats decimal hours as "H:MM". Non-positive or NaN input
// formats as "0:00". A fractional part that rounds to 60 minutes carries
// into the hour.
func DecimalToTime(hoursVal float64) string {
	if math.IsNaN(hoursVal) || hoursVal <= 0 {
		return "0:00"
	}

	whole := int(math.Floor(hoursVal))
	minutes := int(math.Round((hoursVal - float64(whole)) * 60))
	if minutes == 60 {
		whole++
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", whole, minutes)
}

// IsValidTimeFormat reports whether text is acceptable hour input. Empty
// text is valid (the field is optional). Text without a colon is valid iff
// it parses as a non-negative number. Text with a colon must be "H:MM" with
// minutes in [0,59] and hours under the sanity bound.
func IsValidTimeFormat(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}

	if !strings.Contains(text, ":") {
		dec, err := strconv.ParseFloat(text, 64)
		return err == nil && !math.IsNaN(dec) && dec >= 0
	}

	if !timePattern.MatchString(text) {
		return false
	}
	h, _ := strconv.Atoi(strings.SplitN(text, ":", 2)[0])
	return h < maxHours
}

// toMinutes converts decimal hours to whole minutes, rounding to the
// nearest minute so 1:30 entered as 1.5 compares exactly.
func toMinutes(hoursVal float64) int {
	return int(math.Round(hoursVal * 60))
}

// WithinCap reports whether a worker's hours fit inside the task's estimated
// hours. A zero/unset estimate means no constraint. The comparison happens
// at minute resolution to avoid floating-point error.
func WithinCap(workerHours, estimatedHours float64) bool {
	if estimatedHours <= 0 {
		return true
	}
	return toMinutes(workerHours) <= toMinutes(estimatedHours)
}

// ServiceTime is the wall-clock duration of a multi-worker job: the maximum
// of the individual workers' hours, since workers on the same task work
// concurrently. An empty list yields 0.
func ServiceTime(workerHours []float64) float64 {
	var maxH float64
	for _, h := range workerHours {
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

// Resolve picks the effective hours for one worker with the standard
// fallback priority: approved hours, then assigned hours, then an even split
// of the task's estimated hours across all assigned workers.
func Resolve(approved, assigned *float64, estimatedHours float64, workerCount int) float64 {
	if approved != nil {
		return *approved
	}
	if assigned != nil {
		return *assigned
	}
	if workerCount <= 0 {
		return 0
	}
	return estimatedHours / float64(workerCount)
}
