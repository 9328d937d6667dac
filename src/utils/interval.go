package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeInterval represents a parsed look-back interval with months, weeks, and days.
type TimeInterval struct {
	Months int
	Weeks  int
	Days   int
}

var intervalRegex = regexp.MustCompile(`^(\d+m)?(:?\d+w)?(:?\d+d)?$`)

// ParseTimeInterval parses a string in the format "2m:1w:3d" and returns a TimeInterval struct.
// It returns an error if the format is invalid.
func ParseTimeInterval(intervalStr string) (*TimeInterval, error) {
	match := intervalRegex.FindStringSubmatch(intervalStr)
	if match == nil || intervalStr == "" {
		return nil, fmt.Errorf("invalid interval %q", intervalStr)
	}

	months, weeks, days := 0, 0, 0

	if match[1] != "" {
		months, _ = strconv.Atoi(strings.TrimSuffix(match[1], "m"))
	}
	if match[2] != "" {
		weeks, _ = strconv.Atoi(strings.Trim(match[2], ":w"))
	}
	if match[3] != "" {
		days, _ = strconv.Atoi(strings.Trim(match[3], ":d"))
	}

	return &TimeInterval{Months: months, Weeks: weeks, Days: days}, nil
}

// Before returns the instant the interval reaches back to from t, using calendar months.
func (ti *TimeInterval) Before(t time.Time) time.Time {
	return t.AddDate(0, -ti.Months, -(ti.Weeks*7 + ti.Days))
}
