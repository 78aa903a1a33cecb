package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseInterval parses a scheduler interval.
//
// Supported forms:
//   - Go duration: "40m", "1h30m", "90s"
//   - HH:MM: "00:40" (40 minutes), "02:30" (2 hours 30 minutes)
//   - bare integer: minutes, matching interval_minutes
func ParseInterval(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("interval required")
	}
	if reHHMM.MatchString(s) {
		return parseHHMMDuration(s)
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("interval must be > 0")
		}
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q (use HH:MM like '00:40' or a duration like '40m')", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

func parseHHMMDuration(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

// EffectiveInterval returns the configured cadence. The string form wins over
// interval_minutes; anything unusable falls back to the minutes field, and the
// result is never below one second.
func (s SchedulerConfig) EffectiveInterval() time.Duration {
	if strings.TrimSpace(s.Interval) != "" {
		if d, err := ParseInterval(s.Interval); err == nil {
			return clampInterval(d)
		}
	}
	return clampInterval(time.Duration(s.IntervalMinutes) * time.Minute)
}

func clampInterval(d time.Duration) time.Duration {
	if d < time.Second {
		return time.Second
	}
	return d
}
