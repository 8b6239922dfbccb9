// Package timemod evaluates earliest/latest time modifiers such as -24h, -7d@d or @w1.
package timemod

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/searchlang/internal/domain"
)

type unit int

const (
	unitSecond unit = iota + 1
	unitMinute
	unitHour
	unitDay
	unitWeek
	unitMonth
	unitQuarter
	unitYear
)

var unitNames = map[string]unit{
	"s": unitSecond, "sec": unitSecond, "secs": unitSecond, "second": unitSecond, "seconds": unitSecond,
	"m": unitMinute, "min": unitMinute, "mins": unitMinute, "minute": unitMinute, "minutes": unitMinute,
	"h": unitHour, "hr": unitHour, "hrs": unitHour, "hour": unitHour, "hours": unitHour,
	"d": unitDay, "day": unitDay, "days": unitDay,
	"w": unitWeek, "week": unitWeek, "weeks": unitWeek,
	"mon": unitMonth, "month": unitMonth, "months": unitMonth,
	"q": unitQuarter, "qtr": unitQuarter, "qtrs": unitQuarter, "quarter": unitQuarter, "quarters": unitQuarter,
	"y": unitYear, "yr": unitYear, "yrs": unitYear, "year": unitYear, "years": unitYear,
}

var (
	offsetRe  = regexp.MustCompile(`^([+-])(\d*)([a-z]+)`)
	weekdayRe = regexp.MustCompile(`^w([0-6])$`)
	epochRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Parse evaluates expr relative to now. Accepted forms are "now", epoch
// seconds, and [offset][@snap[offset...]] where offset is [+-][n]unit.
func Parse(expr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	switch s {
	case "":
		return time.Time{}, fmt.Errorf("%w: empty", domain.ErrInvalidTimeModifier)
	case "now":
		return now, nil
	}

	if epochRe.MatchString(s) {
		epoch, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidTimeModifier, expr, err)
		}
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).In(now.Location()), nil
	}

	t := now
	rest, err := applyOffsets(&t, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidTimeModifier, expr, err)
	}
	if rest == "" {
		return t, nil
	}
	if rest[0] != '@' {
		return time.Time{}, fmt.Errorf("%w: %q: unexpected %q", domain.ErrInvalidTimeModifier, expr, rest)
	}

	rest = rest[1:]
	end := strings.IndexAny(rest, "+-")
	if end < 0 {
		end = len(rest)
	}
	if err := snap(&t, rest[:end]); err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidTimeModifier, expr, err)
	}

	rest, err = applyOffsets(&t, rest[end:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", domain.ErrInvalidTimeModifier, expr, err)
	}
	if rest != "" {
		return time.Time{}, fmt.Errorf("%w: %q: unexpected %q", domain.ErrInvalidTimeModifier, expr, rest)
	}
	return t, nil
}

// applyOffsets consumes leading [+-][n]unit groups and returns the remainder.
func applyOffsets(t *time.Time, s string) (string, error) {
	for {
		m := offsetRe.FindStringSubmatch(s)
		if m == nil {
			return s, nil
		}
		n := 1
		if m[2] != "" {
			v, err := strconv.Atoi(m[2])
			if err != nil {
				return "", fmt.Errorf("offset %q: %w", m[0], err)
			}
			n = v
		}
		if m[1] == "-" {
			n = -n
		}
		u, ok := unitNames[m[3]]
		if !ok {
			return "", fmt.Errorf("unknown unit %q", m[3])
		}
		*t = add(*t, n, u)
		s = s[len(m[0]):]
	}
}

func add(t time.Time, n int, u unit) time.Time {
	switch u {
	case unitSecond:
		return t.Add(time.Duration(n) * time.Second)
	case unitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case unitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case unitDay:
		return t.AddDate(0, 0, n)
	case unitWeek:
		return t.AddDate(0, 0, 7*n)
	case unitMonth:
		return t.AddDate(0, n, 0)
	case unitQuarter:
		return t.AddDate(0, 3*n, 0)
	case unitYear:
		return t.AddDate(n, 0, 0)
	}
	return t
}

func snap(t *time.Time, name string) error {
	loc := t.Location()
	y, mo, d := t.Date()

	if m := weekdayRe.FindStringSubmatch(name); m != nil {
		want := time.Weekday(m[1][0] - '0')
		back := (int(t.Weekday()) - int(want) + 7) % 7
		*t = time.Date(y, mo, d-back, 0, 0, 0, 0, loc)
		return nil
	}

	u, ok := unitNames[name]
	if !ok {
		return fmt.Errorf("unknown snap unit %q", name)
	}
	switch u {
	case unitSecond:
		*t = t.Truncate(time.Second)
	case unitMinute:
		*t = time.Date(y, mo, d, t.Hour(), t.Minute(), 0, 0, loc)
	case unitHour:
		*t = time.Date(y, mo, d, t.Hour(), 0, 0, 0, loc)
	case unitDay:
		*t = time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case unitWeek:
		*t = time.Date(y, mo, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	case unitMonth:
		*t = time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case unitQuarter:
		first := time.Month((int(mo)-1)/3*3 + 1)
		*t = time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case unitYear:
		*t = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	return nil
}
