// Package retention decides which timestamped backup files to keep using
// yearly, monthly, weekly and daily buckets.
package retention

import (
	"fmt"
	"strconv"
	"strings"
)

// Granularity is a retention bucket size.
type Granularity int

// Granularities in evaluation order.
const (
	Year Granularity = iota
	Month
	Week
	Day
)

// Granularities lists every granularity in evaluation order.
var Granularities = []Granularity{Year, Month, Week, Day}

func (g Granularity) String() string {
	switch g {
	case Year:
		return "yearly"
	case Month:
		return "monthly"
	case Week:
		return "weekly"
	case Day:
		return "daily"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Reason explains why a file is kept.
type Reason string

// ReasonNoPolicy marks files kept because no limit is configured at all.
const ReasonNoPolicy Reason = "no-policy"

// Reason returns the kept-reason for g.
func (g Granularity) Reason() Reason {
	return Reason(g.String())
}

type limitKind int

const (
	limitDisabled limitKind = iota
	limitWildcard
	limitCount
)

// Limit is a per-granularity retention limit. The zero value is disabled.
type Limit struct {
	kind  limitKind
	count int
}

// Disabled returns a limit that keeps nothing for its granularity.
func Disabled() Limit { return Limit{} }

// Unlimited returns the wildcard limit.
func Unlimited() Limit { return Limit{kind: limitWildcard} }

// Keep returns a limit that keeps buckets up to index n. n <= 0 is disabled.
func Keep(n int) Limit {
	if n <= 0 {
		return Disabled()
	}
	return Limit{kind: limitCount, count: n}
}

// ParseLimit converts a setting value. Empty, "0", negative and non-numeric
// values are disabled; "*" is unlimited.
func ParseLimit(s string) Limit {
	s = strings.TrimSpace(s)
	if s == "*" {
		return Unlimited()
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Disabled()
	}
	return Keep(n)
}

// Enabled reports whether the limit keeps anything.
func (l Limit) Enabled() bool { return l.kind != limitDisabled }

// Allows reports whether a representative at bucket index may be kept.
func (l Limit) Allows(index int) bool {
	switch l.kind {
	case limitWildcard:
		return true
	case limitCount:
		return index <= l.count
	default:
		return false
	}
}

func (l Limit) String() string {
	switch l.kind {
	case limitWildcard:
		return "*"
	case limitCount:
		return strconv.Itoa(l.count)
	default:
		return "off"
	}
}

// Policy holds the four retention limits of a section.
type Policy struct {
	Yearly  Limit
	Monthly Limit
	Weekly  Limit
	Daily   Limit
}

// Limit returns the limit configured for g.
func (p Policy) Limit(g Granularity) Limit {
	switch g {
	case Year:
		return p.Yearly
	case Month:
		return p.Monthly
	case Week:
		return p.Weekly
	case Day:
		return p.Daily
	default:
		return Disabled()
	}
}

// Configured reports whether at least one limit is enabled.
func (p Policy) Configured() bool {
	for _, g := range Granularities {
		if p.Limit(g).Enabled() {
			return true
		}
	}
	return false
}
