package retention

import "time"

const secondsPerDay = 24 * 60 * 60

// Age is the age of a backup in each granularity.
type Age struct {
	Years  int
	Months int
	Weeks  int
	Days   int
}

// In returns the age expressed in g, which is also the bucket index.
func (a Age) In(g Granularity) int {
	switch g {
	case Year:
		return a.Years
	case Month:
		return a.Months
	case Week:
		return a.Weeks
	default:
		return a.Days
	}
}

// AgeAt computes the age of a backup taken at ts, evaluated at now.
// Years are 365-day blocks. Months count calendar-month steps from ts that
// still fall before now, starting at -1, so any backup from less than one
// month ago is 0 months old. Timestamps in the future are age zero.
func AgeAt(ts, now time.Time) Age {
	if !ts.Before(now) {
		return Age{}
	}

	days := int((now.Unix() - ts.Unix()) / secondsPerDay)

	months := -1
	for cur := ts; cur.Before(now); cur = cur.AddDate(0, 1, 0) {
		months++
	}

	return Age{
		Years:  days / 365,
		Months: months,
		Weeks:  days / 7,
		Days:   days,
	}
}
