package retention

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// TimestampLayout is the 14-digit stamp embedded in backup file names.
const TimestampLayout = "20060102150405"

// ErrNoMatch is returned for file names that are not backups of the section.
var ErrNoMatch = errors.New("file name does not match backup pattern")

// MalformedTimestampError is returned when the embedded stamp is not a valid
// calendar date and time.
type MalformedTimestampError struct {
	Name  string
	Stamp string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q in %s: %v", e.Stamp, e.Name, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error { return e.Err }

// Matcher recognizes <filebase>-<stamp><extension> file names.
type Matcher struct {
	pattern *regexp.Regexp
	loc     *time.Location
}

// NewMatcher builds a matcher. Stamps are interpreted in loc, or the local
// zone when loc is nil.
func NewMatcher(filebase, extension string, loc *time.Location) *Matcher {
	if loc == nil {
		loc = time.Local
	}
	expr := "^" + regexp.QuoteMeta(filebase) + `-([0-9]{14})` + regexp.QuoteMeta(extension) + "$"
	return &Matcher{
		pattern: regexp.MustCompile(expr),
		loc:     loc,
	}
}

// FileName returns the backup file name for a run started at t.
func FileName(filebase, extension string, t time.Time) string {
	return fmt.Sprintf("%s-%s%s", filebase, t.Format(TimestampLayout), extension)
}

// Match extracts the backup timestamp from name.
func (m *Matcher) Match(name string) (time.Time, error) {
	sub := m.pattern.FindStringSubmatch(name)
	if sub == nil {
		return time.Time{}, ErrNoMatch
	}
	ts, err := time.ParseInLocation(TimestampLayout, sub[1], m.loc)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Name: name, Stamp: sub[1], Err: err}
	}
	return ts, nil
}

// Candidates matches names and attaches ages at now. Unrelated names are
// skipped; names with a malformed stamp are skipped and reported.
func (m *Matcher) Candidates(names []string, now time.Time) ([]Candidate, []error) {
	var candidates []Candidate
	var malformed []error
	for _, name := range names {
		ts, err := m.Match(name)
		if err != nil {
			if !errors.Is(err, ErrNoMatch) {
				malformed = append(malformed, err)
			}
			continue
		}
		candidates = append(candidates, NewCandidate(name, ts, now))
	}
	return candidates, malformed
}
