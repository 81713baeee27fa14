package utils

import (
	"fmt"
	"time"

	_ "time/tzdata"

	"github.com/go-universal/jalaali"
)

// DefaultTimezone is the zone generation dates are reported in.
const DefaultTimezone = "Asia/Jerusalem"

// Clock is the single source of "now" for a run.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T. Used by tests and replays.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// LoadLocation resolves an IANA zone name. The embedded tzdata keeps this
// working on minimal images without /usr/share/zoneinfo.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// DateString formats t as YYYY-MM-DD in loc.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// JalaliDate returns a string like "1405/07/27" for t in loc.
func JalaliDate(t time.Time, loc *time.Location) string {
	j := jalaali.New(t.In(loc))
	return j.Format("2006/01/02")
}

// TimeHHMM formats time-of-day in HH:MM (24h).
func TimeHHMM(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}
