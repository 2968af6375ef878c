package expiry

import (
	"time"

	"github.com/scmhub/calendar"
)

// Expiry is one upcoming weekly contract expiry.
type Expiry struct {
	Date     time.Time `json:"-"`
	Label    string    `json:"label"` // "2026-08-28"
	DaysAway int       `json:"days_away"`
}

// Calendar lists upcoming weekly expiries. Weeklies settle on Friday;
// when the Friday is a market holiday the expiry rolls back to the
// preceding business day.
type Calendar struct {
	nyse     *calendar.Calendar
	location *time.Location
	now      func() time.Time
}

func NewCalendar() *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Calendar{
		nyse:     calendar.XNYS(),
		location: loc,
		now:      time.Now,
	}
}

// Upcoming returns the next count weekly expiries, nearest first.
// Today's expiry is still listed until the day is over.
func (c *Calendar) Upcoming(count int) []Expiry {
	if count <= 0 {
		return nil
	}

	now := c.now().In(c.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.location)

	expiries := make([]Expiry, 0, count)
	friday := nextFriday(today)

	for len(expiries) < count {
		settle := c.rollToBusinessDay(friday)

		// A holiday roll-back can land before today; skip to next week.
		if !settle.Before(today) {
			expiries = append(expiries, Expiry{
				Date:     settle,
				Label:    settle.Format("2006-01-02"),
				DaysAway: daysBetween(today, settle),
			})
		}

		friday = friday.AddDate(0, 0, 7)
	}

	return expiries
}

// rollToBusinessDay walks a settlement date back to the nearest
// preceding market day.
func (c *Calendar) rollToBusinessDay(date time.Time) time.Time {
	for !c.nyse.IsBusinessDay(date) {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

// daysBetween counts calendar days, immune to DST hour shifts.
func daysBetween(from, to time.Time) int {
	days := 0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

func nextFriday(today time.Time) time.Time {
	offset := (int(time.Friday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, offset)
}
