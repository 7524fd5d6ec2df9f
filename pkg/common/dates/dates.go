package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrUnparsableDate = errors.New("unparsable date")

// NoDateLabel is what FormatDisplayDate renders for an absent or broken date.
const NoDateLabel = "Sin fecha"

const (
	minYear       = 1900
	secondsPerDay = 24 * 60 * 60
)

var displayDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// Layouts tried in order for the ISO storage form. Zoned layouts come first.
var (
	zonedLayouts = []string{time.RFC3339Nano}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
	}
)

const dateOnlyLayout = "2006-01-02"

// CalendarDate is a day on the calendar without time of day or zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate validates the triple and rejects values that would roll over
// into another month, e.g. 31 February.
func NewCalendarDate(year int, month time.Month, day int) (CalendarDate, bool) {
	if day < 1 || day > 31 || month < time.January || month > time.December || year < minYear {
		return CalendarDate{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return CalendarDate{}, false
	}
	return CalendarDate{Year: year, Month: month, Day: day}, true
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// In returns midnight of the date in loc.
func (d CalendarDate) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days later (earlier for negative n).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// DaysSince returns the signed number of whole days from other to d.
func (d CalendarDate) DaysSince(other CalendarDate) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Unix()
	b := time.Date(other.Year, other.Month, other.Day, 0, 0, 0, 0, time.UTC).Unix()
	return int((a - b) / secondsPerDay)
}

func (d CalendarDate) Compare(other CalendarDate) int {
	switch {
	case d.Year != other.Year:
		return compareInt(d.Year, other.Year)
	case d.Month != other.Month:
		return compareInt(int(d.Month), int(other.Month))
	default:
		return compareInt(d.Day, other.Day)
	}
}

func (d CalendarDate) Before(other CalendarDate) bool {
	return d.Compare(other) < 0
}

// String renders the display form dd/MM/yyyy.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// StorageString renders the ISO storage form: midnight of the date in loc.
func (d CalendarDate) StorageString(loc *time.Location) string {
	return d.In(loc).Format(time.RFC3339)
}

// ParseDisplayDate accepts strict dd/MM/yyyy. The second result is false for
// anything that is not a real calendar date.
func ParseDisplayDate(s string) (CalendarDate, bool) {
	match := displayDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return CalendarDate{}, false
	}
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	return NewCalendarDate(year, time.Month(month), day)
}

// FormatDisplayDate converts a stored date to dd/MM/yyyy, or NoDateLabel when
// the value is absent or cannot be read.
func FormatDisplayDate(stored string, loc *time.Location) string {
	d, err := ParseStored(stored, loc)
	if err != nil || d == nil {
		return NoDateLabel
	}
	return d.String()
}

// DaysUntil returns the number of calendar days from now to the stored date.
// Unparsable or absent input yields 0; use ParseStored when that has to be
// told apart from "today".
func DaysUntil(stored string, now time.Time) int {
	d, err := ParseStored(stored, now.Location())
	if err != nil || d == nil {
		return 0
	}
	return d.DaysSince(DateOf(now))
}

// ParseStored normalizes a stored date string. Absent input gives nil, nil.
func ParseStored(raw string, loc *time.Location) (*CalendarDate, error) {
	return ClassifyDateString(raw).Normalize(loc)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
