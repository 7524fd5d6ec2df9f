package dates

import (
	"fmt"
	"strings"
	"time"
)

type DateKind int

const (
	Absent DateKind = iota
	ISO
	LegacyDisplay
)

func (k DateKind) String() string {
	switch k {
	case ISO:
		return "iso"
	case LegacyDisplay:
		return "legacy-display"
	default:
		return "absent"
	}
}

// DateValue is a raw stored date tagged with the shape it was written in.
type DateValue struct {
	Kind DateKind
	Raw  string
}

// ClassifyDateString tags raw by shape: empty is Absent, anything containing
// 'T' or '-' is ISO, the rest is the legacy dd/MM/yyyy form.
func ClassifyDateString(raw string) DateValue {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return DateValue{Kind: Absent}
	case strings.ContainsAny(s, "T-"):
		return DateValue{Kind: ISO, Raw: s}
	default:
		return DateValue{Kind: LegacyDisplay, Raw: s}
	}
}

// Normalize converts the value to a calendar date seen from loc.
func (v DateValue) Normalize(loc *time.Location) (*CalendarDate, error) {
	if loc == nil {
		loc = time.Local
	}

	switch v.Kind {
	case Absent:
		return nil, nil
	case LegacyDisplay:
		d, ok := ParseDisplayDate(v.Raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnparsableDate, v.Raw)
		}
		return &d, nil
	case ISO:
		return parseISO(v.Raw, loc)
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrUnparsableDate, v.Kind)
}

func parseISO(s string, loc *time.Location) (*CalendarDate, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOf(t.In(loc))
			return &d, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			d := DateOf(t)
			return &d, nil
		}
	}
	// A bare date is already a calendar date; it is not shifted by zone.
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		d := DateOf(t)
		return &d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnparsableDate, s)
}
