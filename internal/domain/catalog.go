package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var (
	DefaultSlots      = []string{"09:00", "10:30", "13:00", "15:30"}
	DefaultClosedDays = []time.Weekday{time.Saturday, time.Sunday}
)

// SlotCatalog is the fixed daily schedule. It is immutable after construction.
type SlotCatalog struct {
	slots  []string
	index  map[string]struct{}
	closed map[time.Weekday]struct{}
}

func NewSlotCatalog(slots []string, closedDays []time.Weekday) (*SlotCatalog, error) {
	if len(slots) == 0 {
		return nil, errors.New("at least one slot is required")
	}

	c := &SlotCatalog{
		slots:  make([]string, 0, len(slots)),
		index:  make(map[string]struct{}, len(slots)),
		closed: make(map[time.Weekday]struct{}, len(closedDays)),
	}
	for _, s := range slots {
		s = strings.TrimSpace(s)
		if !ValidSlotTime(s) {
			return nil, fmt.Errorf("invalid slot time %q", s)
		}
		if _, ok := c.index[s]; ok {
			return nil, fmt.Errorf("duplicate slot time %q", s)
		}
		c.index[s] = struct{}{}
		c.slots = append(c.slots, s)
	}
	for _, d := range closedDays {
		if d < time.Sunday || d > time.Saturday {
			return nil, fmt.Errorf("invalid weekday %d", d)
		}
		c.closed[d] = struct{}{}
	}
	return c, nil
}

func DefaultSlotCatalog() *SlotCatalog {
	c, err := NewSlotCatalog(DefaultSlots, DefaultClosedDays)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *SlotCatalog) IsOpenDay(date time.Time) bool {
	_, closed := c.closed[date.Weekday()]
	return !closed
}

// BaseSlots returns a copy of the ordered slot list.
func (c *SlotCatalog) BaseSlots() []string {
	out := make([]string, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *SlotCatalog) Contains(slot string) bool {
	_, ok := c.index[slot]
	return ok
}

// ClosedDays returns the closed weekdays in Sunday-first order.
func (c *SlotCatalog) ClosedDays() []time.Weekday {
	out := make([]time.Weekday, 0, len(c.closed))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if _, ok := c.closed[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// ParseDate parses a strict YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ValidSlotTime reports whether s is a 24-hour HH:mm time of day.
func ValidSlotTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}
