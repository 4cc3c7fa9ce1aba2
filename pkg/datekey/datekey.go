package datekey

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the canonical wire format of a calendar day.
const Layout = "2006-01-02"

var ErrInvalidKey = errors.New("invalid date key")

// Key is a calendar day encoded as YYYY-MM-DD. Keys are fixed width and zero padded,
// so plain string comparison orders them chronologically.
type Key string

// ToKey returns the key of the calendar day t falls on in t's own location.
// The date components are read as they are; the time is never converted to UTC first.
func ToKey(t time.Time) Key {
	y, m, d := t.Date()
	return Key(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// FromKey parses key into midnight of that day in loc.
func FromKey(key Key, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(key) != len(Layout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	t, err := time.ParseInLocation(Layout, string(key), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	return t, nil
}

// Parse validates s and returns it as a Key.
func Parse(s string) (Key, error) {
	t, err := FromKey(Key(s), time.UTC)
	if err != nil {
		return "", err
	}
	if ToKey(t) != Key(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(s), nil
}

// MustParse is like Parse but panics on malformed input. Meant for fixtures and tests.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Valid reports whether k is a well formed calendar day.
func (k Key) Valid() bool {
	_, err := Parse(string(k))
	return err == nil
}

// AddDays returns the key n days after k. Arithmetic runs on the civil date, so DST
// transitions can never skip or repeat a day.
func (k Key) AddDays(n int) (Key, error) {
	t, err := FromKey(k, time.UTC)
	if err != nil {
		return "", err
	}
	return ToKey(t.AddDate(0, 0, n)), nil
}

// DaysUntil counts whole days from k to other; negative when other is earlier.
func (k Key) DaysUntil(other Key) (int, error) {
	from, err := FromKey(k, time.UTC)
	if err != nil {
		return 0, err
	}
	to, err := FromKey(other, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours() / 24), nil
}

func (k Key) String() string {
	return string(k)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable millisecond of t's day, 23:59:59.999.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// FirstOfMonth normalises t to the 1st of its month at midnight.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
