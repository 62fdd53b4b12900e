package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeLayout is how timestamps are rendered in API payloads.
const TimeLayout = "2006-01-02 15:04:05"

var scanLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	TimeLayout,
	time.RFC3339Nano,
}

// DateTime is a nullable timestamp for raw query results. It renders as
// "2006-01-02 15:04:05" or null.
type DateTime struct {
	Time  time.Time
	Valid bool
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t, Valid: !t.IsZero()}
}

// Scan accepts driver time values and the text forms sqlite returns for
// untyped expressions.
func (d *DateTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = DateTime{}
		return nil
	case time.Time:
		*d = NewDateTime(v)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	}
	return fmt.Errorf("cannot scan %T into DateTime", value)
}

func (d *DateTime) parse(s string) error {
	if s == "" {
		*d = DateTime{}
		return nil
	}
	for _, layout := range scanLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			*d = NewDateTime(t)
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as DateTime", s)
}

func (d DateTime) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time, nil
}

func (d DateTime) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(TimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Time.Format(TimeLayout) + `"`), nil
}
