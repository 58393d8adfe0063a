// Package dates renders task-tracker timestamps as long-form Spanish dates,
// the format the notification audience expects ("17 de noviembre de 2026").
package dates

import (
	"fmt"
	"strconv"
	"time"
)

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FromMillis renders an epoch-milliseconds timestamp.
func FromMillis(ms int64) string {
	return format(time.UnixMilli(ms))
}

// FromString renders a date string. Accepts epoch milliseconds, RFC 3339,
// and plain dates; anything unrecognized is returned unchanged so a bad
// upstream value still displays.
func FromString(raw string) string {
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return format(time.UnixMilli(ms))
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return format(t)
		}
	}
	return raw
}

func format(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}
