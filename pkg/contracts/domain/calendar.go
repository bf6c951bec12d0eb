package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday names in Monday-first order.
var WeekdayNames = [7]string{
	"Segunda-feira",
	"Terça-feira",
	"Quarta-feira",
	"Quinta-feira",
	"Sexta-feira",
	"Sábado",
	"Domingo",
}

// MonthNames holds the lowercase pt-BR month names, January first.
var MonthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// WeekdayIndex maps a time.Weekday to its Monday-first position (0..6).
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekdayName returns the pt-BR name of the given weekday.
func WeekdayName(d time.Weekday) string {
	return WeekdayNames[WeekdayIndex(d)]
}

// WeekdayPosition returns the Monday-first position of a weekday name, or -1.
func WeekdayPosition(name string) int {
	for i, n := range WeekdayNames {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// MonthName returns the pt-BR name of the given month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return MonthNames[m-1]
}

// ClockTime is a time of day expressed in seconds since midnight.
type ClockTime int

var clockLayouts = []string{"15:04:05", "15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05"}

// ParseClock parses "HH:MM[:SS]" (optionally prefixed by a date).
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewClockTime(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// NewClockTime builds a ClockTime from its components.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime(hour*3600 + minute*60 + second)
}

// Hour returns the hour component (0-23).
func (c ClockTime) Hour() int {
	return int(c) / 3600
}

func (c ClockTime) String() string {
	v := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", v/3600, (v%3600)/60, v%60)
}

// MarshalText encodes the clock as "HH:MM:SS".
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any layout ParseClock understands.
func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
