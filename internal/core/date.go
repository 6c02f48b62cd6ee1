package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ISODate is a calendar date kept in its YYYY-MM-DD text form. Comparisons
// are lexical, which matches chronological order for this layout. The zero
// value means "no date".
type ISODate string

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

var daysInMonth = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func ParseISODate(s string) (ISODate, error) {
	d := ISODate(s)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// Today returns the local calendar date of now.
func Today(now time.Time) ISODate {
	return ISODate(now.Format("2006-01-02"))
}

func (d ISODate) IsZero() bool {
	return d == ""
}

func (d ISODate) String() string {
	return string(d)
}

func (d ISODate) Validate() error {
	s := string(d)
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	limit := daysInMonth[month-1]
	if month == 2 && isLeap(year) {
		limit = 29
	}
	if day < 1 || day > limit {
		return ErrInvalidDay
	}
	return nil
}

// Display renders the date as DD/MM/YYYY by reordering its components.
// No time zone is involved, so the calendar day never shifts.
func (d ISODate) Display() string {
	s := string(d)
	if len(s) != 10 {
		return s
	}
	return s[8:10] + "/" + s[5:7] + "/" + s[0:4]
}

func (d ISODate) After(o ISODate) bool {
	return d > o
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
