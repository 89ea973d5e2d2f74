package entity

import "time"

// DateOf truncates t to its calendar date at UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddYears moves the calendar date of day by n years. A Feb 29 that has no
// counterpart in the target year becomes Feb 28 instead of rolling into March.
func AddYears(day time.Time, n int) time.Time {
	y, m, d := DateOf(day).Date()
	target := time.Date(y+n, m, d, 0, 0, 0, 0, time.UTC)
	if target.Month() != m {
		target = time.Date(y+n, m+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return target
}

// AgeOf returns the age in whole years on today of someone born on dateOfBirth
func AgeOf(dateOfBirth, today time.Time) int {
	dob := DateOf(dateOfBirth)
	today = DateOf(today)
	age := today.Year() - dob.Year()
	if AddYears(dob, age).After(today) {
		age--
	}
	return age
}
