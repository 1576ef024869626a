package service

import (
	"time"

	"github.com/rawatinap/billing-server/internal/models"
)

// DateLayout is the calendar date format used by forms and reports
const DateLayout = "2006-01-02"

// RoomClasses is the static price table used for manual transactions
var RoomClasses = []models.RoomClass{
	{Name: "Standard", DailyRate: 200000},
	{Name: "Regular", DailyRate: 350000},
	{Name: "VIP", DailyRate: 500000},
}

// DailyRate returns the rate of the named room class, or 0 when the class is
// unknown.
func DailyRate(class string) int64 {
	for _, rc := range RoomClasses {
		if rc.Name == class {
			return rc.DailyRate
		}
	}
	return 0
}

// BillableDays returns the number of whole days between check-in and
// check-out, with a minimum of one day.
func BillableDays(checkIn, checkOut time.Time) int64 {
	days := int64(truncateDay(checkOut).Sub(truncateDay(checkIn)) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// StayTotal returns the amount billed for a stay at the given daily rate
func StayTotal(checkIn, checkOut time.Time, dailyRate int64) int64 {
	return BillableDays(checkIn, checkOut) * dailyRate
}

// NextGapID returns the first id in 1, 2, 3, ... missing from ids, which
// must be sorted ascending.
func NextGapID(ids []int64) int64 {
	next := int64(1)
	for _, id := range ids {
		if id != next {
			break
		}
		next++
	}
	return next
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
