package scheduling

import "time"

// calendarCells keeps the month grid at six full weeks, so the row count never
// reshuffles across months.
const calendarCells = 42

// GenerateCalendarDays produces the 42-cell grid for the given month. Leading cells
// come from the previous month and trailing cells from the next one, both flagged as
// outside the current month and without appointment counts.
func GenerateCalendarDays(year int, month time.Month, appointments []*Appointment, today time.Time) []CalendarDay {
	location := today.Location()
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, location)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, location).Day()

	counts := make(map[int]int)
	for _, appointment := range appointments {
		if appointment.DateTime.Year() == year && appointment.DateTime.Month() == month {
			counts[appointment.DateTime.Day()]++
		}
	}

	days := make([]CalendarDay, 0, calendarCells)
	for lead := int(firstOfMonth.Weekday()); lead > 0; lead-- {
		date := firstOfMonth.AddDate(0, 0, -lead)
		days = append(days, CalendarDay{Day: date.Day(), Date: date})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, location)
		days = append(days, CalendarDay{
			Day:              day,
			Date:             date,
			IsCurrentMonth:   true,
			IsToday:          sameDay(date, today),
			AppointmentCount: counts[day],
		})
	}
	for trail := 0; len(days) < calendarCells; trail++ {
		date := firstOfMonth.AddDate(0, 1, trail)
		days = append(days, CalendarDay{Day: date.Day(), Date: date})
	}
	return days
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
