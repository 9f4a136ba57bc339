package scheduling

import "time"

const (
	// openingHour and lastBookableHour bound the clinic's daily operating window.
	// The last bookable start time is 18:00 itself, not anything past it.
	openingHour      = 8
	lastBookableHour = 18

	// slotGranularity is the fixed step at which candidate start times are probed.
	slotGranularity = 30 * time.Minute
)

// GenerateDaySlots produces the ordered slot grid for the given date, marking each
// slot unavailable when its 30-minute interval overlaps an active appointment.
// Completed, cancelled and no-show appointments do not block slots.
//
// The availability flag reflects only the fixed probe window; the booking commit
// re-validates the full requested duration against the same appointment set.
func GenerateDaySlots(date time.Time, appointments []*Appointment) []TimeSlot {
	first := time.Date(date.Year(), date.Month(), date.Day(), openingHour, 0, 0, 0, date.Location())
	last := time.Date(date.Year(), date.Month(), date.Day(), lastBookableHour, 0, 0, 0, date.Location())
	slots := make([]TimeSlot, 0, (lastBookableHour-openingHour)*2+1)
	for start := first; !start.After(last); start = start.Add(slotGranularity) {
		probe := Interval{Start: start, Duration: slotGranularity}
		available := true
		for _, appointment := range appointments {
			if !appointment.Status.IsActive() {
				continue
			}
			if probe.Overlaps(appointment.Interval()) {
				available = false
				break
			}
		}
		slots = append(slots, TimeSlot{Time: start.Format("15:04"), Available: available})
	}
	return slots
}
