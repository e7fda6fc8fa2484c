package appointment

import (
	"fmt"

	"github.com/clinq/clinq/internal/domain/schedule"
)

// expandSlots enumerates the slot start times of a weekly window, in order.
// Only whole slots count: a slot is emitted when its full duration fits
// before the window end, so 09:00-09:50 at 30 minutes yields 09:00 only.
func expandSlots(w *schedule.WeeklyAvailability) []string {
	start := minutesOfDay(w.StartTime)
	end := minutesOfDay(w.EndTime)

	var times []string
	for t := start; t+w.SlotMinutes <= end; t += w.SlotMinutes {
		times = append(times, fmt.Sprintf("%02d:%02d:00", t/60, t%60))
	}
	return times
}

// slotStartFor returns the slot whose window contains the given time of day,
// or "" when the time falls outside every whole slot. A time equal to the
// window end, or inside a trailing partial window, has no slot.
func slotStartFor(w *schedule.WeeklyAvailability, timeOfDay string) string {
	t := minutesOfDay(timeOfDay)
	start := minutesOfDay(w.StartTime)
	end := minutesOfDay(w.EndTime)
	if t < start || t >= end {
		return ""
	}
	slot := start + ((t-start)/w.SlotMinutes)*w.SlotMinutes
	if slot+w.SlotMinutes > end {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:00", slot/60, slot%60)
}

// minutesOfDay converts a validated HH:MM:SS string to minutes since
// midnight. Seconds are always zero for schedule times.
func minutesOfDay(t string) int {
	var h, m, s int
	fmt.Sscanf(t, "%d:%d:%d", &h, &m, &s)
	return h*60 + m
}
