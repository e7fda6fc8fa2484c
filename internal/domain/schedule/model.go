package schedule

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// WeeklyAvailability is a doctor's recurring availability window for one
// weekday: bookable slots run from StartTime to EndTime in SlotMinutes
// increments, each holding up to MaxPerSlot appointments.
type WeeklyAvailability struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday     int       `db:"weekday" json:"weekday"` // ISO: 1 = Monday .. 7 = Sunday
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes"`
	MaxPerSlot  int       `db:"max_per_slot" json:"max_per_slot"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Leave statuses. Only approved leaves block booking.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// LeaveRecord marks a doctor as absent on one date once approved.
type LeaveRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date      string    `db:"date" json:"date"` // YYYY-MM-DD
	Status    string    `db:"status" json:"status"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// timePattern matches zero-padded HH:MM:SS. Slot times are kept in this
// fixed-width form everywhere so comparisons stay lexical and
// locale independent.
var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)

// ValidTimeOfDay reports whether s is a zero-padded HH:MM:SS string.
func ValidTimeOfDay(s string) bool {
	return timePattern.MatchString(s)
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// ISOWeekday returns the ISO weekday number for t: 1 (Monday) through
// 7 (Sunday). Derived from the time package's enumeration, never from a
// formatted weekday name.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
