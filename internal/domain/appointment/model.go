package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. The terminal three are logical deletes: appointment
// rows are never physically removed.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Queue entry statuses. "completed" covers every way an entry leaves the
// queue, including cancellation and no-show.
type QueueStatus string

const (
	QueueWaiting        QueueStatus = "waiting"
	QueueInConsultation QueueStatus = "in_consultation"
	QueueCompleted      QueueStatus = "completed"
)

type Appointment struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	AppointmentNo      string    `db:"appointment_no" json:"appointment_no"`
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date               string    `db:"date" json:"date"`           // YYYY-MM-DD
	Time               string    `db:"slot_time" json:"time"`      // HH:MM:SS, slot aligned
	Type               string    `db:"type" json:"type"`
	Reason             *string   `db:"reason" json:"reason,omitempty"`
	Notes              *string   `db:"notes" json:"notes,omitempty"`
	Status             Status    `db:"status" json:"status"`
	CancellationReason *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// QueueEntry is the 1:1 queue record for an appointment. Position is unique
// within (doctor, date) and never reused; cancellations leave gaps.
type QueueEntry struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	AppointmentID uuid.UUID   `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID   `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID   `db:"doctor_id" json:"doctor_id"`
	Date          string      `db:"date" json:"date"`
	Position      int         `db:"position" json:"position"`
	Status        QueueStatus `db:"status" json:"status"`
	CalledAt      *time.Time  `db:"called_at" json:"called_at,omitempty"`
	CompletedAt   *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Slot is one bookable window in a doctor's day.
type Slot struct {
	Time      string `json:"time"`
	Booked    int    `json:"booked"`
	Capacity  int    `json:"capacity"`
	Available bool   `json:"available"`
}

// Slot-list reason codes for days with no bookable slots at all.
const (
	ReasonNoSchedule = "NO_SCHEDULE"
	ReasonOnLeave    = "ON_LEAVE"
)

// SlotList is the ordered slot sequence for (doctor, date). When Slots is
// empty, Reason explains why.
type SlotList struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []Slot    `json:"slots"`
	Reason   string    `json:"reason,omitempty"`
}

// Availability is the outcome of a point check for (doctor, date, time).
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// BookingRequest carries the inputs to book one appointment.
type BookingRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Type      string    `json:"type"`
	Reason    *string   `json:"reason,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
}
