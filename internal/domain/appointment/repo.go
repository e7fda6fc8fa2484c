package appointment

import (
	"context"

	"github.com/google/uuid"
)

// TxRunner runs fn inside a single store transaction. Repository calls made
// through the context fn receives share that transaction; it commits only if
// fn returns nil.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository persists appointments. CountActiveAt and NextAppointmentNo are
// only meaningful inside a booking transaction that holds the doctor-day
// lock (LockDoctorDay): the lock is what makes count-then-insert safe.
type Repository interface {
	// LockDoctorDay serializes all booking work for one (doctor, date)
	// until the surrounding transaction ends.
	LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) error

	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error

	// CountActiveAt counts non-cancelled, non-no-show appointments at the
	// exact (doctor, date, time), excluding excludeID when non-nil (used
	// by reschedule so an appointment does not count against itself).
	CountActiveAt(ctx context.Context, doctorID uuid.UUID, date, slotTime string, excludeID uuid.UUID) (int, error)

	// CountActiveByDay returns active appointment counts per slot time for
	// the whole doctor-day in one read.
	CountActiveByDay(ctx context.Context, doctorID uuid.UUID, date string) (map[string]int, error)

	// NextAppointmentNo increments and returns the year-scoped booking
	// sequence.
	NextAppointmentNo(ctx context.Context, year int) (int, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string, status Status, limit, offset int) ([]*Appointment, int, error)
}

// QueueRepository persists queue entries.
type QueueRepository interface {
	Create(ctx context.Context, q *QueueEntry) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*QueueEntry, error)
	Update(ctx context.Context, q *QueueEntry) error

	// MaxPosition returns the highest position ever assigned for
	// (doctor, date), or 0. Read under the doctor-day lock when allocating.
	MaxPosition(ctx context.Context, doctorID uuid.UUID, date string) (int, error)

	// NextWaiting returns the waiting entry with the lowest position, or
	// nil when the queue is drained.
	NextWaiting(ctx context.Context, doctorID uuid.UUID, date string) (*QueueEntry, error)

	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*QueueEntry, error)
}
