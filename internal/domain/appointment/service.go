package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinq/clinq/internal/domain/schedule"
	"github.com/clinq/clinq/internal/platform/apperr"
	"github.com/clinq/clinq/internal/platform/events"
)

// ScheduleSource is the slice of the schedule service the appointment
// engine consumes: the weekly template and approved leave for a doctor.
type ScheduleSource interface {
	GetWeekly(ctx context.Context, doctorID uuid.UUID, weekday int) (*schedule.WeeklyAvailability, error)
	GetApprovedLeave(ctx context.Context, doctorID uuid.UUID, date string) (*schedule.LeaveRecord, error)
}

// ReminderScheduler is told about committed bookings so it can arrange
// patient reminders. It runs after the fact; a failing scheduler never rolls
// back or fails a booking.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appt *Appointment)
}

// NoopReminders discards reminder requests.
type NoopReminders struct{}

func (NoopReminders) ScheduleReminder(context.Context, *Appointment) {}

type Service struct {
	store     TxRunner
	repo      Repository
	queue     QueueRepository
	schedules ScheduleSource
	publisher events.Publisher
	reminders ReminderScheduler
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store TxRunner, repo Repository, queue QueueRepository, schedules ScheduleSource, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		repo:      repo,
		queue:     queue,
		schedules: schedules,
		publisher: publisher,
		reminders: NoopReminders{},
		logger:    logger.With().Str("component", "appointment").Logger(),
		now:       time.Now,
	}
}

// WithReminders replaces the reminder collaborator.
func (s *Service) WithReminders(r ReminderScheduler) *Service {
	s.reminders = r
	return s
}

// ListSlots expands the doctor's weekly template for one date and annotates
// each slot with its current occupancy. Days without a template, or with
// approved leave, return an empty list tagged with the reason.
func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID, date string) (*SlotList, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}

	list := &SlotList{DoctorID: doctorID, Date: date, Slots: []Slot{}}

	window, err := s.schedules.GetWeekly(ctx, doctorID, schedule.ISOWeekday(day))
	if err != nil {
		return nil, err
	}
	if window == nil {
		list.Reason = ReasonNoSchedule
		return list, nil
	}

	leave, err := s.schedules.GetApprovedLeave(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if leave != nil {
		list.Reason = ReasonOnLeave
		return list, nil
	}

	counts, err := s.repo.CountActiveByDay(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	for _, t := range expandSlots(window) {
		booked := counts[t]
		list.Slots = append(list.Slots, Slot{
			Time:      t,
			Booked:    booked,
			Capacity:  window.MaxPerSlot,
			Available: booked < window.MaxPerSlot,
		})
	}
	return list, nil
}

// CheckAvailability is the point check for (doctor, date, time). Checks run
// in fixed precedence so the reason code for a given state never varies:
// schedule existence, schedule hours, approved leave, slot capacity.
func (s *Service) CheckAvailability(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string) (*Availability, error) {
	return s.checkAvailability(ctx, doctorID, date, timeOfDay, uuid.Nil)
}

func (s *Service) checkAvailability(ctx context.Context, doctorID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (*Availability, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}
	if !schedule.ValidTimeOfDay(timeOfDay) {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid time %q, want HH:MM:SS", timeOfDay)
	}

	window, err := s.schedules.GetWeekly(ctx, doctorID, schedule.ISOWeekday(day))
	if err != nil {
		return nil, err
	}
	if window == nil {
		return &Availability{Reason: apperr.CodeNoScheduleForDay}, nil
	}

	// Lexical comparison is safe: both sides are zero-padded HH:MM:SS.
	if timeOfDay < window.StartTime || timeOfDay >= window.EndTime {
		return &Availability{Reason: apperr.CodeOutsideScheduleHours}, nil
	}
	if slotStartFor(window, timeOfDay) != timeOfDay {
		// Within hours but not a slot boundary (or inside a trailing
		// partial window). No bookable slot starts here.
		return &Availability{Reason: apperr.CodeOutsideScheduleHours}, nil
	}

	leave, err := s.schedules.GetApprovedLeave(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if leave != nil {
		return &Availability{Reason: apperr.CodeOnLeave}, nil
	}

	booked, err := s.repo.CountActiveAt(ctx, doctorID, date, timeOfDay, excludeID)
	if err != nil {
		return nil, err
	}
	if booked >= window.MaxPerSlot {
		return &Availability{Reason: apperr.CodeSlotFull}, nil
	}
	return &Availability{Available: true}, nil
}

// Book creates an appointment and its queue entry atomically.
//
// The doctor-day lock taken first inside the transaction serializes every
// concurrent booking for the same doctor and date, which makes the re-count
// under the lock authoritative: of N concurrent requests for a slot with
// capacity C, exactly C commit and the rest fail with SLOT_FULL. Nothing is
// retried automatically.
func (s *Service) Book(ctx context.Context, req *BookingRequest) (*Appointment, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	// Cheap pre-check outside the transaction. The result is advisory;
	// only the re-count under the lock decides.
	avail, err := s.checkAvailability(ctx, req.DoctorID, req.Date, req.Time, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, unavailableErr(avail.Reason)
	}

	var appt *Appointment
	var entry *QueueEntry
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockDoctorDay(ctx, req.DoctorID, req.Date); err != nil {
			return err
		}

		avail, err := s.checkAvailability(ctx, req.DoctorID, req.Date, req.Time, uuid.Nil)
		if err != nil {
			return err
		}
		if !avail.Available {
			return unavailableErr(avail.Reason)
		}

		seq, err := s.repo.NextAppointmentNo(ctx, s.now().Year())
		if err != nil {
			return err
		}

		appt = &Appointment{
			AppointmentNo: fmt.Sprintf("APT-%d-%06d", s.now().Year(), seq),
			PatientID:     req.PatientID,
			DoctorID:      req.DoctorID,
			Date:          req.Date,
			Time:          req.Time,
			Type:          req.Type,
			Reason:        req.Reason,
			Notes:         req.Notes,
			Status:        StatusScheduled,
		}
		if err := s.repo.Create(ctx, appt); err != nil {
			return err
		}

		maxPos, err := s.queue.MaxPosition(ctx, req.DoctorID, req.Date)
		if err != nil {
			return err
		}
		entry = &QueueEntry{
			AppointmentID: appt.ID,
			PatientID:     req.PatientID,
			DoctorID:      req.DoctorID,
			Date:          req.Date,
			Position:      maxPos + 1,
			Status:        QueueWaiting,
		}
		return s.queue.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("appointment_no", appt.AppointmentNo).
		Str("doctor_id", appt.DoctorID.String()).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Int("queue_position", entry.Position).
		Msg("appointment booked")

	// Best effort after commit; failures are logged inside the publisher.
	s.publisher.AppointmentCreated(context.WithoutCancel(ctx), appt.ID, appt.DoctorID, appt.Date, appt.Time)
	s.reminders.ScheduleReminder(context.WithoutCancel(ctx), appt)

	return appt, nil
}

func (s *Service) validateBooking(req *BookingRequest) error {
	if req.PatientID == uuid.Nil || req.DoctorID == uuid.Nil {
		return apperr.Validation(apperr.CodeInvalidInput, "patient_id and doctor_id are required")
	}
	if req.Type == "" {
		return apperr.Validation(apperr.CodeInvalidInput, "type is required")
	}
	day, err := schedule.ParseDate(req.Date)
	if err != nil {
		return apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", req.Date)
	}
	if !schedule.ValidTimeOfDay(req.Time) {
		return apperr.Validation(apperr.CodeInvalidInput, "invalid time %q, want HH:MM:SS", req.Time)
	}
	if s.inPast(day, req.Time) {
		return apperr.Validation(apperr.CodePastDateTime, "appointment time %s %s is in the past", req.Date, req.Time)
	}
	return nil
}

// inPast compares the requested wall-clock moment against now in the
// server's local zone.
func (s *Service) inPast(day time.Time, timeOfDay string) bool {
	at := time.Date(day.Year(), day.Month(), day.Day(),
		minutesOfDay(timeOfDay)/60, minutesOfDay(timeOfDay)%60, 0, 0, time.Local)
	return at.Before(s.now())
}

func unavailableErr(reason string) error {
	switch reason {
	case apperr.CodeSlotFull:
		return apperr.Conflict(apperr.CodeSlotFull, "slot is fully booked")
	case apperr.CodeOnLeave:
		return apperr.Conflict(apperr.CodeOnLeave, "doctor is on approved leave")
	case apperr.CodeNoScheduleForDay:
		return apperr.Validation(apperr.CodeNoScheduleForDay, "doctor has no schedule for that day")
	case apperr.CodeOutsideScheduleHours:
		return apperr.Validation(apperr.CodeOutsideScheduleHours, "time is outside the doctor's schedule hours")
	default:
		return apperr.Conflict(reason, "slot is not available")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string, status Status, limit, offset int) ([]*Appointment, int, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, 0, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}
	if status != "" && !ValidStatus(status) {
		return nil, 0, apperr.Validation(apperr.CodeInvalidStatus, "unknown status %q", status)
	}
	return s.repo.ListByDoctorDate(ctx, doctorID, date, status, limit, offset)
}

// UpdateStatus applies one transition of the appointment state machine and,
// in the same transaction, the queue side effect the transition implies.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, cancellationReason *string) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, apperr.Validation(apperr.CodeInvalidStatus, "unknown status %q", to)
	}

	var appt *Appointment
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return apperr.Conflict(apperr.CodeTerminalStatus, "appointment is already %s", appt.Status)
		}
		if !CanTransition(appt.Status, to) {
			return apperr.Conflict(apperr.CodeInvalidTransition, "cannot move from %s to %s", appt.Status, to)
		}

		appt.Status = to
		if to == StatusCancelled {
			appt.CancellationReason = cancellationReason
		}
		if err := s.repo.Update(ctx, appt); err != nil {
			return err
		}
		return s.applyQueueEffect(ctx, appt.ID, to)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("status", string(appt.Status)).
		Msg("appointment status updated")
	return appt, nil
}

func (s *Service) applyQueueEffect(ctx context.Context, appointmentID uuid.UUID, to Status) error {
	effect := queueEffect(to)
	if effect == "" {
		return nil
	}
	entry, err := s.queue.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	ts := s.now()
	entry.Status = effect
	switch effect {
	case QueueInConsultation:
		entry.CalledAt = &ts
	case QueueCompleted:
		entry.CompletedAt = &ts
	}
	return s.queue.Update(ctx, entry)
}

// Reschedule moves a non-terminal appointment to a new (date, time). The
// target slot is checked with the appointment excluded from the occupancy
// count, so moving within the same slot never conflicts with itself. The
// queue entry keeps its original position.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date, timeOfDay string) (*Appointment, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}
	if !schedule.ValidTimeOfDay(timeOfDay) {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid time %q, want HH:MM:SS", timeOfDay)
	}
	if s.inPast(day, timeOfDay) {
		return nil, apperr.Validation(apperr.CodePastDateTime, "new time %s %s is in the past", date, timeOfDay)
	}

	var appt *Appointment
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		appt, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if appt.Status.Terminal() {
			return apperr.Conflict(apperr.CodeTerminalStatus, "appointment is already %s", appt.Status)
		}

		if err := s.repo.LockDoctorDay(ctx, appt.DoctorID, date); err != nil {
			return err
		}
		avail, err := s.checkAvailability(ctx, appt.DoctorID, date, timeOfDay, appt.ID)
		if err != nil {
			return err
		}
		if !avail.Available {
			return unavailableErr(avail.Reason)
		}

		appt.Date = date
		appt.Time = timeOfDay
		return s.repo.Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("date", appt.Date).
		Str("time", appt.Time).
		Msg("appointment rescheduled")
	return appt, nil
}

// GetQueue returns the day's queue for a doctor in position order.
func (s *Service) GetQueue(ctx context.Context, doctorID uuid.UUID, date string) ([]*QueueEntry, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}
	return s.queue.ListByDoctorDate(ctx, doctorID, date)
}

// CallNext pulls the lowest-position waiting entry and moves its
// appointment to in_progress. A still-scheduled appointment passes through
// confirmed first; both steps commit together.
func (s *Service) CallNext(ctx context.Context, doctorID uuid.UUID, date string) (*QueueEntry, error) {
	if _, err := schedule.ParseDate(date); err != nil {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
	}

	var entry *QueueEntry
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		entry, err = s.queue.NextWaiting(ctx, doctorID, date)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperr.NotFound(apperr.CodeQueueEmpty, "no waiting patients for doctor %s on %s", doctorID, date)
		}

		appt, err := s.repo.GetByID(ctx, entry.AppointmentID)
		if err != nil {
			return err
		}
		if appt.Status == StatusScheduled {
			appt.Status = StatusConfirmed
		}
		if !CanTransition(appt.Status, StatusInProgress) {
			return apperr.Conflict(apperr.CodeInvalidTransition, "cannot move from %s to %s", appt.Status, StatusInProgress)
		}
		appt.Status = StatusInProgress
		if err := s.repo.Update(ctx, appt); err != nil {
			return err
		}

		ts := s.now()
		entry.Status = QueueInConsultation
		entry.CalledAt = &ts
		return s.queue.Update(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("date", date).
		Int("position", entry.Position).
		Msg("called next patient")
	return entry, nil
}
