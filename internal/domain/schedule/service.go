package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinq/clinq/internal/platform/apperr"
	"github.com/clinq/clinq/internal/platform/cache"
)

var validLeaveStatuses = map[string]bool{
	LeavePending: true, LeaveApproved: true, LeaveRejected: true,
}

// Service validates schedule management writes and serves the read accessors
// the booking engine consumes. Reads go through a short-TTL cache; the cache
// holds schedule templates and leave records only, never booking counts.
type Service struct {
	repo    Repository
	windows *cache.Cache[string, *WeeklyAvailability]
	leaves  *cache.Cache[string, *LeaveRecord]
}

func NewService(repo Repository, windows *cache.Cache[string, *WeeklyAvailability], leaves *cache.Cache[string, *LeaveRecord]) *Service {
	return &Service{repo: repo, windows: windows, leaves: leaves}
}

func windowKey(doctorID uuid.UUID, weekday int) string {
	return fmt.Sprintf("%s|%d", doctorID, weekday)
}

func leaveKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("%s|%s", doctorID, date)
}

// GetWeekly returns the doctor's active availability window for the ISO
// weekday, or nil when the doctor has no schedule that day.
func (s *Service) GetWeekly(ctx context.Context, doctorID uuid.UUID, weekday int) (*WeeklyAvailability, error) {
	key := windowKey(doctorID, weekday)
	if s.windows != nil {
		if w, ok := s.windows.Get(key); ok {
			return w, nil
		}
	}

	w, err := s.repo.GetWeekly(ctx, doctorID, weekday)
	if err != nil {
		return nil, err
	}
	if w != nil && s.windows != nil {
		s.windows.Add(key, w)
	}
	return w, nil
}

// GetApprovedLeave returns the doctor's approved leave for the date, or nil.
func (s *Service) GetApprovedLeave(ctx context.Context, doctorID uuid.UUID, date string) (*LeaveRecord, error) {
	key := leaveKey(doctorID, date)
	if s.leaves != nil {
		if l, ok := s.leaves.Get(key); ok {
			return l, nil
		}
	}

	l, err := s.repo.GetApprovedLeave(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if l != nil && s.leaves != nil {
		s.leaves.Add(key, l)
	}
	return l, nil
}

func validateWindow(w *WeeklyAvailability) error {
	if w.DoctorID == uuid.Nil {
		return apperr.Validation(apperr.CodeInvalidInput, "doctor_id is required")
	}
	if w.Weekday < 1 || w.Weekday > 7 {
		return apperr.Validation(apperr.CodeInvalidInput, "weekday must be 1 (Monday) through 7 (Sunday)")
	}
	if !ValidTimeOfDay(w.StartTime) || !ValidTimeOfDay(w.EndTime) {
		return apperr.Validation(apperr.CodeInvalidInput, "start_time and end_time must be HH:MM:SS")
	}
	if w.StartTime >= w.EndTime {
		return apperr.Validation(apperr.CodeInvalidInput, "start_time must be before end_time")
	}
	if w.SlotMinutes <= 0 {
		return apperr.Validation(apperr.CodeInvalidInput, "slot_minutes must be positive")
	}
	if w.MaxPerSlot < 1 {
		return apperr.Validation(apperr.CodeInvalidInput, "max_per_slot must be at least 1")
	}
	return nil
}

func (s *Service) CreateWindow(ctx context.Context, w *WeeklyAvailability) error {
	if err := validateWindow(w); err != nil {
		return err
	}
	if err := s.repo.CreateWindow(ctx, w); err != nil {
		return err
	}
	s.invalidateWindow(w.DoctorID, w.Weekday)
	return nil
}

func (s *Service) UpdateWindow(ctx context.Context, w *WeeklyAvailability) error {
	current, err := s.repo.GetWindow(ctx, w.ID)
	if err != nil {
		return err
	}
	w.DoctorID = current.DoctorID
	w.Weekday = current.Weekday
	if err := validateWindow(w); err != nil {
		return err
	}
	if err := s.repo.UpdateWindow(ctx, w); err != nil {
		return err
	}
	s.invalidateWindow(current.DoctorID, current.Weekday)
	return nil
}

func (s *Service) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]*WeeklyAvailability, error) {
	return s.repo.ListWindows(ctx, doctorID)
}

func (s *Service) CreateLeave(ctx context.Context, l *LeaveRecord) error {
	if l.DoctorID == uuid.Nil {
		return apperr.Validation(apperr.CodeInvalidInput, "doctor_id is required")
	}
	if _, err := ParseDate(l.Date); err != nil {
		return apperr.Validation(apperr.CodeInvalidInput, "date must be YYYY-MM-DD")
	}
	if l.Status == "" {
		l.Status = LeavePending
	}
	if !validLeaveStatuses[l.Status] {
		return apperr.Validation(apperr.CodeInvalidStatus, "invalid leave status: %s", l.Status)
	}
	if err := s.repo.CreateLeave(ctx, l); err != nil {
		return err
	}
	s.invalidateLeave(l.DoctorID, l.Date)
	return nil
}

func (s *Service) UpdateLeaveStatus(ctx context.Context, id uuid.UUID, status string) (*LeaveRecord, error) {
	if !validLeaveStatuses[status] {
		return nil, apperr.Validation(apperr.CodeInvalidStatus, "invalid leave status: %s", status)
	}
	l, err := s.repo.UpdateLeaveStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.invalidateLeave(l.DoctorID, l.Date)
	return l, nil
}

func (s *Service) ListLeaves(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*LeaveRecord, int, error) {
	return s.repo.ListLeaves(ctx, doctorID, limit, offset)
}

func (s *Service) invalidateWindow(doctorID uuid.UUID, weekday int) {
	if s.windows != nil {
		s.windows.Remove(windowKey(doctorID, weekday))
	}
}

func (s *Service) invalidateLeave(doctorID uuid.UUID, date string) {
	if s.leaves != nil {
		s.leaves.Remove(leaveKey(doctorID, date))
	}
}
