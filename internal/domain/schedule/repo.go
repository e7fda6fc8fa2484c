package schedule

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides the schedule reads the booking engine depends on plus
// the management writes that maintain them. Reads are pure; GetWeekly and
// GetApprovedLeave return (nil, nil) when the doctor simply has no window or
// leave, and a DOCTOR_NOT_FOUND error only when the doctor itself is
// unknown.
type Repository interface {
	GetWeekly(ctx context.Context, doctorID uuid.UUID, weekday int) (*WeeklyAvailability, error)
	GetApprovedLeave(ctx context.Context, doctorID uuid.UUID, date string) (*LeaveRecord, error)

	CreateWindow(ctx context.Context, w *WeeklyAvailability) error
	UpdateWindow(ctx context.Context, w *WeeklyAvailability) error
	GetWindow(ctx context.Context, id uuid.UUID) (*WeeklyAvailability, error)
	ListWindows(ctx context.Context, doctorID uuid.UUID) ([]*WeeklyAvailability, error)

	CreateLeave(ctx context.Context, l *LeaveRecord) error
	GetLeave(ctx context.Context, id uuid.UUID) (*LeaveRecord, error)
	UpdateLeaveStatus(ctx context.Context, id uuid.UUID, status string) (*LeaveRecord, error)
	ListLeaves(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*LeaveRecord, int, error)
}
