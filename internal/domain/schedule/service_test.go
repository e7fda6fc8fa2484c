package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinq/clinq/internal/platform/apperr"
	"github.com/clinq/clinq/internal/platform/cache"
)

// -- Mock Repository --

type mockRepo struct {
	windows     map[uuid.UUID]*WeeklyAvailability
	leaves      map[uuid.UUID]*LeaveRecord
	weeklyCalls int
	leaveCalls  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		windows: make(map[uuid.UUID]*WeeklyAvailability),
		leaves:  make(map[uuid.UUID]*LeaveRecord),
	}
}

func (m *mockRepo) GetWeekly(_ context.Context, doctorID uuid.UUID, weekday int) (*WeeklyAvailability, error) {
	m.weeklyCalls++
	for _, w := range m.windows {
		if w.DoctorID == doctorID && w.Weekday == weekday && w.Active {
			return w, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetApprovedLeave(_ context.Context, doctorID uuid.UUID, date string) (*LeaveRecord, error) {
	m.leaveCalls++
	for _, l := range m.leaves {
		if l.DoctorID == doctorID && l.Date == date && l.Status == LeaveApproved {
			return l, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) CreateWindow(_ context.Context, w *WeeklyAvailability) error {
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	w.UpdatedAt = time.Now()
	m.windows[w.ID] = w
	return nil
}

func (m *mockRepo) UpdateWindow(_ context.Context, w *WeeklyAvailability) error {
	if _, ok := m.windows[w.ID]; !ok {
		return apperr.NotFound(apperr.CodeNotFound, "window not found")
	}
	m.windows[w.ID] = w
	return nil
}

func (m *mockRepo) GetWindow(_ context.Context, id uuid.UUID) (*WeeklyAvailability, error) {
	w, ok := m.windows[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeNotFound, "window not found")
	}
	return w, nil
}

func (m *mockRepo) ListWindows(_ context.Context, doctorID uuid.UUID) ([]*WeeklyAvailability, error) {
	var items []*WeeklyAvailability
	for _, w := range m.windows {
		if w.DoctorID == doctorID {
			items = append(items, w)
		}
	}
	return items, nil
}

func (m *mockRepo) CreateLeave(_ context.Context, l *LeaveRecord) error {
	l.ID = uuid.New()
	m.leaves[l.ID] = l
	return nil
}

func (m *mockRepo) GetLeave(_ context.Context, id uuid.UUID) (*LeaveRecord, error) {
	l, ok := m.leaves[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeNotFound, "leave not found")
	}
	return l, nil
}

func (m *mockRepo) UpdateLeaveStatus(_ context.Context, id uuid.UUID, status string) (*LeaveRecord, error) {
	l, ok := m.leaves[id]
	if !ok {
		return nil, apperr.NotFound(apperr.CodeNotFound, "leave not found")
	}
	l.Status = status
	return l, nil
}

func (m *mockRepo) ListLeaves(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*LeaveRecord, int, error) {
	var items []*LeaveRecord
	for _, l := range m.leaves {
		if l.DoctorID == doctorID {
			items = append(items, l)
		}
	}
	return items, len(items), nil
}

func newTestService(repo Repository) *Service {
	windows := cache.New[string, *WeeklyAvailability](16, time.Minute)
	leaves := cache.New[string, *LeaveRecord](16, time.Minute)
	return NewService(repo, windows, leaves)
}

func validWindow(doctorID uuid.UUID) *WeeklyAvailability {
	return &WeeklyAvailability{
		DoctorID:    doctorID,
		Weekday:     1,
		StartTime:   "09:00:00",
		EndTime:     "12:00:00",
		SlotMinutes: 30,
		MaxPerSlot:  2,
		Active:      true,
	}
}

// -- Tests --

func TestCreateWindow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	w := validWindow(uuid.New())
	if err := svc.CreateWindow(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
}

func TestCreateWindowValidation(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*WeeklyAvailability)
	}{
		{"missing doctor", func(w *WeeklyAvailability) { w.DoctorID = uuid.Nil }},
		{"weekday too low", func(w *WeeklyAvailability) { w.Weekday = 0 }},
		{"weekday too high", func(w *WeeklyAvailability) { w.Weekday = 8 }},
		{"bad start time", func(w *WeeklyAvailability) { w.StartTime = "9:00" }},
		{"start after end", func(w *WeeklyAvailability) { w.StartTime = "13:00:00" }},
		{"zero slot minutes", func(w *WeeklyAvailability) { w.SlotMinutes = 0 }},
		{"zero capacity", func(w *WeeklyAvailability) { w.MaxPerSlot = 0 }},
	}

	for _, tc := range cases {
		w := validWindow(doctorID)
		tc.mutate(w)
		err := svc.CreateWindow(context.Background(), w)
		if !apperr.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestGetWeeklyUsesCache(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	w := validWindow(doctorID)
	if err := svc.CreateWindow(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := svc.GetWeekly(context.Background(), doctorID, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.ID != w.ID {
			t.Fatal("expected window back")
		}
	}
	if repo.weeklyCalls != 1 {
		t.Errorf("expected 1 repo read, got %d", repo.weeklyCalls)
	}
}

func TestUpdateWindowInvalidatesCache(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	w := validWindow(doctorID)
	if err := svc.CreateWindow(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetWeekly(context.Background(), doctorID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated := *w
	updated.EndTime = "17:00:00"
	if err := svc.UpdateWindow(context.Background(), &updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetWeekly(context.Background(), doctorID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EndTime != "17:00:00" {
		t.Errorf("expected fresh read after update, got end %s", got.EndTime)
	}
}

func TestGetWeeklyNoWindow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	got, err := svc.GetWeekly(context.Background(), uuid.New(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil window for empty schedule")
	}
}

func TestCreateLeaveDefaultsPending(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	l := &LeaveRecord{DoctorID: uuid.New(), Date: "2026-09-07"}
	if err := svc.CreateLeave(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != LeavePending {
		t.Errorf("expected pending, got %s", l.Status)
	}
}

func TestCreateLeaveRejectsBadDate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	l := &LeaveRecord{DoctorID: uuid.New(), Date: "07/09/2026"}
	err := svc.CreateLeave(context.Background(), l)
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApprovedLeaveVisibleAfterApproval(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	doctorID := uuid.New()

	l := &LeaveRecord{DoctorID: doctorID, Date: "2026-09-07", Status: LeavePending}
	if err := svc.CreateLeave(context.Background(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetApprovedLeave(context.Background(), doctorID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("pending leave must not block")
	}

	if _, err := svc.UpdateLeaveStatus(context.Background(), l.ID, LeaveApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = svc.GetApprovedLeave(context.Background(), doctorID, "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Error("expected approved leave")
	}
}

func TestUpdateLeaveStatusInvalid(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.UpdateLeaveStatus(context.Background(), uuid.New(), "vacationing")
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestISOWeekday(t *testing.T) {
	// 2026-09-07 is a Monday, 2026-09-13 a Sunday.
	mon, _ := ParseDate("2026-09-07")
	sun, _ := ParseDate("2026-09-13")
	if ISOWeekday(mon) != 1 {
		t.Errorf("expected Monday=1, got %d", ISOWeekday(mon))
	}
	if ISOWeekday(sun) != 7 {
		t.Errorf("expected Sunday=7, got %d", ISOWeekday(sun))
	}
}

func TestValidTimeOfDay(t *testing.T) {
	valid := []string{"00:00:00", "09:30:00", "23:59:59"}
	invalid := []string{"9:30:00", "24:00:00", "09:60:00", "09:30", "morning"}
	for _, s := range valid {
		if !ValidTimeOfDay(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	for _, s := range invalid {
		if ValidTimeOfDay(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}
