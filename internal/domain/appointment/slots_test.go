package appointment

import (
	"reflect"
	"testing"

	"github.com/clinq/clinq/internal/domain/schedule"
)

func window(start, end string, slotMinutes int) *schedule.WeeklyAvailability {
	return &schedule.WeeklyAvailability{StartTime: start, EndTime: end, SlotMinutes: slotMinutes}
}

func TestExpandSlots(t *testing.T) {
	cases := []struct {
		name string
		w    *schedule.WeeklyAvailability
		want []string
	}{
		{
			name: "even hour",
			w:    window("09:00:00", "11:00:00", 30),
			want: []string{"09:00:00", "09:30:00", "10:00:00", "10:30:00"},
		},
		{
			name: "trailing partial window dropped",
			w:    window("09:00:00", "09:50:00", 30),
			want: []string{"09:00:00"},
		},
		{
			name: "window shorter than one slot",
			w:    window("09:00:00", "09:20:00", 30),
			want: nil,
		},
		{
			name: "exact single slot",
			w:    window("09:00:00", "09:30:00", 30),
			want: []string{"09:00:00"},
		},
		{
			name: "odd duration",
			w:    window("10:00:00", "11:00:00", 25),
			want: []string{"10:00:00", "10:25:00"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := expandSlots(tc.w); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expandSlots = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSlotStartFor(t *testing.T) {
	w := window("09:00:00", "09:50:00", 30)

	cases := []struct {
		at   string
		want string
	}{
		{"09:00:00", "09:00:00"},
		{"09:15:00", "09:00:00"},
		{"09:29:00", "09:00:00"},
		{"09:30:00", ""}, // inside the trailing partial window
		{"08:59:00", ""},
		{"09:50:00", ""},
		{"10:00:00", ""},
	}
	for _, tc := range cases {
		if got := slotStartFor(w, tc.at); got != tc.want {
			t.Errorf("slotStartFor(%s) = %q, want %q", tc.at, got, tc.want)
		}
	}
}
