package appointment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (int, *apiEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env apiEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, &env
}

func TestHandlerBook(t *testing.T) {
	f := newFixture(1)
	e := newTestServer(f)
	doctorID := uuid.New()

	body := fmt.Sprintf(`{"patient_id":%q,"doctor_id":%q,"date":%q,"time":"09:00:00","type":"consultation"}`,
		uuid.New(), doctorID, monday)
	code, env := doJSON(t, e, http.MethodPost, "/api/v1/appointments", body)
	if code != http.StatusCreated || !env.Success {
		t.Fatalf("status = %d success = %v, want 201 true", code, env.Success)
	}

	var appt Appointment
	if err := json.Unmarshal(env.Data, &appt); err != nil {
		t.Fatal(err)
	}
	if appt.Status != StatusScheduled || appt.AppointmentNo == "" {
		t.Errorf("appointment = %+v, want scheduled with number", appt)
	}

	// Same slot again: capacity 1, deterministic conflict.
	code, env = doJSON(t, e, http.MethodPost, "/api/v1/appointments", body)
	if code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", code)
	}
	if env.Error == nil || env.Error.Code != "SLOT_FULL" {
		t.Errorf("error = %+v, want SLOT_FULL", env.Error)
	}
}

func TestHandlerBookBadInput(t *testing.T) {
	f := newFixture(1)
	e := newTestServer(f)

	code, env := doJSON(t, e, http.MethodPost, "/api/v1/appointments", `{"date":"not-a-date"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Error == nil || env.Error.Code != "INVALID_INPUT" {
		t.Errorf("error = %+v, want INVALID_INPUT", env.Error)
	}
}

func TestHandlerAvailability(t *testing.T) {
	f := newFixture(1)
	e := newTestServer(f)
	doctorID := uuid.New()

	path := fmt.Sprintf("/api/v1/doctors/%s/availability?date=%s&time=10:00:00", doctorID, monday)
	code, env := doJSON(t, e, http.MethodGet, path, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	var avail Availability
	if err := json.Unmarshal(env.Data, &avail); err != nil {
		t.Fatal(err)
	}
	if !avail.Available {
		t.Errorf("expected available, got reason %q", avail.Reason)
	}

	path = fmt.Sprintf("/api/v1/doctors/%s/availability?date=%s&time=10:00:00", doctorID, sunday)
	_, env = doJSON(t, e, http.MethodGet, path, "")
	if err := json.Unmarshal(env.Data, &avail); err != nil {
		t.Fatal(err)
	}
	if avail.Available || avail.Reason != "NO_SCHEDULE_FOR_DAY" {
		t.Errorf("sunday = %+v, want NO_SCHEDULE_FOR_DAY", avail)
	}
}

func TestHandlerSlots(t *testing.T) {
	f := newFixture(2)
	e := newTestServer(f)
	doctorID := uuid.New()

	path := fmt.Sprintf("/api/v1/doctors/%s/slots?date=%s", doctorID, monday)
	code, env := doJSON(t, e, http.MethodGet, path, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	var list SlotList
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Slots) != 6 {
		t.Errorf("slots = %d, want 6", len(list.Slots))
	}

	code, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/slots?date=junk", doctorID), "")
	if code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", code)
	}
}

func TestHandlerQueueFlow(t *testing.T) {
	f := newFixture(2)
	e := newTestServer(f)
	doctorID := uuid.New()

	body := fmt.Sprintf(`{"patient_id":%q,"doctor_id":%q,"date":%q,"time":"09:00:00","type":"consultation"}`,
		uuid.New(), doctorID, monday)
	if code, _ := doJSON(t, e, http.MethodPost, "/api/v1/appointments", body); code != http.StatusCreated {
		t.Fatalf("seed booking failed with %d", code)
	}

	path := fmt.Sprintf("/api/v1/doctors/%s/queue?date=%s", doctorID, monday)
	code, env := doJSON(t, e, http.MethodGet, path, "")
	if code != http.StatusOK {
		t.Fatalf("queue status = %d, want 200", code)
	}
	var entries []*QueueEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Position != 1 {
		t.Fatalf("queue = %+v, want one entry at position 1", entries)
	}

	callPath := fmt.Sprintf("/api/v1/doctors/%s/queue/call-next?date=%s", doctorID, monday)
	code, env = doJSON(t, e, http.MethodPost, callPath, "")
	if code != http.StatusOK {
		t.Fatalf("call-next status = %d, want 200", code)
	}
	var called QueueEntry
	if err := json.Unmarshal(env.Data, &called); err != nil {
		t.Fatal(err)
	}
	if called.Status != QueueInConsultation {
		t.Errorf("called status = %s, want in_consultation", called.Status)
	}

	code, env = doJSON(t, e, http.MethodPost, callPath, "")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != "QUEUE_EMPTY" {
		t.Errorf("drained call-next = %d %+v, want 404 QUEUE_EMPTY", code, env.Error)
	}
}
