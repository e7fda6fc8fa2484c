package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinq/clinq/internal/platform/apperr"
)

func record(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	return rec, body
}

func TestOKEnvelope(t *testing.T) {
	rec, body := record(t, func(c echo.Context) error {
		return OK(c, http.StatusCreated, map[string]string{"id": "x"})
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Error("expected success true")
	}
}

func TestErrorStatusByKind(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation(apperr.CodePastDateTime, "in the past"), http.StatusBadRequest, "PAST_DATETIME"},
		{apperr.Conflict(apperr.CodeSlotFull, "full"), http.StatusConflict, "SLOT_FULL"},
		{apperr.NotFound(apperr.CodeNotFound, "missing"), http.StatusNotFound, "NOT_FOUND"},
		{apperr.Unavailable(errors.New("down"), "query"), http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{errors.New("untagged"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		rec, body := record(t, func(c echo.Context) error {
			return Error(c, tc.err)
		})
		if rec.Code != tc.status {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.status, rec.Code)
		}
		errObj, _ := body["error"].(map[string]interface{})
		if errObj == nil || errObj["code"] != tc.code {
			t.Errorf("%v: expected code %s, got %v", tc.err, tc.code, errObj)
		}
	}
}

func TestUnavailableHidesDetail(t *testing.T) {
	_, body := record(t, func(c echo.Context) error {
		return Error(c, apperr.Unavailable(errors.New("password=hunter2"), "connect"))
	})
	errObj, _ := body["error"].(map[string]interface{})
	if msg, _ := errObj["message"].(string); msg != "store unavailable" {
		t.Errorf("expected generic message, got %q", msg)
	}
}
