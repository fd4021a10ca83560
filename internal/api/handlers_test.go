package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medsync/scheduling/internal/schedule"
)

func newTestRouter(t *testing.T, policy schedule.ConflictPolicy) http.Handler {
	t.Helper()
	dir := t.TempDir()
	store := schedule.NewStore(schedule.Options{
		DataFile: filepath.Join(dir, "schedule_data.json"),
		Policy:   policy,
		Logger:   zerolog.Nop(),
	})
	return NewRouter(RouterConfig{
		Store:   store,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
		DataDir: dir,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func bookRequest(name, condition, slot string) map[string]any {
	return map[string]any{
		"date":      "2024-01-10",
		"time":      slot,
		"name":      name,
		"condition": condition,
		"doctor":    "chen",
		"visitType": "consultation",
		"status":    "pending",
	}
}

func TestBookEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:30"))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[BookAppointmentResponse](t, rec)
	assert.Contains(t, resp.Message, "Booked Eric")
	assert.Equal(t, "09:30", resp.Appointment.Time)
	assert.Equal(t, "chen", resp.Appointment.Doctor)

	rec = doJSON(t, router, http.MethodGet, "/api/schedule/2024-01-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sched := decodeBody[map[string]*AppointmentPayload](t, rec)
	require.Len(t, sched, schedule.SlotCount)
	require.NotNil(t, sched["09:30"])
	assert.Equal(t, "Eric", sched["09:30"].Patient.Name)
	assert.Nil(t, sched["09:00"])
}

func TestBookEndpointConflict(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:30"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Ariana", "Headache", "09:30"))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_already_booked", decodeBody[ErrorResponse](t, rec).Error)
}

func TestBookEndpointValidation(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		errCode string
	}{
		{"invalid slot", func(m map[string]any) { m["time"] = "23:00" }, "invalid_slot"},
		{"invalid date", func(m map[string]any) { m["date"] = "next tuesday" }, "invalid_date"},
		{"missing name", func(m map[string]any) { m["name"] = "  " }, "invalid_name"},
		{"unknown doctor", func(m map[string]any) { m["doctor"] = "house" }, "unknown_doctor"},
		{"bad visit type", func(m map[string]any) { m["visitType"] = "surgery" }, "invalid_visit_type"},
		{"bad status", func(m map[string]any) { m["status"] = "cancelled" }, "invalid_status"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := bookRequest("Eric", "Flu", "09:00")
			tc.mutate(body)
			rec := doJSON(t, router, http.MethodPost, "/api/appointments", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.errCode, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestCancelEndpointNotFound(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodDelete, "/api/appointments/2024-01-10/09:00", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "appointment_not_found", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCancelAndRestoreFlow(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "11:30"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/appointments/2024-01-10/11:30", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cancelled := decodeBody[CancelAppointmentResponse](t, rec)
	require.NotNil(t, cancelled.Deleted)
	assert.Equal(t, "Eric", cancelled.Deleted.Patient.Name)

	// undo with the returned payload
	rec = doJSON(t, router, http.MethodPost, "/api/appointments/2024-01-10/11:30/restore", RestoreAppointmentRequest{
		Patient: *cancelled.Deleted.Patient,
		Doctor:  cancelled.Deleted.Doctor,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/schedule/2024-01-10", nil)
	sched := decodeBody[map[string]*AppointmentPayload](t, rec)
	require.NotNil(t, sched["11:30"])
	assert.Equal(t, "Eric", sched["11:30"].Patient.Name)
}

func TestUpdateEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/api/appointments/2024-01-10/10:00", map[string]any{
		"status": "confirmed",
		"notes":  "bring previous labs",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[UpdateAppointmentResponse](t, rec)
	assert.Equal(t, schedule.StatusPending, resp.Old.Patient.Status)
	assert.Equal(t, schedule.StatusConfirmed, resp.New.Patient.Status)
	assert.Equal(t, "bring previous labs", resp.New.Patient.Notes)
	assert.Equal(t, "Eric", resp.New.Patient.Name)
}

func TestMoveEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/appointments/2024-01-10/09:00/move", MoveAppointmentRequest{
		NewDate: "2024-01-12",
		NewTime: "14:30",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[MoveAppointmentResponse](t, rec)
	assert.Equal(t, SlotLocation{Date: "2024-01-10", Time: "09:00"}, resp.Old)
	assert.Equal(t, SlotLocation{Date: "2024-01-12", Time: "14:30"}, resp.New)

	// moving onto an occupied destination conflicts and changes nothing
	rec = doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Ariana", "Headache", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/appointments/2024-01-10/09:00/move", MoveAppointmentRequest{
		NewDate: "2024-01-12",
		NewTime: "14:30",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestFilteredScheduleEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := bookRequest("Ariana", "Headache", "10:00")
	body["doctor"] = "park"
	rec = doJSON(t, router, http.MethodPost, "/api/appointments", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/schedule/2024-01-10/filtered?doctor=park", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sched := decodeBody[map[string]*AppointmentPayload](t, rec)
	require.Len(t, sched, schedule.SlotCount)
	assert.Nil(t, sched["09:00"])
	require.NotNil(t, sched["10:00"])
	assert.Equal(t, "Ariana", sched["10:00"].Patient.Name)
}

func TestStatisticsEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	for _, slot := range []string{"09:00", "10:00", "11:00"} {
		rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", slot))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/schedule/2024-01-10/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody[schedule.Stats](t, rec)
	assert.Equal(t, 3, stats.BookedSlots)
	assert.Equal(t, 18.8, stats.Utilization)
}

func TestAvailableSlotsEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/schedule/2024-01-10/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[AvailableSlotsResponse](t, rec)
	assert.Len(t, resp.AvailableSlots, schedule.SlotCount-1)
	assert.NotContains(t, resp.AvailableSlots, "09:00")
}

func TestDatesEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodGet, "/api/dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[DatesResponse](t, rec).Dates)

	doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:00"))

	rec = doJSON(t, router, http.MethodGet, "/api/dates", nil)
	assert.Equal(t, []string{"2024-01-10"}, decodeBody[DatesResponse](t, rec).Dates)
}

func TestReferenceDataEndpoints(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodGet, "/api/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[DoctorsResponse](t, rec).Doctors, 4)

	rec = doJSON(t, router, http.MethodGet, "/api/visit-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[VisitTypesResponse](t, rec).VisitTypes, 5)

	rec = doJSON(t, router, http.MethodGet, "/api/statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[StatusesResponse](t, rec).Statuses, 3)

	rec = doJSON(t, router, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[TagsResponse](t, rec).Tags)
}

func TestLenientPolicyEndpoints(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyLenient)

	rec := doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Eric", "Flu", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// overwrite-on-book: last write wins
	rec = doJSON(t, router, http.MethodPost, "/api/appointments", bookRequest("Ariana", "Headache", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// cancel of an empty slot is a quiet success
	rec = doJSON(t, router, http.MethodDelete, "/api/appointments/2024-01-10/16:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeBody[CancelAppointmentResponse](t, rec).Deleted)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[ReadinessResponse](t, rec).Dependencies["datastore"])
}

func TestServiceInfoEndpoint(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operational", decodeBody[ServiceInfoResponse](t, rec).Status)
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, schedule.PolicyStrict)

	rec := doJSON(t, router, http.MethodGet, "/", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
