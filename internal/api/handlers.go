package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medsync/scheduling/internal/schedule"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleStoreError maps the store's sentinel errors onto HTTP status codes.
func handleStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, schedule.ErrUnknownDoctor):
		writeError(w, http.StatusBadRequest, "unknown_doctor", err.Error())
	case errors.Is(err, schedule.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotOccupied):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parseDate(raw string) (string, bool) {
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", false
	}
	return raw, true
}

func dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date, ok := parseDate(chi.URLParam(r, "date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
	}
	return date, ok
}

func serviceInfoHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ServiceInfoResponse{
			Name:    "medsync scheduling API",
			Version: version,
			Status:  "operational",
		})
	}
}

func doctorsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, DoctorsResponse{Doctors: schedule.Doctors()})
}

func visitTypesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VisitTypesResponse{VisitTypes: schedule.VisitTypes})
}

func statusesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusesResponse{Statuses: schedule.Statuses})
}

func tagsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TagsResponse{Tags: schedule.QuickTags})
}

func datesHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, DatesResponse{Dates: store.Dates()})
	}
}

func getScheduleHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, store.GetSchedule(date))
	}
}

func availableSlotsHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		slots := store.AvailableSlots(date, r.URL.Query().Get("doctor"))
		writeJSON(w, http.StatusOK, AvailableSlotsResponse{AvailableSlots: slots})
	}
}

func filteredScheduleHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		filtered := store.Filter(
			date,
			q.Get("doctor"),
			schedule.VisitType(q.Get("visitType")),
			schedule.Status(q.Get("status")),
		)
		writeJSON(w, http.StatusOK, filtered)
	}
}

func statisticsHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, store.Statistics(date))
	}
}

func bookAppointmentHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if _, ok := parseDate(req.Date); !ok {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "invalid_name", "name is required")
			return
		}

		visitType := schedule.VisitType(req.VisitType)
		if req.VisitType == "" {
			visitType = schedule.VisitConsultation
		} else if !visitType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_visit_type", "unknown visit type "+req.VisitType)
			return
		}

		status := schedule.Status(req.Status)
		if req.Status == "" {
			status = schedule.StatusPending
		} else if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown status "+req.Status)
			return
		}

		patient := schedule.Patient{
			Name:                  req.Name,
			Condition:             req.Condition,
			Phone:                 req.Phone,
			Email:                 req.Email,
			DateOfBirth:           req.DateOfBirth,
			Address:               req.Address,
			InsuranceProvider:     req.InsuranceProvider,
			InsuranceID:           req.InsuranceID,
			EmergencyContactName:  req.EmergencyContactName,
			EmergencyContactPhone: req.EmergencyContactPhone,
			Notes:                 req.Notes,
			VisitType:             visitType,
			Status:                status,
			Tags:                  req.Tags,
		}

		result, err := store.Book(req.Date, req.Time, patient, req.Doctor)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookAppointmentResponse{
			Message: result.Message,
			Appointment: AppointmentPayload{
				Date:    result.Date,
				Time:    result.Slot,
				Patient: result.Appointment.Patient,
				Doctor:  result.Appointment.DoctorID,
			},
		})
	}
}

func updateAppointmentHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		slot := chi.URLParam(r, "time")

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		changes := schedule.FieldChanges{
			Name:        req.Name,
			Condition:   req.Condition,
			Phone:       req.Phone,
			Email:       req.Email,
			DateOfBirth: req.DateOfBirth,
			Address:     req.Address,
			Notes:       req.Notes,
			Doctor:      req.Doctor,
			Tags:        req.Tags,
		}
		if req.VisitType != nil {
			vt := schedule.VisitType(*req.VisitType)
			if !vt.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_visit_type", "unknown visit type "+*req.VisitType)
				return
			}
			changes.VisitType = &vt
		}
		if req.Status != nil {
			st := schedule.Status(*req.Status)
			if !st.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "unknown status "+*req.Status)
				return
			}
			changes.Status = &st
		}

		result, err := store.Update(date, slot, changes)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UpdateAppointmentResponse{
			Message: result.Message,
			Old: AppointmentPayload{
				Time:    slot,
				Patient: result.Old.Patient,
				Doctor:  result.Old.DoctorID,
			},
			New: AppointmentPayload{
				Time:    slot,
				Patient: result.New.Patient,
				Doctor:  result.New.DoctorID,
			},
		})
	}
}

func cancelAppointmentHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		slot := chi.URLParam(r, "time")

		result, err := store.Cancel(date, slot)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		resp := CancelAppointmentResponse{Message: result.Message}
		if result.Removed != nil {
			resp.Deleted = &AppointmentPayload{
				Date:    result.Date,
				Time:    result.Slot,
				Patient: result.Removed.Patient,
				Doctor:  result.Removed.DoctorID,
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func moveAppointmentHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		slot := chi.URLParam(r, "time")

		var req MoveAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if _, ok := parseDate(req.NewDate); !ok {
			writeError(w, http.StatusBadRequest, "invalid_date", "newDate must be YYYY-MM-DD")
			return
		}

		result, err := store.Move(date, slot, req.NewDate, req.NewTime)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MoveAppointmentResponse{
			Message: result.Message,
			Old:     SlotLocation{Date: result.OldDate, Time: result.OldSlot},
			New:     SlotLocation{Date: result.NewDate, Time: result.NewSlot},
		})
	}
}

func restoreAppointmentHandler(store *schedule.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := dateParam(w, r)
		if !ok {
			return
		}
		slot := chi.URLParam(r, "time")

		var req RestoreAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := store.Restore(date, slot, req.Patient, req.Doctor)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, RestoreAppointmentResponse{
			Message: "Appointment restored for " + appt.Patient.Name,
		})
	}
}
