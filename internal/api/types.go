package api

import (
	"github.com/medsync/scheduling/internal/schedule"
)

type BookAppointmentRequest struct {
	Date                  string   `json:"date"`
	Time                  string   `json:"time"`
	Name                  string   `json:"name"`
	Condition             string   `json:"condition"`
	Phone                 string   `json:"phone"`
	Email                 string   `json:"email"`
	DateOfBirth           string   `json:"dateOfBirth"`
	Address               string   `json:"address"`
	InsuranceProvider     string   `json:"insuranceProvider"`
	InsuranceID           string   `json:"insuranceId"`
	EmergencyContactName  string   `json:"emergencyContactName"`
	EmergencyContactPhone string   `json:"emergencyContactPhone"`
	Notes                 string   `json:"notes"`
	Doctor                string   `json:"doctor"`
	VisitType             string   `json:"visitType"`
	Status                string   `json:"status"`
	Tags                  []string `json:"tags"`
}

// UpdateAppointmentRequest is a partial update: absent fields stay untouched.
type UpdateAppointmentRequest struct {
	Name        *string   `json:"name"`
	Condition   *string   `json:"condition"`
	Phone       *string   `json:"phone"`
	Email       *string   `json:"email"`
	DateOfBirth *string   `json:"dateOfBirth"`
	Address     *string   `json:"address"`
	Notes       *string   `json:"notes"`
	VisitType   *string   `json:"visitType"`
	Status      *string   `json:"status"`
	Doctor      *string   `json:"doctor"`
	Tags        *[]string `json:"tags"`
}

type MoveAppointmentRequest struct {
	NewDate string `json:"newDate"`
	NewTime string `json:"newTime"`
}

type RestoreAppointmentRequest struct {
	Patient schedule.Patient `json:"patient"`
	Doctor  string           `json:"doctor"`
}

type AppointmentPayload struct {
	Date    string            `json:"date,omitempty"`
	Time    string            `json:"time"`
	Patient *schedule.Patient `json:"patient"`
	Doctor  string            `json:"doctor"`
}

type BookAppointmentResponse struct {
	Message     string             `json:"message"`
	Appointment AppointmentPayload `json:"appointment"`
}

type CancelAppointmentResponse struct {
	Message string              `json:"message"`
	Deleted *AppointmentPayload `json:"deleted,omitempty"`
}

type UpdateAppointmentResponse struct {
	Message string             `json:"message"`
	Old     AppointmentPayload `json:"old"`
	New     AppointmentPayload `json:"new"`
}

type SlotLocation struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type MoveAppointmentResponse struct {
	Message string       `json:"message"`
	Old     SlotLocation `json:"old"`
	New     SlotLocation `json:"new"`
}

type RestoreAppointmentResponse struct {
	Message string `json:"message"`
}

type DoctorsResponse struct {
	Doctors []schedule.Doctor `json:"doctors"`
}

type VisitTypesResponse struct {
	VisitTypes []schedule.VisitTypeInfo `json:"visit_types"`
}

type StatusesResponse struct {
	Statuses []schedule.StatusInfo `json:"statuses"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type DatesResponse struct {
	Dates []string `json:"dates"`
}

type AvailableSlotsResponse struct {
	AvailableSlots []string `json:"available_slots"`
}

type ServiceInfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
