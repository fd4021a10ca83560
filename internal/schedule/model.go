package schedule

import (
	"time"
)

type VisitType string

const (
	VisitFollowUp     VisitType = "follow-up"
	VisitRoutine      VisitType = "routine"
	VisitConsultation VisitType = "consultation"
	VisitTest         VisitType = "test"
	VisitAnnual       VisitType = "annual"
)

func (v VisitType) Valid() bool {
	switch v {
	case VisitFollowUp, VisitRoutine, VisitConsultation, VisitTest, VisitAnnual:
		return true
	}
	return false
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// Patient carries the full record attached to a booked slot. Field names on the
// wire are camelCase and must stay stable: the persisted data file shares this
// encoding with the API payloads.
type Patient struct {
	Name                  string    `json:"name"`
	Condition             string    `json:"condition"`
	Phone                 string    `json:"phone,omitempty"`
	Email                 string    `json:"email,omitempty"`
	DateOfBirth           string    `json:"dateOfBirth,omitempty"`
	Address               string    `json:"address,omitempty"`
	InsuranceProvider     string    `json:"insuranceProvider,omitempty"`
	InsuranceID           string    `json:"insuranceId,omitempty"`
	EmergencyContactName  string    `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string    `json:"emergencyContactPhone,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	VisitType             VisitType `json:"visitType"`
	Status                Status    `json:"status"`
	DoctorID              string    `json:"doctor"`
	Tags                  []string  `json:"tags"`
	CreatedAt             time.Time `json:"createdAt"`
	LastModified          time.Time `json:"lastModified"`
}

type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// DefaultDoctorID is used when a booking does not name a doctor.
const DefaultDoctorID = "chen"

// roster is fixed at startup; doctors are not created through the API.
var roster = []Doctor{
	{ID: "chen", Name: "Dr. Sarah Chen", Specialty: "Cardiology"},
	{ID: "park", Name: "Dr. Michael Park", Specialty: "Pediatrics"},
	{ID: "kumar", Name: "Dr. Lisa Kumar", Specialty: "Internal Medicine"},
	{ID: "williams", Name: "Dr. James Williams", Specialty: "Orthopedics"},
}

func Doctors() []Doctor {
	out := make([]Doctor, len(roster))
	copy(out, roster)
	return out
}

func DoctorByID(id string) (Doctor, bool) {
	for _, d := range roster {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// Appointment binds a patient to a doctor within one slot of one date.
type Appointment struct {
	Patient  *Patient `json:"patient"`
	DoctorID string   `json:"doctor"`
}

func (a *Appointment) clone() *Appointment {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Patient != nil {
		p := *a.Patient
		if a.Patient.Tags != nil {
			p.Tags = append([]string(nil), a.Patient.Tags...)
		}
		cp.Patient = &p
	}
	return &cp
}

// Schedule maps every one of the fixed slot keys for one date to an
// appointment or nil. It always holds exactly SlotCount entries.
type Schedule map[string]*Appointment

const (
	// SlotCount is the number of 30-minute slots in a working day.
	SlotCount     = 16
	workStartHour = 9
	slotInterval  = 30 * time.Minute
)

var (
	slotKeys = generateSlotKeys()
	slotSet  = func() map[string]struct{} {
		m := make(map[string]struct{}, len(slotKeys))
		for _, k := range slotKeys {
			m[k] = struct{}{}
		}
		return m
	}()
)

func generateSlotKeys() []string {
	keys := make([]string, 0, SlotCount)
	t := time.Date(0, time.January, 1, workStartHour, 0, 0, 0, time.UTC)
	for i := 0; i < SlotCount; i++ {
		keys = append(keys, t.Format("15:04"))
		t = t.Add(slotInterval)
	}
	return keys
}

// SlotKeys returns the fixed slot keys in day order, 09:00 through 16:30.
func SlotKeys() []string {
	out := make([]string, len(slotKeys))
	copy(out, slotKeys)
	return out
}

func ValidSlot(key string) bool {
	_, ok := slotSet[key]
	return ok
}

func newEmptySchedule() Schedule {
	sched := make(Schedule, SlotCount)
	for _, k := range slotKeys {
		sched[k] = nil
	}
	return sched
}

type VisitTypeInfo struct {
	ID    VisitType `json:"id"`
	Label string    `json:"label"`
	Icon  string    `json:"icon"`
}

type StatusInfo struct {
	ID    Status `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Reference data served to the booking UI.
var (
	VisitTypes = []VisitTypeInfo{
		{ID: VisitFollowUp, Label: "Follow-up", Icon: "🔄"},
		{ID: VisitRoutine, Label: "Routine Checkup", Icon: "✓"},
		{ID: VisitConsultation, Label: "Consultation", Icon: "💬"},
		{ID: VisitTest, Label: "Tests & Labs", Icon: "🧪"},
		{ID: VisitAnnual, Label: "Annual Physical", Icon: "📋"},
	}

	Statuses = []StatusInfo{
		{ID: StatusConfirmed, Label: "Confirmed", Color: "green"},
		{ID: StatusPending, Label: "Pending", Color: "yellow"},
		{ID: StatusCompleted, Label: "Completed", Color: "blue"},
	}

	QuickTags = []string{
		"Blood Pressure",
		"Medication Review",
		"Follow-up Required",
		"Lab Work Needed",
		"X-Ray Ordered",
		"Referral Given",
		"Symptoms Improved",
		"New Prescription",
	}
)
