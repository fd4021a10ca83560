package schedule

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidSlot   = errors.New("time is not a valid slot")
	ErrSlotOccupied  = errors.New("slot is already booked")
	ErrNotFound      = errors.New("no appointment at slot")
	ErrUnknownDoctor = errors.New("unknown doctor")
)

// ConflictPolicy decides how the store treats booking onto an occupied slot
// and cancelling an empty one.
type ConflictPolicy string

const (
	// PolicyStrict rejects both: book onto an occupied slot fails with
	// ErrSlotOccupied, cancel of an empty slot fails with ErrNotFound.
	PolicyStrict ConflictPolicy = "strict"
	// PolicyLenient lets a booking overwrite an occupied slot (last write
	// wins) and treats cancel of an empty slot as a successful no-op.
	PolicyLenient ConflictPolicy = "lenient"
)

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	}
	return "", fmt.Errorf("invalid conflict policy %q", s)
}

// Options configures a Store.
type Options struct {
	// DataFile is the path of the write-through JSON file.
	DataFile string
	// Policy selects strict or lenient conflict handling. Defaults to strict.
	Policy ConflictPolicy
	// BackupCorrupt renames an unparsable data file aside before the next
	// save overwrites it.
	BackupCorrupt bool
	Logger        zerolog.Logger
}

// Store owns every schedule across all referenced dates. All operations run
// under one mutex so that validate, mutate and persist form a single critical
// section; the data file on disk never diverges from memory.
type Store struct {
	mu        sync.Mutex
	schedules map[string]Schedule
	policy    ConflictPolicy
	file      *dataFile
	log       zerolog.Logger
	now       func() time.Time
}

// NewStore builds a store and loads any existing data file. A missing file
// starts an empty store; a corrupt one is logged (and optionally backed up)
// and the store starts empty rather than failing.
func NewStore(opts Options) *Store {
	if opts.Policy == "" {
		opts.Policy = PolicyStrict
	}
	s := &Store{
		policy: opts.Policy,
		file: &dataFile{
			path:          opts.DataFile,
			backupCorrupt: opts.BackupCorrupt,
			log:           opts.Logger,
		},
		log: opts.Logger,
		now: time.Now,
	}
	s.schedules = s.file.load()
	return s
}

func (s *Store) Policy() ConflictPolicy {
	return s.policy
}

// scheduleFor returns the live schedule for a date, creating it fully
// populated with empty slots on first reference. Callers hold s.mu.
func (s *Store) scheduleFor(date string) Schedule {
	sched, ok := s.schedules[date]
	if !ok {
		sched = newEmptySchedule()
		s.schedules[date] = sched
	}
	return sched
}

func cloneSchedule(sched Schedule) Schedule {
	out := make(Schedule, len(sched))
	for k, appt := range sched {
		out[k] = appt.clone()
	}
	return out
}

// GetSchedule returns a copy of the schedule for a date, creating the
// underlying schedule if the date has not been seen before.
func (s *Store) GetSchedule(date string) Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSchedule(s.scheduleFor(date))
}

// BookResult is the payload returned from a successful booking.
type BookResult struct {
	Date        string
	Slot        string
	Appointment *Appointment
	Message     string
}

// Book places a patient into a slot. Under the strict policy an occupied slot
// fails with ErrSlotOccupied; under the lenient policy the booking overwrites
// it. CreatedAt is set once, LastModified on every booking.
func (s *Store) Book(date, slot string, patient Patient, doctorID string) (*BookResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}
	if doctorID == "" {
		doctorID = DefaultDoctorID
	}
	doctor, ok := DoctorByID(doctorID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDoctor, doctorID)
	}

	sched := s.scheduleFor(date)
	if sched[slot] != nil && s.policy == PolicyStrict {
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotOccupied, slot, date)
	}

	now := s.now()
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}
	patient.LastModified = now
	patient.DoctorID = doctorID
	if patient.Tags == nil {
		patient.Tags = []string{}
	}

	appt := &Appointment{Patient: &patient, DoctorID: doctorID}

	prev := sched[slot]
	sched[slot] = appt
	if err := s.persist(); err != nil {
		sched[slot] = prev
		return nil, err
	}

	return &BookResult{
		Date:        date,
		Slot:        slot,
		Appointment: appt.clone(),
		Message:     fmt.Sprintf("Booked %s with %s at %s", patient.Name, doctor.Name, slot),
	}, nil
}

// CancelResult carries the removed appointment so the caller can offer undo.
// Removed is nil when the lenient policy turned a cancel of an empty slot
// into a no-op.
type CancelResult struct {
	Date    string
	Slot    string
	Removed *Appointment
	Message string
}

// Cancel clears a slot and returns the removed appointment.
func (s *Store) Cancel(date, slot string) (*CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}

	sched := s.scheduleFor(date)
	appt := sched[slot]
	if appt == nil {
		if s.policy == PolicyLenient {
			return &CancelResult{Date: date, Slot: slot, Message: "Slot was already empty"}, nil
		}
		return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, slot, date)
	}

	sched[slot] = nil
	if err := s.persist(); err != nil {
		sched[slot] = appt
		return nil, err
	}

	return &CancelResult{
		Date:    date,
		Slot:    slot,
		Removed: appt.clone(),
		Message: fmt.Sprintf("Cancelled appointment for %s", appt.Patient.Name),
	}, nil
}

// Restore re-creates a previously cancelled appointment. It never overwrites:
// an occupied target fails with ErrSlotOccupied under either policy. Supplied
// timestamps are preserved so undo does not reset the record's history.
func (s *Store) Restore(date, slot string, patient Patient, doctorID string) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}
	if doctorID == "" {
		doctorID = DefaultDoctorID
	}
	if _, ok := DoctorByID(doctorID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDoctor, doctorID)
	}

	sched := s.scheduleFor(date)
	if sched[slot] != nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotOccupied, slot, date)
	}

	now := s.now()
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}
	if patient.LastModified.IsZero() {
		patient.LastModified = now
	}
	patient.DoctorID = doctorID
	if patient.Tags == nil {
		patient.Tags = []string{}
	}

	appt := &Appointment{Patient: &patient, DoctorID: doctorID}
	sched[slot] = appt
	if err := s.persist(); err != nil {
		sched[slot] = nil
		return nil, err
	}

	return appt.clone(), nil
}

// FieldChanges is a partial update: nil fields are left untouched.
type FieldChanges struct {
	Name        *string
	Condition   *string
	Phone       *string
	Email       *string
	DateOfBirth *string
	Address     *string
	Notes       *string
	VisitType   *VisitType
	Status      *Status
	Doctor      *string
	Tags        *[]string
}

// UpdateResult holds pre- and post-update snapshots for undo and audit.
type UpdateResult struct {
	Old     *Appointment
	New     *Appointment
	Message string
}

// Update applies the supplied field changes to an occupied slot and refreshes
// the patient's LastModified timestamp.
func (s *Store) Update(date, slot string, changes FieldChanges) (*UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, slot)
	}

	sched := s.scheduleFor(date)
	old := sched[slot]
	if old == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, slot, date)
	}

	if changes.Doctor != nil {
		if _, ok := DoctorByID(*changes.Doctor); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDoctor, *changes.Doctor)
		}
	}

	updated := old.clone()
	p := updated.Patient
	if changes.Name != nil {
		p.Name = *changes.Name
	}
	if changes.Condition != nil {
		p.Condition = *changes.Condition
	}
	if changes.Phone != nil {
		p.Phone = *changes.Phone
	}
	if changes.Email != nil {
		p.Email = *changes.Email
	}
	if changes.DateOfBirth != nil {
		p.DateOfBirth = *changes.DateOfBirth
	}
	if changes.Address != nil {
		p.Address = *changes.Address
	}
	if changes.Notes != nil {
		p.Notes = *changes.Notes
	}
	if changes.VisitType != nil {
		p.VisitType = *changes.VisitType
	}
	if changes.Status != nil {
		p.Status = *changes.Status
	}
	if changes.Doctor != nil {
		updated.DoctorID = *changes.Doctor
		p.DoctorID = *changes.Doctor
	}
	if changes.Tags != nil {
		p.Tags = append([]string(nil), (*changes.Tags)...)
	}
	p.LastModified = s.now()

	sched[slot] = updated
	if err := s.persist(); err != nil {
		sched[slot] = old
		return nil, err
	}

	return &UpdateResult{
		Old:     old.clone(),
		New:     updated.clone(),
		Message: fmt.Sprintf("Updated appointment for %s", p.Name),
	}, nil
}

// MoveResult reports the source and destination of a relocated appointment.
type MoveResult struct {
	OldDate string
	OldSlot string
	NewDate string
	NewSlot string
	Message string
}

// Move relocates an appointment to another date and slot. The destination is
// validated before anything changes, so a failed move leaves the source
// untouched. Moving onto an occupied destination never overwrites.
func (s *Store) Move(oldDate, oldSlot, newDate, newSlot string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ValidSlot(oldSlot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, oldSlot)
	}
	oldSched := s.scheduleFor(oldDate)
	appt := oldSched[oldSlot]
	if appt == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, oldSlot, oldDate)
	}

	if !ValidSlot(newSlot) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSlot, newSlot)
	}
	newSched := s.scheduleFor(newDate)
	if newSched[newSlot] != nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrSlotOccupied, newSlot, newDate)
	}

	prevModified := appt.Patient.LastModified
	oldSched[oldSlot] = nil
	newSched[newSlot] = appt
	appt.Patient.LastModified = s.now()

	if err := s.persist(); err != nil {
		appt.Patient.LastModified = prevModified
		newSched[newSlot] = nil
		oldSched[oldSlot] = appt
		return nil, err
	}

	return &MoveResult{
		OldDate: oldDate,
		OldSlot: oldSlot,
		NewDate: newDate,
		NewSlot: newSlot,
		Message: fmt.Sprintf("Moved appointment to %s at %s", newDate, newSlot),
	}, nil
}

// matchesAll reports whether a filter value matches everything.
func matchesAll(v string) bool {
	return v == "" || v == "all"
}

// Filter returns a projection of a date's schedule with the same slot keys;
// a slot whose appointment fails any supplied criterion appears empty. The
// underlying schedule is never modified.
func (s *Store) Filter(date, doctorID string, visitType VisitType, status Status) Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched := s.scheduleFor(date)
	filtered := make(Schedule, len(sched))
	for slot, appt := range sched {
		if appt == nil {
			filtered[slot] = nil
			continue
		}
		if !matchesAll(doctorID) && appt.DoctorID != doctorID {
			filtered[slot] = nil
			continue
		}
		if !matchesAll(string(visitType)) && appt.Patient.VisitType != visitType {
			filtered[slot] = nil
			continue
		}
		if !matchesAll(string(status)) && appt.Patient.Status != status {
			filtered[slot] = nil
			continue
		}
		filtered[slot] = appt.clone()
	}
	return filtered
}

// AvailableSlots lists the unbooked slot keys for a date in day order. A slot
// holds one appointment regardless of doctor, so the doctor filter does not
// widen the result; it is accepted for boundary compatibility.
func (s *Store) AvailableSlots(date, doctorID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched := s.scheduleFor(date)
	available := make([]string, 0, SlotCount)
	for _, slot := range slotKeys {
		if sched[slot] == nil {
			available = append(available, slot)
		}
	}
	return available
}

// Dates lists every date that has a schedule, sorted ascending.
func (s *Store) Dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates := make([]string, 0, len(s.schedules))
	for d := range s.schedules {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Stats aggregates one date's schedule. Breakdowns count occupied slots only.
type Stats struct {
	TotalSlots     int               `json:"total_slots"`
	BookedSlots    int               `json:"booked_slots"`
	AvailableSlots int               `json:"available_slots"`
	Utilization    float64           `json:"utilization"`
	ByDoctor       map[string]int    `json:"by_doctor"`
	ByType         map[VisitType]int `json:"by_type"`
	ByStatus       map[Status]int    `json:"by_status"`
}

// Statistics computes aggregate counts and utilization for a date.
func (s *Store) Statistics(date string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched := s.scheduleFor(date)
	stats := Stats{
		TotalSlots: len(sched),
		ByDoctor:   map[string]int{},
		ByType:     map[VisitType]int{},
		ByStatus:   map[Status]int{},
	}
	for _, appt := range sched {
		if appt == nil {
			continue
		}
		stats.BookedSlots++
		stats.ByDoctor[appt.DoctorID]++
		stats.ByType[appt.Patient.VisitType]++
		stats.ByStatus[appt.Patient.Status]++
	}
	stats.AvailableSlots = stats.TotalSlots - stats.BookedSlots
	// one decimal place, e.g. 3/16 -> 18.8
	stats.Utilization = math.Round(float64(stats.BookedSlots)/float64(stats.TotalSlots)*1000) / 10
	return stats
}

func (s *Store) persist() error {
	if err := s.file.save(s.schedules); err != nil {
		s.log.Error().Err(err).Msg("failed to persist schedule data")
		return err
	}
	return nil
}
