// Package bookingflow implements the booking-selection state machine behind
// the barber detail screen: load the barber, pick a service, pick a date,
// load availability for that date, pick a slot, submit. One Flow instance
// owns one booking attempt; screens create a fresh Flow on every entry.
package bookingflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/barberbook/bookingkit/internal/api"
	"github.com/barberbook/bookingkit/internal/observability/metrics"
	"github.com/barberbook/bookingkit/pkg/logging"
)

// Phase is the coarse lifecycle of a flow instance.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseNotFound
	PhaseReady
	PhaseConfirmed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseNotFound:
		return "not_found"
	case PhaseReady:
		return "ready"
	case PhaseConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var (
	// ErrNotReady is returned for selections made before the barber loaded
	// or after the flow reached a terminal phase.
	ErrNotReady = errors.New("bookingflow: barber not loaded")
	// ErrNotAuthenticated means the caller must route the user to sign-in;
	// no network call was made.
	ErrNotAuthenticated = errors.New("bookingflow: sign-in required to book")
	// ErrIncompleteDraft means service, date and slot are not all selected.
	ErrIncompleteDraft = errors.New("bookingflow: service, date and slot must all be selected")
	// ErrSubmitInFlight rejects a second submission while one is outstanding.
	ErrSubmitInFlight = errors.New("bookingflow: a submission is already in flight")
	// ErrConfirmed rejects any mutation after a successful booking.
	ErrConfirmed = errors.New("bookingflow: booking already confirmed")
	// ErrBadIndex is returned for out-of-range service/date/slot selections.
	ErrBadIndex = errors.New("bookingflow: selection index out of range")
	// ErrSlotsNotLoaded rejects slot selection before availability resolved.
	ErrSlotsNotLoaded = errors.New("bookingflow: slots not loaded for the selected date")
)

// BookingAPI is the slice of the BarberBook client the flow depends on.
type BookingAPI interface {
	GetBarber(ctx context.Context, id string) (*api.Barber, error)
	GetAvailability(ctx context.Context, barberID string, date time.Time) ([]api.Slot, error)
	CreateAppointment(ctx context.Context, req api.AppointmentRequest) (*api.Appointment, error)
}

// Authenticator reports whether a usable session is present. Satisfied by
// *session.Store.
type Authenticator interface {
	Authenticated() bool
}

// ServiceOption is a selectable service offering. Key is a synthetic ordinal
// assigned at load time so two offerings with the same name stay
// distinguishable.
type ServiceOption struct {
	Key     int
	Service api.Service
}

const defaultWindowDays = 14

// Config wires a Flow's dependencies.
type Config struct {
	API     BookingAPI
	Session Authenticator
	Logger  *logging.Logger
	Metrics *metrics.BookingMetrics

	// WindowDays is the size of the candidate-date window, today inclusive.
	// Zero means 14.
	WindowDays int

	// Now is the clock used to anchor the date window. Zero means time.Now.
	Now func() time.Time

	// OnChange, when set, is invoked with a fresh Snapshot after every state
	// change, including availability resolutions from background fetches.
	// It is called without the flow lock held.
	OnChange func(Snapshot)
}

// Flow is one booking attempt against one barber.
type Flow struct {
	mu sync.Mutex

	barberID string
	cfg      Config
	logger   *logging.Logger

	phase    Phase
	barber   *api.Barber
	services []ServiceOption
	dates    []time.Time

	selectedService int
	selectedDate    int
	selectedSlot    int
	slots           []api.Slot
	slotsLoading    bool
	slotsLoaded     bool
	notes           string

	availabilityGen uint64
	submitting      bool
	confirmed       *api.Appointment
}

// New creates a flow for the given barber id. Load must be called before any
// selection.
func New(barberID string, cfg Config) *Flow {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaultWindowDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Flow{
		barberID:        barberID,
		cfg:             cfg,
		logger:          logger.With("component", "bookingflow", "barber_id", barberID),
		phase:           PhaseLoading,
		selectedService: -1,
		selectedDate:    -1,
		selectedSlot:    -1,
	}
}

// Load fetches the barber profile and builds the candidate-date window.
// Any fetch failure, a success=false envelope, or a missing payload all
// collapse to PhaseNotFound; the only exit from NotFound is abandoning the
// flow instance.
func (f *Flow) Load(ctx context.Context) {
	barber, err := f.cfg.API.GetBarber(ctx, f.barberID)

	f.mu.Lock()
	if err != nil || barber == nil {
		if err != nil && !errors.Is(err, api.ErrNotFound) {
			f.logger.Warn("barber fetch failed", "error", err)
		}
		f.phase = PhaseNotFound
		f.unlockAndNotify()
		return
	}

	f.barber = barber
	f.services = make([]ServiceOption, len(barber.Services))
	for i, svc := range barber.Services {
		f.services[i] = ServiceOption{Key: i, Service: svc}
	}
	f.dates = CandidateDates(f.cfg.Now(), f.cfg.WindowDays)
	f.phase = PhaseReady
	f.logger.Info("barber loaded", "services", len(f.services))
	f.unlockAndNotify()
}

// SelectService picks a service by its synthetic key. Selecting a service
// never resets the date or slot selection and triggers no network activity.
func (f *Flow) SelectService(key int) error {
	f.mu.Lock()
	if err := f.readyLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if key < 0 || key >= len(f.services) {
		f.mu.Unlock()
		return ErrBadIndex
	}
	f.selectedService = key
	f.unlockAndNotify()
	return nil
}

// SelectDate picks a candidate date by index. The current slot selection is
// cleared unconditionally and an availability fetch for the new date starts
// in the background. Responses from superseded fetches are fenced by a
// generation counter and discarded when stale.
func (f *Flow) SelectDate(ctx context.Context, index int) error {
	f.mu.Lock()
	if err := f.readyLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if index < 0 || index >= len(f.dates) {
		f.mu.Unlock()
		return ErrBadIndex
	}

	f.selectedDate = index
	f.selectedSlot = -1
	f.slots = nil
	f.slotsLoaded = false
	f.slotsLoading = true
	f.availabilityGen++
	gen := f.availabilityGen
	date := f.dates[index]
	f.unlockAndNotify()

	go f.fetchAvailability(ctx, gen, date)
	return nil
}

func (f *Flow) fetchAvailability(ctx context.Context, gen uint64, date time.Time) {
	slots, err := f.cfg.API.GetAvailability(ctx, f.barberID, date)

	f.mu.Lock()
	if gen != f.availabilityGen {
		f.mu.Unlock()
		f.cfg.Metrics.ObserveStaleDiscard()
		f.logger.Debug("stale availability response discarded", "date", date.Format("2006-01-02"))
		return
	}
	if err != nil {
		// Indistinguishable from a zero-slot day on purpose: the screen
		// renders both as "no slots available".
		f.logger.Warn("availability fetch failed", "date", date.Format("2006-01-02"), "error", err)
		slots = nil
	}
	f.slots = slots
	f.slotsLoading = false
	f.slotsLoaded = true
	f.unlockAndNotify()
}

// SelectSlot picks a slot from the currently loaded list.
func (f *Flow) SelectSlot(index int) error {
	f.mu.Lock()
	if err := f.readyLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if !f.slotsLoaded {
		f.mu.Unlock()
		return ErrSlotsNotLoaded
	}
	if index < 0 || index >= len(f.slots) {
		f.mu.Unlock()
		return ErrBadIndex
	}
	f.selectedSlot = index
	f.unlockAndNotify()
	return nil
}

// SetNotes replaces the draft's free-text notes.
func (f *Flow) SetNotes(notes string) {
	f.mu.Lock()
	f.notes = notes
	f.unlockAndNotify()
}

// CanSubmit reports whether the submission gate is open: service, date and
// slot all selected, no submission in flight, booking not yet confirmed.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canSubmitLocked()
}

func (f *Flow) canSubmitLocked() bool {
	return f.phase == PhaseReady &&
		!f.submitting &&
		f.selectedService >= 0 &&
		f.selectedDate >= 0 &&
		f.selectedSlot >= 0
}

// Submit books the drafted appointment. On failure the draft stays intact
// and the caller may retry immediately; there is no automatic retry. On
// success the flow is terminal and the draft is discarded.
func (f *Flow) Submit(ctx context.Context) (*api.Appointment, error) {
	f.mu.Lock()
	if f.phase == PhaseConfirmed {
		f.mu.Unlock()
		return nil, ErrConfirmed
	}
	if f.phase != PhaseReady {
		f.mu.Unlock()
		return nil, ErrNotReady
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.cfg.Session != nil && !f.cfg.Session.Authenticated() {
		f.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if !f.canSubmitLocked() {
		f.mu.Unlock()
		return nil, ErrIncompleteDraft
	}

	req := api.AppointmentRequest{
		BarberID:        f.barber.ID,
		Service:         f.services[f.selectedService].Service,
		AppointmentDate: f.slots[f.selectedSlot].Time.UTC(),
		Notes:           strings.TrimSpace(f.notes),
	}
	f.submitting = true
	f.unlockAndNotify()

	appt, err := f.cfg.API.CreateAppointment(ctx, req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.cfg.Metrics.ObserveSubmission("failed")
		f.logger.Warn("booking submission failed", "error", err)
		f.unlockAndNotify()
		return nil, fmt.Errorf("submit booking: %w", err)
	}
	f.confirmed = appt
	f.phase = PhaseConfirmed
	f.notes = ""
	f.cfg.Metrics.ObserveSubmission("confirmed")
	f.logger.Info("booking confirmed", "appointment_date", req.AppointmentDate)
	f.unlockAndNotify()
	return appt, nil
}

func (f *Flow) readyLocked() error {
	switch f.phase {
	case PhaseReady:
		return nil
	case PhaseConfirmed:
		return ErrConfirmed
	default:
		return ErrNotReady
	}
}

// unlockAndNotify builds a snapshot, releases the lock, then fires OnChange.
// Callers must hold the lock.
func (f *Flow) unlockAndNotify() {
	var snap Snapshot
	notify := f.cfg.OnChange
	if notify != nil {
		snap = f.snapshotLocked()
	}
	f.mu.Unlock()
	if notify != nil {
		notify(snap)
	}
}
