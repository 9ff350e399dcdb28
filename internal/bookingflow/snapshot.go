package bookingflow

import (
	"time"

	"github.com/barberbook/bookingkit/internal/api"
)

// Snapshot is an immutable view of the flow for rendering. Index fields are
// -1 when nothing is selected.
type Snapshot struct {
	Phase  Phase
	Barber *api.Barber

	Services []ServiceOption
	Dates    []time.Time

	SelectedService int
	SelectedDate    int
	SelectedSlot    int

	Slots        []api.Slot
	SlotsLoading bool
	SlotsLoaded  bool

	Notes      string
	Submitting bool
	CanSubmit  bool

	Confirmed *api.Appointment
}

// Snapshot returns the current state of the flow.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Flow) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:           f.phase,
		Barber:          f.barber,
		Services:        append([]ServiceOption(nil), f.services...),
		Dates:           append([]time.Time(nil), f.dates...),
		SelectedService: f.selectedService,
		SelectedDate:    f.selectedDate,
		SelectedSlot:    f.selectedSlot,
		Slots:           append([]api.Slot(nil), f.slots...),
		SlotsLoading:    f.slotsLoading,
		SlotsLoaded:     f.slotsLoaded,
		Notes:           f.notes,
		Submitting:      f.submitting,
		CanSubmit:       f.canSubmitLocked(),
		Confirmed:       f.confirmed,
	}
	return snap
}

// CandidateDates returns the forward-looking booking window: days calendar
// dates anchored at now's date, today inclusive, normalized to UTC midnight
// to match the YYYY-MM-DD wire format.
func CandidateDates(now time.Time, days int) []time.Time {
	day := now.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}
