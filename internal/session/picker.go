// Package session implements the widget's interaction core: the
// appointment-selection state machine and the form orchestrator that
// owns submission status. Both are confined to a single form instance;
// there is no cross-instance or persistent shared state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/slotform/slotform-core/pkg/logger"
	"github.com/slotform/slotform-core/pkg/metrics"
	"go.uber.org/zap"
)

// PickerState is the appointment-selection automaton state.
type PickerState string

const (
	StateNoDate       PickerState = "no_date"
	StateDateChosen   PickerState = "date_chosen"
	StateSlotsLoading PickerState = "slots_loading"
	StateSlotsReady   PickerState = "slots_ready"
	StateSlotSelected PickerState = "slot_selected"
)

// PickerSnapshot is an immutable view of the picker handed to
// observers. LastError distinguishes the error display state; it is a
// presentation concern, not a separate automaton state.
type PickerSnapshot struct {
	State     PickerState
	Date      string
	Duration  models.Duration
	Platform  models.Platform
	Slots     []models.AppointmentSlot
	Selected  *models.AppointmentSlot
	LastError string
}

// HasSelection reports whether a slot is currently chosen.
func (s PickerSnapshot) HasSelection() bool {
	return s.Selected != nil
}

// PickerObserver receives a snapshot after every state transition,
// synchronously with the transition.
type PickerObserver func(PickerSnapshot)

// fetchTag identifies the selection a fetch was issued for. A response
// whose tag no longer matches the current selection is discarded, so
// the last request for the current pair wins even when responses
// arrive out of order.
type fetchTag struct {
	date     string
	duration models.Duration
}

// Picker tracks date, duration, candidate slots, the chosen slot and
// the meeting platform.
type Picker struct {
	mu       sync.Mutex
	backend  backend.Backend
	now      func() time.Time
	observer PickerObserver

	state     PickerState
	date      string
	duration  models.Duration
	platform  models.Platform
	slots     []models.AppointmentSlot
	selected  *models.AppointmentSlot
	lastError string
}

// PickerConfig configures a Picker.
type PickerConfig struct {
	Backend backend.Backend
	// DefaultPlatform is preselected; platform choice is independent
	// of the date/slot automaton.
	DefaultPlatform models.Platform
	// Now is injectable for tests of the 24-hour notice rule.
	Now func() time.Time
}

// NewPicker creates a picker in the NoDate state with a default
// duration of 30 minutes.
func NewPicker(cfg PickerConfig) *Picker {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	platform := cfg.DefaultPlatform
	if !platform.Valid() {
		platform = models.PlatformZoom
	}
	return &Picker{
		backend:  cfg.Backend,
		now:      now,
		state:    StateNoDate,
		duration: models.Duration30,
		platform: platform,
	}
}

// SetObserver registers the single observer notified on every
// transition. Must be called before the picker is used.
func (p *Picker) SetObserver(fn PickerObserver) {
	p.mu.Lock()
	p.observer = fn
	p.mu.Unlock()
}

// Snapshot returns the current picker state.
func (p *Picker) Snapshot() PickerSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Picker) snapshotLocked() PickerSnapshot {
	snap := PickerSnapshot{
		State:     p.state,
		Date:      p.date,
		Duration:  p.duration,
		Platform:  p.platform,
		Slots:     append([]models.AppointmentSlot(nil), p.slots...),
		LastError: p.lastError,
	}
	if p.selected != nil {
		sel := *p.selected
		snap.Selected = &sel
	}
	return snap
}

// notifyLocked snapshots under the lock, releases it for the observer
// call, and reacquires. Observers may read the picker but must not
// mutate it reentrantly.
func (p *Picker) notifyLocked() {
	observer := p.observer
	if observer == nil {
		return
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	observer(snap)
	p.mu.Lock()
}

// SelectDate chooses an appointment date and begins a slot fetch. The
// 24-hour notice rule rejects today and earlier: the earliest
// selectable date is the next calendar day.
func (p *Picker) SelectDate(ctx context.Context, date string) error {
	day, err := time.ParseInLocation(models.DateFormat, date, p.now().Location())
	if err != nil {
		return apperrors.Wrap(apperrors.KindInvalid, "invalid date, expected YYYY-MM-DD", err)
	}

	now := p.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if day.Before(tomorrow) {
		return apperrors.New(apperrors.KindValidation, "Appointments require 24-hour notice. Please choose a later date.")
	}

	p.mu.Lock()
	p.date = date
	p.selected = nil
	p.state = StateDateChosen
	p.notifyLocked()
	p.beginFetchLocked(ctx)
	p.mu.Unlock()
	return nil
}

// SetDuration changes the appointment length. With a date set this
// clears the selected slot and refetches.
func (p *Picker) SetDuration(ctx context.Context, d models.Duration) error {
	if !d.Valid() {
		return apperrors.New(apperrors.KindInvalid, fmt.Sprintf("unsupported duration %d", d))
	}

	p.mu.Lock()
	if p.duration == d {
		p.mu.Unlock()
		return nil
	}
	p.duration = d
	p.selected = nil
	if p.date == "" {
		p.notifyLocked()
		p.mu.Unlock()
		return nil
	}
	p.state = StateDateChosen
	p.notifyLocked()
	p.beginFetchLocked(ctx)
	p.mu.Unlock()
	return nil
}

// SetPlatform changes the meeting platform. Independent of the
// date/slot automaton; allowed at any time.
func (p *Picker) SetPlatform(platform models.Platform) error {
	if !platform.Valid() {
		return apperrors.New(apperrors.KindInvalid, fmt.Sprintf("unsupported meeting platform %q", platform))
	}
	p.mu.Lock()
	p.platform = platform
	p.notifyLocked()
	p.mu.Unlock()
	return nil
}

// ToggleSlot selects an available slot, or deselects the slot if it is
// already selected. Clicking an unavailable slot has no effect.
func (p *Picker) ToggleSlot(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSlotsReady && p.state != StateSlotSelected {
		return
	}

	if p.selected != nil && p.selected.ID == id {
		p.selected = nil
		p.state = StateSlotsReady
		p.notifyLocked()
		return
	}

	for i := range p.slots {
		if p.slots[i].ID != id {
			continue
		}
		if !p.slots[i].Available {
			return
		}
		slot := p.slots[i]
		p.selected = &slot
		p.state = StateSlotSelected
		p.notifyLocked()
		return
	}
}

// ClearSelection deselects the slot only, preserving the chosen date
// and platform preference so the user can pick a different time
// without re-entering them.
func (p *Picker) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return
	}
	p.selected = nil
	if p.state == StateSlotSelected {
		p.state = StateSlotsReady
	}
	p.notifyLocked()
}

// RefreshSlots re-fetches candidate slots for the current date and
// duration. No-op without a date.
func (p *Picker) RefreshSlots(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.date == "" {
		return
	}
	p.beginFetchLocked(ctx)
}

// beginFetchLocked starts an asynchronous slot fetch tagged with the
// current (date, duration). Caller holds the lock.
func (p *Picker) beginFetchLocked(ctx context.Context) {
	tag := fetchTag{date: p.date, duration: p.duration}
	p.state = StateSlotsLoading
	p.notifyLocked()

	go func() {
		resp, err := p.backend.FetchSlots(ctx, tag.date, tag.duration)
		p.completeFetch(tag, resp, err)
	}()
}

// completeFetch applies a fetch result, unless the selection has moved
// on since the request was issued.
func (p *Picker) completeFetch(tag fetchTag, resp *models.SlotsResponse, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tag.date != p.date || tag.duration != p.duration {
		metrics.StaleFetchesDiscarded.Inc()
		logger.Debug("Discarding stale slot fetch",
			zap.String("fetched_date", tag.date),
			zap.String("current_date", p.date))
		return
	}

	if err != nil {
		p.slots = nil
		p.selected = nil
		p.lastError = apperrors.UserMessage(err)
		p.state = StateSlotsReady
		p.notifyLocked()
		return
	}

	p.slots = resp.Slots
	p.lastError = ""

	// A previously selected slot survives only if it is still present
	// and available in the fresh list.
	if p.selected != nil {
		retained := false
		for i := range resp.Slots {
			if resp.Slots[i].ID == p.selected.ID && resp.Slots[i].Available {
				slot := resp.Slots[i]
				p.selected = &slot
				retained = true
				break
			}
		}
		if !retained {
			p.selected = nil
		}
	}

	if p.selected != nil {
		p.state = StateSlotSelected
	} else {
		p.state = StateSlotsReady
	}
	p.notifyLocked()
}
