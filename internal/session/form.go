package session

import (
	"context"
	"sync"
	"time"

	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/internal/validation"
	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/slotform/slotform-core/pkg/logger"
	"go.uber.org/zap"
)

// FormSnapshot is an immutable view of the form handed to observers.
type FormSnapshot struct {
	Fields        models.ContactFields
	Errors        map[string]string
	Status        models.SubmissionStatus
	StatusMessage string
	Confirmation  string
	Conflict      bool
	Refreshing    bool
	SubmitEnabled bool
	Picker        PickerSnapshot
}

// FormObserver receives a snapshot after every form or picker change.
type FormObserver func(FormSnapshot)

// FormConfig configures a form session.
type FormConfig struct {
	Backend backend.Backend
	Picker  *Picker
	// ConflictRefreshDelay is how long the conflict state stays on
	// screen before the slot list refreshes under the user.
	ConflictRefreshDelay time.Duration
}

// Form owns the contact fields, overall submission status and the
// displayed validation errors, and coordinates slot refresh after
// successes and conflicts.
type Form struct {
	mu       sync.Mutex
	backend  backend.Backend
	picker   *Picker
	observer FormObserver

	fields        models.ContactFields
	errors        map[string]string
	status        models.SubmissionStatus
	statusMessage string
	confirmation  string
	conflict      bool
	refreshing    bool

	refreshDelay time.Duration
	refreshTimer *time.Timer
	closed       bool
}

// NewForm creates a form session wired to its appointment picker. The
// picker's transitions flow through the form so the host sees one
// consistent snapshot stream.
func NewForm(cfg FormConfig) *Form {
	delay := cfg.ConflictRefreshDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	f := &Form{
		backend:      cfg.Backend,
		picker:       cfg.Picker,
		errors:       make(map[string]string),
		status:       models.StatusIdle,
		refreshDelay: delay,
	}
	f.picker.SetObserver(func(PickerSnapshot) {
		f.notify()
	})
	return f
}

// SetObserver registers the host-facing observer.
func (f *Form) SetObserver(fn FormObserver) {
	f.mu.Lock()
	f.observer = fn
	f.mu.Unlock()
}

// Picker exposes the appointment picker for direct slot interaction.
func (f *Form) Picker() *Picker {
	return f.picker
}

// SetField updates a contact field value without validating it;
// validation waits for blur or a submit attempt.
func (f *Form) SetField(field, value string) {
	f.mu.Lock()
	switch field {
	case validation.FieldName:
		f.fields.Name = value
	case validation.FieldEmail:
		f.fields.Email = value
	case validation.FieldMessage:
		f.fields.Message = value
	case "website":
		f.fields.Website = value
	}
	f.mu.Unlock()
	f.notify()
}

// Blur validates a single field on loss of focus, updating only that
// field's displayed error.
func (f *Form) Blur(field string) {
	f.mu.Lock()
	msg := validation.Field(field, f.fieldValueLocked(field))
	if msg == "" {
		delete(f.errors, field)
	} else {
		f.errors[field] = msg
	}
	f.mu.Unlock()
	f.notify()
}

func (f *Form) fieldValueLocked(field string) string {
	switch field {
	case validation.FieldName:
		return f.fields.Name
	case validation.FieldEmail:
		return f.fields.Email
	case validation.FieldMessage:
		return f.fields.Message
	}
	return ""
}

// RevealErrors populates all displayed errors at once. Called on a
// submit attempt and when the user hovers a disabled submit control;
// it never changes submit enablement, which is a pure function of the
// values themselves.
func (f *Form) RevealErrors() {
	f.mu.Lock()
	f.errors = validation.Form(f.fields, f.appointmentStateLocked())
	f.mu.Unlock()
	f.notify()
}

// SubmitEnabled reports whether the current values constitute a
// submittable form, independent of which errors are displayed.
func (f *Form) SubmitEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return validation.SubmitEnabled(f.fields, f.appointmentStateLocked())
}

func (f *Form) appointmentStateLocked() validation.AppointmentState {
	snap := f.picker.Snapshot()
	return validation.AppointmentState{
		HasDate:     snap.Date != "",
		HasSlot:     snap.Selected != nil,
		HasPlatform: snap.Platform.Valid(),
	}
}

// Snapshot returns the current form state.
func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() FormSnapshot {
	errs := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	return FormSnapshot{
		Fields:        f.fields,
		Errors:        errs,
		Status:        f.status,
		StatusMessage: f.statusMessage,
		Confirmation:  f.confirmation,
		Conflict:      f.conflict,
		Refreshing:    f.refreshing,
		SubmitEnabled: validation.SubmitEnabled(f.fields, f.appointmentStateLocked()),
		Picker:        f.picker.Snapshot(),
	}
}

func (f *Form) notify() {
	f.mu.Lock()
	observer := f.observer
	if observer == nil {
		f.mu.Unlock()
		return
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()
	observer(snap)
}

// Submit validates the whole form and posts it. Local validation
// failures never reach the network layer; they reveal the field errors
// and return a validation-classified error with the form still idle.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	appt := f.appointmentStateLocked()
	errs := validation.Form(f.fields, appt)
	if len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		f.notify()
		return apperrors.New(apperrors.KindValidation, "Please correct the highlighted fields.")
	}

	payload := f.buildPayloadLocked()
	f.status = models.StatusSubmitting
	f.statusMessage = ""
	f.conflict = false
	f.mu.Unlock()
	f.notify()

	resp, err := f.backend.Submit(ctx, payload)
	if err != nil {
		f.handleFailure(ctx, resp, err)
		return err
	}

	f.handleSuccess(ctx, resp)
	return nil
}

// buildPayloadLocked flattens the contact fields plus, when a slot and
// platform are both chosen, the appointment descriptor. The honeypot
// field is always included.
func (f *Form) buildPayloadLocked() *models.SubmitRequest {
	req := &models.SubmitRequest{
		Name:    f.fields.Name,
		Email:   f.fields.Email,
		Message: f.fields.Message,
		Website: f.fields.Website,
	}

	snap := f.picker.Snapshot()
	if snap.Selected != nil && snap.Platform.Valid() {
		req.Appointment = &models.AppointmentPayload{
			SlotID:    snap.Selected.ID,
			Date:      snap.Date,
			StartTime: snap.Selected.StartTime,
			EndTime:   snap.Selected.EndTime,
			Duration:  snap.Duration,
			Platform:  snap.Platform,
		}
	}
	return req
}

// handleSuccess clears the message field only (name and email are
// retained for convenience), drops the one-shot slot selection while
// keeping date and platform preferences, stores the confirmation
// summary and triggers exactly one slot re-fetch so the widget shows
// the reduced availability.
func (f *Form) handleSuccess(ctx context.Context, resp *models.SubmitResponse) {
	f.mu.Lock()
	f.status = models.StatusSuccess
	f.statusMessage = ""
	f.confirmation = resp.Message
	f.fields.Message = ""
	f.errors = make(map[string]string)
	hadDate := f.picker.Snapshot().Date != ""
	f.mu.Unlock()

	f.picker.ClearSelection()
	if hadDate {
		f.picker.RefreshSlots(ctx)
	}
	f.notify()
}

func (f *Form) handleFailure(ctx context.Context, resp *models.SubmitResponse, err error) {
	kind := apperrors.KindOf(err)
	message := apperrors.UserMessage(err)

	f.mu.Lock()
	f.status = models.StatusError
	f.statusMessage = message

	if kind == apperrors.KindConflict {
		f.conflict = true
		// When the backend included a replacement slot list we know a
		// refresh is worthwhile; hold the conflict state on screen
		// briefly so the user sees what happened before the list
		// changes under them.
		if resp != nil && resp.Conflict != nil && resp.Conflict.UpdatedSlots != nil {
			f.scheduleConflictRefreshLocked(ctx)
		}
	}
	f.mu.Unlock()

	logger.Warn("Submission failed",
		zap.String("kind", string(kind)),
		zap.String("message", message))
	f.notify()
}

// scheduleConflictRefreshLocked arms the single delayed refresh. The
// fetch client discards stale responses on its own, so a timer that
// fires after the user already moved to another date is harmless.
func (f *Form) scheduleConflictRefreshLocked(ctx context.Context) {
	if f.closed {
		return
	}
	if f.refreshTimer != nil {
		f.refreshTimer.Stop()
	}
	f.refreshing = true
	f.refreshTimer = time.AfterFunc(f.refreshDelay, func() {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.refreshing = false
		f.conflict = false
		f.mu.Unlock()

		f.picker.RefreshSlots(ctx)
		f.notify()
	})
}

// Close releases the session: pending timers are stopped and further
// scheduled effects suppressed. Safe to call more than once.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	if f.refreshTimer != nil {
		f.refreshTimer.Stop()
		f.refreshTimer = nil
	}
	f.mu.Unlock()
}
