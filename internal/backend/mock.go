package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/internal/validation"
	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/slotform/slotform-core/pkg/logger"
	"github.com/slotform/slotform-core/pkg/metrics"
	"go.uber.org/zap"
)

// spamRejectionMessage is deliberately generic so automated submitters
// learn nothing about why they were rejected.
const spamRejectionMessage = "Unable to process your request"

// Mock simulates the booking backend for development without a live
// server. Slot generation is deterministic per (date, duration) for a
// given instance seed, so a fetched slot id is recognized again at
// submit time. Booked slots are remembered in-process with a TTL.
type Mock struct {
	cfg      config.MockConfig
	seed     int64
	loc      *time.Location
	bookings *gocache.Cache
	validate *validator.Validate
}

// NewMock creates a simulated backend. Tests pass a fixed seed to make
// availability reproducible.
func NewMock(cfg config.MockConfig, seed int64) *Mock {
	ttl := time.Duration(cfg.BookingTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	// The wire payloads declare their rules in gin binding tags; point
	// the validator at those so server-side validation matches what a
	// live backend would enforce.
	validate := validator.New()
	validate.SetTagName("binding")
	return &Mock{
		cfg:      cfg,
		seed:     seed,
		loc:      time.Local,
		bookings: gocache.New(ttl, 10*time.Minute),
		validate: validate,
	}
}

// FetchSlots implements Backend.
func (m *Mock) FetchSlots(ctx context.Context, date string, duration models.Duration) (*models.SlotsResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Network(err)
	}
	if !duration.Valid() {
		return nil, apperrors.New(apperrors.KindInvalid, fmt.Sprintf("unsupported duration %d", duration))
	}

	day, err := time.ParseInLocation(models.DateFormat, date, m.loc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalid, "invalid date, expected YYYY-MM-DD", err)
	}

	slots := m.generateSlots(day, duration)
	metrics.SlotFetches.WithLabelValues("mock", "success").Inc()

	tz := "UTC"
	if len(slots) > 0 {
		tz, _ = slots[0].StartTime.Zone()
	}

	return &models.SlotsResponse{
		Date:     date,
		Duration: duration,
		Slots:    slots,
		Timezone: tz,
	}, nil
}

// generateSlots steps through the business-hours window. Availability
// is drawn from an RNG seeded by (date, duration, instance seed), so
// repeated fetches for the same day agree with each other; slots booked
// through Submit are flipped to unavailable on top of that.
func (m *Mock) generateSlots(day time.Time, duration models.Duration) []models.AppointmentSlot {
	rng := rand.New(rand.NewSource(m.slotSeed(day, duration)))

	windowStart := time.Date(day.Year(), day.Month(), day.Day(), m.cfg.BusinessHoursStart, 0, 0, 0, m.loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), m.cfg.BusinessHoursEnd, 0, 0, 0, m.loc)

	var slots []models.AppointmentSlot
	for start := windowStart; !start.Add(duration.Minutes()).After(windowEnd); start = start.Add(duration.Minutes()) {
		end := start.Add(duration.Minutes())
		id := m.slotID(day, duration, len(slots))
		available := rng.Float64() < m.cfg.AvailabilityRate
		if _, booked := m.bookings.Get(id); booked {
			available = false
		}
		slots = append(slots, models.AppointmentSlot{
			ID:        id,
			StartTime: start,
			EndTime:   end,
			Available: available,
		})
	}
	return slots
}

// slotID derives a stable opaque id from the slot's coordinates.
func (m *Mock) slotID(day time.Time, duration models.Duration, index int) string {
	name := fmt.Sprintf("%d/%s/%d/%d", m.seed, day.Format(models.DateFormat), duration, index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (m *Mock) slotSeed(day time.Time, duration models.Duration) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%s/%d", m.seed, day.Format(models.DateFormat), duration)
	return int64(h.Sum64())
}

// Submit implements Backend. Mirrors the wire contract of a live
// backend: validation failures carry a message list, booking races a
// conflict payload with the refreshed slot list, honeypot hits a
// generic rejection.
func (m *Mock) Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Network(err)
	}

	// Honeypot check comes first: a filled hidden field marks the
	// submission as automated and short-circuits everything else.
	if strings.TrimSpace(req.Website) != "" {
		metrics.SpamRejections.Inc()
		metrics.FormSubmissions.WithLabelValues("validation").Inc()
		logger.Warn("Submission rejected by honeypot")
		resp := &models.SubmitResponse{Success: false, Error: spamRejectionMessage}
		return resp, apperrors.New(apperrors.KindValidation, spamRejectionMessage)
	}

	if err := m.validate.Struct(req); err != nil {
		metrics.FormSubmissions.WithLabelValues("validation").Inc()
		msgs := validation.WireMessages(err)
		resp := &models.SubmitResponse{Success: false, Errors: msgs}
		return resp, apperrors.New(apperrors.KindValidation, strings.Join(msgs, "; "))
	}

	confirmation := "Thanks! Your message has been sent."
	if req.Appointment != nil {
		booked, conflictResp, err := m.bookSlot(req.Appointment)
		if err != nil {
			metrics.FormSubmissions.WithLabelValues("conflict").Inc()
			return conflictResp, err
		}
		confirmation = fmt.Sprintf("Booked %s. Confirmation %s.", booked.Summary(), uuid.New().String()[:8])
	}

	metrics.FormSubmissions.WithLabelValues("success").Inc()
	return &models.SubmitResponse{Success: true, Message: confirmation}, nil
}

// bookSlot validates the appointment against the generated schedule and
// marks the slot booked. Returns a conflict envelope on failure.
func (m *Mock) bookSlot(appt *models.AppointmentPayload) (*models.AppointmentPayload, *models.SubmitResponse, error) {
	day, err := time.ParseInLocation(models.DateFormat, appt.Date, m.loc)
	if err != nil {
		return nil, m.conflictResponse(models.ConflictInvalidSlot, nil),
			apperrors.New(apperrors.KindConflict, "The appointment date is invalid. Please pick a new time.")
	}
	if !appt.Duration.Valid() {
		return nil, m.conflictResponse(models.ConflictInvalidSlot, nil),
			apperrors.New(apperrors.KindConflict, "The appointment duration is invalid. Please pick a new time.")
	}

	slots := m.generateSlots(day, appt.Duration)

	var match *models.AppointmentSlot
	for i := range slots {
		if slots[i].ID == appt.SlotID {
			match = &slots[i]
			break
		}
	}

	switch {
	case match == nil:
		return nil, m.conflictResponse(models.ConflictInvalidSlot, slots),
			apperrors.New(apperrors.KindConflict, "The selected time slot is invalid. Please pick a new time.")
	case !match.Available:
		metrics.BookingConflicts.Inc()
		logger.Info("Simulated booking conflict", zap.String("slot_id", appt.SlotID))
		return nil, m.conflictResponse(models.ConflictSlotTaken, slots),
			apperrors.New(apperrors.KindConflict, "That time slot was just booked by someone else. Please pick another time.")
	}

	m.bookings.SetDefault(appt.SlotID, true)
	return appt, nil, nil
}

func (m *Mock) conflictResponse(reason models.ConflictReason, updated []models.AppointmentSlot) *models.SubmitResponse {
	return &models.SubmitResponse{
		Success: false,
		Conflict: &models.Conflict{
			Reason:       reason,
			UpdatedSlots: updated,
		},
	}
}
