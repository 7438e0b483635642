package models

import (
	"fmt"
	"time"
)

// DateFormat is the wire format for calendar dates.
const DateFormat = "2006-01-02"

// Duration is an appointment length in minutes. Only the enumerated
// values are accepted anywhere in the system.
type Duration int

const (
	Duration15 Duration = 15
	Duration30 Duration = 30
	Duration60 Duration = 60
)

// Durations lists the accepted appointment lengths in display order.
// The list is the single source of truth for duration validation.
var Durations = []Duration{Duration15, Duration30, Duration60}

// Valid reports whether d is one of the enumerated durations.
func (d Duration) Valid() bool {
	for _, v := range Durations {
		if d == v {
			return true
		}
	}
	return false
}

// Minutes returns the duration as a time.Duration.
func (d Duration) Minutes() time.Duration {
	return time.Duration(d) * time.Minute
}

// ParseDuration converts a wire value to a Duration.
func ParseDuration(minutes int) (Duration, error) {
	d := Duration(minutes)
	if !d.Valid() {
		return 0, fmt.Errorf("unsupported duration %d, must be one of 15, 30, 60", minutes)
	}
	return d, nil
}

// Platform is a meeting platform choice.
type Platform string

const (
	PlatformZoom       Platform = "zoom"
	PlatformGoogleMeet Platform = "google_meet"
	PlatformPhone      Platform = "phone"
)

// Valid reports whether p is one of the enumerated platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformZoom, PlatformGoogleMeet, PlatformPhone:
		return true
	}
	return false
}

// AppointmentSlot is a discrete bookable time interval. IDs are opaque
// and unique within a single fetch response.
type AppointmentSlot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Available bool      `json:"available"`
}

// SlotsResponse is the payload of GET /appointments/slots. Slot lists
// are replaced wholesale on every fetch.
type SlotsResponse struct {
	Date     string            `json:"date"`
	Duration Duration          `json:"duration"`
	Slots    []AppointmentSlot `json:"slots"`
	Timezone string            `json:"timezone"`
}

// AppointmentPayload is the flattened appointment descriptor attached
// to a submission when both a slot and a platform are chosen.
type AppointmentPayload struct {
	SlotID    string    `json:"slotId" binding:"required"`
	Date      string    `json:"date" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Duration  Duration  `json:"duration" binding:"required"`
	Platform  Platform  `json:"platform" binding:"required"`
}

// Summary renders the human-readable confirmation line shown in the
// success banner.
func (a *AppointmentPayload) Summary() string {
	return fmt.Sprintf("%s at %s (%d min, %s)",
		a.Date, a.StartTime.Local().Format("15:04"), a.Duration, a.Platform)
}

// ConflictReason discriminates why a submission lost its slot.
type ConflictReason string

const (
	ConflictSlotTaken   ConflictReason = "slot_taken"
	ConflictRateLimit   ConflictReason = "rate_limit"
	ConflictInvalidSlot ConflictReason = "invalid_slot"
)

// Conflict is the structured payload of a 409 response.
type Conflict struct {
	Reason       ConflictReason    `json:"reason"`
	UpdatedSlots []AppointmentSlot `json:"updatedSlots,omitempty"`
}

// SubmissionStatus is the lifecycle of one submission attempt.
// Transitions are monotonic per attempt: idle -> submitting ->
// {success, error}; a new attempt resets to submitting.
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSuccess    SubmissionStatus = "success"
	StatusError      SubmissionStatus = "error"
)
