// Package validation implements the client-side field rules. Rules are
// pure functions from a field value to an optional error message, so
// they can run per-field on blur or all at once on a submit attempt.
//
// The wire payloads carry go-playground binding tags as a second line
// of defense; these rules exist so errors surface before anything
// reaches the network layer.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/slotform/slotform-core/internal/models"
)

// Field identifiers used by the form orchestrator.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldMessage     = "message"
	FieldAppointment = "appointment"
)

// Error messages. Surfaced verbatim to the user.
const (
	MsgNameTooShort    = "Name must be at least 2 characters"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Invalid email format"
	MsgMessageTooShort = "Message must be at least 10 characters"
	MsgSlotMissing     = "Select a time slot or clear the date"
	MsgPlatformMissing = "Select a meeting platform"
)

// emailPattern is deliberately loose: one @, something either side,
// and a dot in the domain. Deliverability is the backend's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Name returns an error message for the name field, or "" if valid.
// An empty name fails the same length rule as a one-character one.
func Name(value string) string {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < 2 {
		return MsgNameTooShort
	}
	return ""
}

// Email returns an error message for the email field, or "" if valid.
func Email(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return MsgEmailRequired
	}
	if !emailPattern.MatchString(trimmed) {
		return MsgEmailInvalid
	}
	return ""
}

// Message returns an error message for the message field, or "" if valid.
func Message(value string) string {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < 10 {
		return MsgMessageTooShort
	}
	return ""
}

// Field validates a single contact field by identifier. Unknown fields
// validate clean so callers need no special cases for the honeypot.
func Field(field, value string) string {
	switch field {
	case FieldName:
		return Name(value)
	case FieldEmail:
		return Email(value)
	case FieldMessage:
		return Message(value)
	}
	return ""
}

// AppointmentState is the slice of selection state the cross-field rule
// needs. A half-made appointment blocks submission either way: a date
// without a slot, or a slot without a platform.
type AppointmentState struct {
	HasDate     bool
	HasSlot     bool
	HasPlatform bool
}

// Appointment validates the cross-field appointment rule.
func Appointment(state AppointmentState) string {
	if state.HasDate && !state.HasSlot {
		return MsgSlotMissing
	}
	if state.HasSlot && !state.HasPlatform {
		return MsgPlatformMissing
	}
	return ""
}

// Form validates everything at once, returning a map keyed by field
// identifier with one message per failing field.
func Form(fields models.ContactFields, appt AppointmentState) map[string]string {
	errs := make(map[string]string)
	if msg := Name(fields.Name); msg != "" {
		errs[FieldName] = msg
	}
	if msg := Email(fields.Email); msg != "" {
		errs[FieldEmail] = msg
	}
	if msg := Message(fields.Message); msg != "" {
		errs[FieldMessage] = msg
	}
	if msg := Appointment(appt); msg != "" {
		errs[FieldAppointment] = msg
	}
	return errs
}

// SubmitEnabled reports whether the submit control should be enabled.
// It is a pure function of the current values: revealing errors on
// hover never changes enablement.
func SubmitEnabled(fields models.ContactFields, appt AppointmentState) bool {
	return len(Form(fields, appt)) == 0
}
