package models

// ContactFields holds the visitor-entered form values. Website is the
// hidden honeypot field: humans never see it, so a non-empty value
// marks the submission as automated.
type ContactFields struct {
	Name    string
	Email   string
	Message string
	Website string
}

// SubmitRequest is the wire payload of POST /submit. The honeypot is
// always included so the backend can inspect it.
type SubmitRequest struct {
	Name        string              `json:"name" binding:"required"`
	Email       string              `json:"email" binding:"required,email"`
	Message     string              `json:"message" binding:"required,min=10"`
	Website     string              `json:"website"`
	Appointment *AppointmentPayload `json:"appointment,omitempty"`
}

// SubmitResponse is the structured response of POST /submit. Exactly
// one of the failure fields is populated on error: Error for a single
// message, Errors for a server-side validation list, Conflict for a
// lost booking race.
type SubmitResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Error    string    `json:"error,omitempty"`
	Errors   []string  `json:"errors,omitempty"`
	Conflict *Conflict `json:"conflict,omitempty"`
}
