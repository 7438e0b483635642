// Package backend abstracts the widget's server side behind a single
// strategy interface with a live HTTP implementation and an in-process
// simulated one, selected by one configuration flag at startup.
package backend

import (
	"context"
	"time"

	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/pkg/httpclient"
)

// Backend is the widget's view of the server. FetchSlots is an
// idempotent read; Submit posts the combined form payload.
//
// Failures are classified: errors returned by either method carry an
// apperrors.Kind so the form orchestrator can branch without string
// matching. Submit additionally returns the decoded response envelope
// alongside a conflict or validation error, because the caller needs
// the structured payload (updated slot lists, joined error messages).
type Backend interface {
	// FetchSlots retrieves candidate slots for a calendar date and
	// duration. It has no side effects beyond the read.
	FetchSlots(ctx context.Context, date string, duration models.Duration) (*models.SlotsResponse, error)

	// Submit posts the contact fields plus optional appointment. On a
	// structured failure the response is returned together with the
	// classified error.
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.SubmitResponse, error)
}

// New selects the backend implementation from configuration.
func New(cfg *config.Config) Backend {
	if cfg.Widget.BackendMode == config.BackendModeMock {
		return NewMock(cfg.Mock, time.Now().UnixNano())
	}
	client := httpclient.NewStandardClientWithTimeout(
		time.Duration(cfg.Widget.HTTPTimeoutSeconds) * time.Second)
	return NewLive(cfg.Widget.APIBaseURL, client)
}
