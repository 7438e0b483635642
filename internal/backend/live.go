package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/slotform/slotform-core/pkg/breaker"
	"github.com/slotform/slotform-core/pkg/httpclient"
	"github.com/slotform/slotform-core/pkg/logger"
	"github.com/slotform/slotform-core/pkg/metrics"
	"github.com/slotform/slotform-core/pkg/retry"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	slotsPath  = "/appointments/slots"
	submitPath = "/submit"
)

// Live talks to a real booking backend over HTTP. Slot fetches are
// idempotent and go through retry plus a circuit breaker; submissions
// are posted exactly once.
type Live struct {
	baseURL    string
	httpClient httpclient.Client
	slotsCB    *gobreaker.CircuitBreaker
}

// NewLive creates a live backend rooted at baseURL (no trailing slash).
func NewLive(baseURL string, client httpclient.Client) *Live {
	return &Live{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		slotsCB:    breaker.New(breaker.DefaultConfig("slot-fetch")),
	}
}

// FetchSlots implements Backend.
func (l *Live) FetchSlots(ctx context.Context, date string, duration models.Duration) (*models.SlotsResponse, error) {
	start := time.Now()

	fetchURL := fmt.Sprintf("%s%s?%s", l.baseURL, slotsPath, url.Values{
		"date":     {date},
		"duration": {fmt.Sprintf("%d", duration)},
	}.Encode())

	resp, err := breaker.Execute(l.slotsCB, func() (*models.SlotsResponse, error) {
		return retry.DoWithResult(ctx, retry.SlotFetchConfig(), "fetch_slots", func() (*models.SlotsResponse, error) {
			return l.fetchSlotsOnce(ctx, fetchURL)
		})
	})

	metrics.SlotFetchDuration.WithLabelValues("live").Observe(metrics.MeasureDuration(start))
	if err != nil {
		metrics.SlotFetches.WithLabelValues("live", string(apperrors.KindOf(err))).Inc()
		return nil, err
	}

	metrics.SlotFetches.WithLabelValues("live", "success").Inc()
	return resp, nil
}

func (l *Live) fetchSlotsOnce(ctx context.Context, fetchURL string) (*models.SlotsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalid, "invalid slot fetch request", err)
	}

	httpResp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer httpResp.Body.Close()

	switch httpResp.StatusCode {
	case http.StatusOK:
		var slots models.SlotsResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&slots); err != nil {
			return nil, apperrors.Network(fmt.Errorf("decoding slots response: %w", err))
		}
		return &slots, nil
	case http.StatusTooManyRequests:
		return nil, apperrors.New(apperrors.KindRateLimit, "Too many requests. Please wait a moment and try again.")
	default:
		return nil, apperrors.Network(fmt.Errorf("unexpected status %d fetching slots", httpResp.StatusCode))
	}
}

// Submit implements Backend. On structured failures (409, 429, 400,
// or a success:false envelope) the decoded response is returned along
// with the classified error so callers can use the conflict payload.
func (l *Live) Submit(ctx context.Context, submitReq *models.SubmitRequest) (*models.SubmitResponse, error) {
	body, err := json.Marshal(submitReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalid, "invalid submission payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalid, "invalid submission request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer httpResp.Body.Close()

	var resp models.SubmitResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		// No structured response at all: treat as a connectivity-class
		// failure regardless of status.
		return nil, apperrors.Network(fmt.Errorf("decoding submit response (status %d): %w", httpResp.StatusCode, err))
	}

	switch httpResp.StatusCode {
	case http.StatusOK:
		if resp.Success {
			metrics.FormSubmissions.WithLabelValues("success").Inc()
			return &resp, nil
		}
		// The backend rejected the submission with a plain error
		// message (this is also the honeypot path; the message stays
		// deliberately generic).
		metrics.FormSubmissions.WithLabelValues("validation").Inc()
		return &resp, apperrors.New(apperrors.KindValidation, nonEmpty(resp.Error, "Submission rejected"))
	case http.StatusConflict:
		metrics.FormSubmissions.WithLabelValues("conflict").Inc()
		metrics.BookingConflicts.Inc()
		logger.Warn("Submission lost booking race",
			zap.String("reason", conflictReason(&resp)))
		return &resp, apperrors.New(apperrors.KindConflict,
			nonEmpty(resp.Error, "The selected time slot is no longer available. Please pick another time."))
	case http.StatusTooManyRequests:
		metrics.FormSubmissions.WithLabelValues("rate_limit").Inc()
		return &resp, apperrors.New(apperrors.KindRateLimit,
			nonEmpty(resp.Error, "Too many submissions. Please wait a moment and try again."))
	case http.StatusBadRequest:
		metrics.FormSubmissions.WithLabelValues("validation").Inc()
		msg := strings.Join(resp.Errors, "; ")
		return &resp, apperrors.New(apperrors.KindValidation, nonEmpty(msg, nonEmpty(resp.Error, "Submission rejected")))
	default:
		metrics.FormSubmissions.WithLabelValues("network").Inc()
		return nil, apperrors.Network(fmt.Errorf("unexpected status %d submitting form", httpResp.StatusCode))
	}
}

func conflictReason(resp *models.SubmitResponse) string {
	if resp.Conflict == nil {
		return "unknown"
	}
	return string(resp.Conflict.Reason)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
