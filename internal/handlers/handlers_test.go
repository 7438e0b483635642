package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/handlers"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *backend.Mock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := backend.NewMock(config.MockConfig{
		BusinessHoursStart: 9,
		BusinessHoursEnd:   17,
		AvailabilityRate:   1.0,
		BookingTTLSeconds:  3600,
	}, 42)

	r := gin.New()
	r.GET("/health", handlers.NewHealthHandler(config.BackendModeMock).Healthcheck)
	r.GET("/api/v1/appointments/slots", handlers.NewSlotsHandler(mock).GetSlots)
	r.POST("/api/v1/submit", handlers.NewSubmitHandler(mock).Submit)
	r.POST("/api/v1/logs", handlers.NewLogsHandler().ReceiveWidgetLogs)
	return r, mock
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSubmit(t *testing.T, w *httptest.ResponseRecorder) models.SubmitResponse {
	t.Helper()
	var resp models.SubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func submitBody(appt *models.AppointmentPayload) map[string]interface{} {
	body := map[string]interface{}{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"message": "I would like to book a consultation.",
	}
	if appt != nil {
		body["appointment"] = appt
	}
	return body
}

func TestHealthcheck(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"backend":"mock"`)
}

func TestGetSlots_RequiresDate(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/appointments/slots", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "date query parameter is required")
}

func TestGetSlots_RejectsBadDuration(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/appointments/slots?date=2030-05-20&duration=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/appointments/slots?date=2030-05-20&duration=45", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSlots_ReturnsGeneratedSlots(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/appointments/slots?date=2030-05-20", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SlotsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2030-05-20", resp.Date)
	assert.Equal(t, models.Duration30, resp.Duration)
	assert.Len(t, resp.Slots, 16)
}

func TestGetSlots_RejectsMalformedDate(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/v1/appointments/slots?date=20-05-2030", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmit_Success(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/submit", submitBody(nil))
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeSubmit(t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestSubmit_BindingErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/submit", map[string]interface{}{
		"name":    "Ada",
		"email":   "not-an-email",
		"message": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeSubmit(t, w)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Errors)
}

func TestSubmit_BookingAndConflict(t *testing.T) {
	r, mock := newTestRouter(t)

	slots, err := mock.FetchSlots(context.Background(), "2030-05-20", models.Duration30)
	require.NoError(t, err)
	require.NotEmpty(t, slots.Slots)
	chosen := slots.Slots[0]

	appt := &models.AppointmentPayload{
		SlotID:    chosen.ID,
		Date:      "2030-05-20",
		StartTime: chosen.StartTime,
		EndTime:   chosen.EndTime,
		Duration:  models.Duration30,
		Platform:  models.PlatformZoom,
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/submit", submitBody(appt))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeSubmit(t, w).Success)

	// The same slot a second time loses the booking race.
	w = doJSON(t, r, http.MethodPost, "/api/v1/submit", submitBody(appt))
	require.Equal(t, http.StatusConflict, w.Code)

	resp := decodeSubmit(t, w)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, models.ConflictSlotTaken, resp.Conflict.Reason)
	assert.NotEmpty(t, resp.Conflict.UpdatedSlots)
}

func TestSubmit_UnknownSlotConflict(t *testing.T) {
	r, _ := newTestRouter(t)
	appt := &models.AppointmentPayload{
		SlotID:    "no-such-slot",
		Date:      "2030-05-20",
		StartTime: mustParseTime(t, "2030-05-20T09:00:00Z"),
		EndTime:   mustParseTime(t, "2030-05-20T09:30:00Z"),
		Duration:  models.Duration30,
		Platform:  models.PlatformZoom,
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/submit", submitBody(appt))
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeSubmit(t, w)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, models.ConflictInvalidSlot, resp.Conflict.Reason)
}

func TestSubmit_HoneypotAnswersOK(t *testing.T) {
	r, _ := newTestRouter(t)
	body := submitBody(nil)
	body["website"] = "https://spam.example"

	w := doJSON(t, r, http.MethodPost, "/api/v1/submit", body)
	// Deliberately 200 so automated submitters learn nothing.
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeSubmit(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unable to process your request", resp.Error)
	assert.Empty(t, resp.Errors)
}

func TestReceiveWidgetLogs(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", handlers.LogBatchRequest{
		Logs: []handlers.LogEntry{
			{Timestamp: "2030-05-20T09:00:00Z", Level: "info", Message: "widget mounted"},
			{Timestamp: "2030-05-20T09:00:01Z", Level: "error", Message: "slot fetch failed", Context: map[string]interface{}{"date": "2030-05-21"}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":2`)
}

func TestReceiveWidgetLogs_RejectsEmptyBatch(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/logs", map[string]interface{}{"logs": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/logs", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
