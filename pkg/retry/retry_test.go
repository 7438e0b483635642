package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestDoWithResult_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), "op", func() (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult_RetriesNetworkErrors(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), "op", func() (string, error) {
		calls++
		if calls < 3 {
			return "", apperrors.Network(errors.New("timeout"))
		}
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 3, calls)
}

func TestDoWithResult_DoesNotRetryClassifiedErrors(t *testing.T) {
	for _, kind := range []apperrors.Kind{
		apperrors.KindRateLimit,
		apperrors.KindValidation,
		apperrors.KindConflict,
		apperrors.KindInvalid,
	} {
		calls := 0
		_, err := DoWithResult(context.Background(), fastConfig(), "op", func() (int, error) {
			calls++
			return 0, apperrors.New(kind, "nope")
		})
		require.Error(t, err, kind)
		assert.Equal(t, 1, calls, "kind %s must not be retried", kind)
		assert.Equal(t, kind, apperrors.KindOf(err))
	}
}

func TestDoWithResult_ExhaustsRetries(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2

	calls := 0
	_, err := DoWithResult(context.Background(), cfg, "op", func() (int, error) {
		calls++
		return 0, apperrors.Network(errors.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	// The classification survives the retry wrapper.
	assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	assert.True(t, errors.Is(err, apperrors.ErrNetwork))
}

func TestDoWithResult_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := DoWithResult(ctx, fastConfig(), "op", func() (int, error) {
		calls++
		return 0, apperrors.Network(errors.New("down"))
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
