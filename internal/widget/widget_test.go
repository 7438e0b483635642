package widget_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/internal/session"
	"github.com/slotform/slotform-core/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBackend struct {
	fetches atomic.Int32
}

func (b *countingBackend) FetchSlots(_ context.Context, date string, d models.Duration) (*models.SlotsResponse, error) {
	b.fetches.Add(1)
	return &models.SlotsResponse{Date: date, Duration: d, Timezone: "UTC"}, nil
}

func (b *countingBackend) Submit(context.Context, *models.SubmitRequest) (*models.SubmitResponse, error) {
	return &models.SubmitResponse{Success: true}, nil
}

func TestFromConfig_PlumbsWidgetSettings(t *testing.T) {
	cfg := &config.Config{
		Widget: config.WidgetConfig{
			Theme:                  "compact",
			DefaultPlatform:        "phone",
			ConflictRefreshDelayMS: 1500,
		},
	}
	be := &countingBackend{}
	schemes := widget.NewSchemeSource(widget.SchemeDark)

	wcfg := widget.FromConfig(cfg, be, schemes)
	assert.Equal(t, "compact", wcfg.Theme)
	assert.Equal(t, models.PlatformPhone, wcfg.DefaultPlatform)
	assert.Equal(t, 1500*time.Millisecond, wcfg.ConflictRefreshDelay)
	assert.Same(t, schemes, wcfg.Schemes)

	w := widget.New(wcfg)
	require.NoError(t, w.Mount(nil))
	defer w.Unmount()

	assert.Equal(t, models.PlatformPhone, w.Form().Picker().Snapshot().Platform)
	assert.Equal(t, "compact", w.ThemeAttributes()["data-slotform-theme"])
	assert.Equal(t, "dark", w.ThemeAttributes()["data-slotform-scheme"])
}

func TestWidget_MountUnmountSymmetry(t *testing.T) {
	schemes := widget.NewSchemeSource(widget.SchemeLight)
	w := widget.New(widget.Config{
		Backend: &countingBackend{},
		Schemes: schemes,
	})

	assert.False(t, w.Mounted())
	assert.Nil(t, w.Form())

	require.NoError(t, w.Mount(nil))
	assert.True(t, w.Mounted())
	require.NotNil(t, w.Form())
	assert.Equal(t, 1, schemes.SubscriberCount())

	// Double mount is rejected, the host must unmount first.
	require.Error(t, w.Mount(nil))

	w.Unmount()
	assert.False(t, w.Mounted())
	assert.Nil(t, w.Form())
	assert.Zero(t, schemes.SubscriberCount())

	// Unmount is idempotent and remount works cleanly.
	w.Unmount()
	require.NoError(t, w.Mount(nil))
	assert.Equal(t, 1, schemes.SubscriberCount())
	w.Unmount()
	assert.Zero(t, schemes.SubscriberCount())
}

func TestWidget_ObserverReceivesFormChanges(t *testing.T) {
	w := widget.New(widget.Config{Backend: &countingBackend{}})

	snaps := make(chan session.FormSnapshot, 8)
	require.NoError(t, w.Mount(func(snap session.FormSnapshot) { snaps <- snap }))
	defer w.Unmount()

	w.Form().SetField("name", "Ada")
	select {
	case snap := <-snaps:
		assert.Equal(t, "Ada", snap.Fields.Name)
	case <-time.After(time.Second):
		t.Fatal("observer was not notified")
	}
}

func TestWidget_ThemeAttributes(t *testing.T) {
	schemes := widget.NewSchemeSource(widget.SchemeDark)
	w := widget.New(widget.Config{Backend: &countingBackend{}, Theme: "compact", Schemes: schemes})
	require.NoError(t, w.Mount(nil))
	defer w.Unmount()

	attrs := w.ThemeAttributes()
	assert.Equal(t, "compact", attrs["data-slotform-theme"])
	assert.Equal(t, "dark", attrs["data-slotform-scheme"])

	schemes.Set(widget.SchemeLight)
	assert.Equal(t, "light", w.ThemeAttributes()["data-slotform-scheme"])
}

func TestWidget_ThemeDefaults(t *testing.T) {
	w := widget.New(widget.Config{Backend: &countingBackend{}})
	attrs := w.ThemeAttributes()
	assert.Equal(t, "default", attrs["data-slotform-theme"])
	assert.Equal(t, "light", attrs["data-slotform-scheme"])
}

func TestWidget_UnmountStopsSchemeUpdates(t *testing.T) {
	schemes := widget.NewSchemeSource(widget.SchemeLight)
	w := widget.New(widget.Config{Backend: &countingBackend{}, Schemes: schemes})
	require.NoError(t, w.Mount(nil))
	w.Unmount()

	schemes.Set(widget.SchemeDark)
	assert.Equal(t, "light", w.ThemeAttributes()["data-slotform-scheme"])
}

func TestHandle_RefreshSlots(t *testing.T) {
	be := &countingBackend{}
	w := widget.New(widget.Config{Backend: be})
	require.NoError(t, w.Mount(nil))
	defer w.Unmount()
	h := w.Handle()

	// Without a chosen date the command is a no-op.
	h.RefreshSlots(context.Background())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, be.fetches.Load())

	tomorrow := time.Now().AddDate(0, 0, 2).Format(models.DateFormat)
	require.NoError(t, w.Form().Picker().SelectDate(context.Background(), tomorrow))
	assert.Eventually(t, func() bool { return be.fetches.Load() == 1 }, time.Second, 10*time.Millisecond)

	h.RefreshSlots(context.Background())
	assert.Eventually(t, func() bool { return be.fetches.Load() == 2 }, time.Second, 10*time.Millisecond)
}

func TestHandle_RefreshAfterUnmountIsSafe(t *testing.T) {
	w := widget.New(widget.Config{Backend: &countingBackend{}})
	require.NoError(t, w.Mount(nil))
	h := w.Handle()
	w.Unmount()

	h.RefreshSlots(context.Background())
}

func TestSchemeSource_SubscribeLifecycle(t *testing.T) {
	s := widget.NewSchemeSource(widget.SchemeLight)

	var seen []widget.ColorScheme
	cancel := s.Subscribe(func(scheme widget.ColorScheme) { seen = append(seen, scheme) })
	require.Equal(t, []widget.ColorScheme{widget.SchemeLight}, seen)

	s.Set(widget.SchemeDark)
	require.Equal(t, []widget.ColorScheme{widget.SchemeLight, widget.SchemeDark}, seen)
	assert.Equal(t, widget.SchemeDark, s.Current())

	// Setting the same value again does not renotify.
	s.Set(widget.SchemeDark)
	assert.Len(t, seen, 2)

	cancel()
	cancel()
	s.Set(widget.SchemeLight)
	assert.Len(t, seen, 2)
	assert.Zero(t, s.SubscriberCount())
}
