// Package widget ties the form session to a host page: a symmetrical
// mount/unmount pair, theme attribute plumbing and the color scheme
// subscription lifecycle.
package widget

import (
	"context"
	"time"

	"github.com/slotform/slotform-core/config"
	"github.com/slotform/slotform-core/internal/backend"
	"github.com/slotform/slotform-core/internal/models"
	"github.com/slotform/slotform-core/internal/session"
	"github.com/slotform/slotform-core/pkg/apperrors"
	"github.com/slotform/slotform-core/pkg/logger"
	"go.uber.org/zap"
)

// Config is supplied by the host environment at mount time.
type Config struct {
	// Theme is an optional theme identifier; empty means default.
	Theme string
	// DefaultPlatform preselects the meeting platform.
	DefaultPlatform models.Platform
	// Backend is the slot-fetch and submission strategy.
	Backend backend.Backend
	// ConflictRefreshDelay overrides the post-conflict refresh delay.
	ConflictRefreshDelay time.Duration
	// Schemes is the host's color scheme source; nil disables the
	// subscription.
	Schemes *SchemeSource
}

// Widget is one embeddable form instance. Form state is created at
// Mount and discarded at Unmount.
type Widget struct {
	cfg     Config
	form    *session.Form
	scheme  ColorScheme
	cancel  func()
	mounted bool
}

// New prepares a widget; nothing is live until Mount.
func New(cfg Config) *Widget {
	if cfg.Theme == "" {
		cfg.Theme = "default"
	}
	return &Widget{cfg: cfg}
}

// FromConfig maps the application configuration onto a widget Config.
// The host supplies the backend and scheme source; theme, default
// platform and the conflict refresh delay come from the WIDGET_*
// settings.
func FromConfig(cfg *config.Config, be backend.Backend, schemes *SchemeSource) Config {
	return Config{
		Theme:                cfg.Widget.Theme,
		DefaultPlatform:      models.Platform(cfg.Widget.DefaultPlatform),
		Backend:              be,
		ConflictRefreshDelay: time.Duration(cfg.Widget.ConflictRefreshDelayMS) * time.Millisecond,
		Schemes:              schemes,
	}
}

// Mount creates the form session, registers the host observer and
// subscribes to scheme changes. Mounting a mounted widget is an error;
// the host must unmount first.
func (w *Widget) Mount(observer session.FormObserver) error {
	if w.mounted {
		return apperrors.New(apperrors.KindInvalid, "widget is already mounted")
	}

	picker := session.NewPicker(session.PickerConfig{
		Backend:         w.cfg.Backend,
		DefaultPlatform: w.cfg.DefaultPlatform,
	})
	w.form = session.NewForm(session.FormConfig{
		Backend:              w.cfg.Backend,
		Picker:               picker,
		ConflictRefreshDelay: w.cfg.ConflictRefreshDelay,
	})
	if observer != nil {
		w.form.SetObserver(observer)
	}

	if w.cfg.Schemes != nil {
		w.cancel = w.cfg.Schemes.Subscribe(func(scheme ColorScheme) {
			w.scheme = scheme
		})
	}

	w.mounted = true
	logger.Debug("Widget mounted", zap.String("theme", w.cfg.Theme))
	return nil
}

// Unmount reverses Mount exactly: the scheme subscription is dropped,
// pending timers stopped and the session discarded. Idempotent.
func (w *Widget) Unmount() {
	if !w.mounted {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.form.Close()
	w.form = nil
	w.mounted = false
	logger.Debug("Widget unmounted")
}

// Mounted reports whether the widget is live.
func (w *Widget) Mounted() bool {
	return w.mounted
}

// Form returns the mounted session, or nil when unmounted.
func (w *Widget) Form() *session.Form {
	return w.form
}

// Handle exposes the imperative commands a parent component may issue
// across the boundary. The parent holds the handle rather than a
// back-reference into the widget.
type Handle struct {
	widget *Widget
}

// Handle returns the command handle for the mounted widget.
func (w *Widget) Handle() *Handle {
	return &Handle{widget: w}
}

// RefreshSlots re-fetches the slot list for the current selection.
func (h *Handle) RefreshSlots(ctx context.Context) {
	if h.widget.form == nil {
		return
	}
	h.widget.form.Picker().RefreshSlots(ctx)
}

// ThemeAttributes returns the data attributes the host applies to the
// container element.
func (w *Widget) ThemeAttributes() map[string]string {
	scheme := w.scheme
	if scheme == "" {
		scheme = SchemeLight
	}
	return map[string]string{
		"data-slotform-theme":  w.cfg.Theme,
		"data-slotform-scheme": string(scheme),
	}
}
