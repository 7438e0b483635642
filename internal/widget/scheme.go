package widget

import "sync"

// ColorScheme is the host system's dark/light preference.
type ColorScheme string

const (
	SchemeLight ColorScheme = "light"
	SchemeDark  ColorScheme = "dark"
)

// SchemeSource models the process-wide color scheme preference with an
// explicit subscribe/unsubscribe lifecycle, so repeated widget mounts
// never leak a registration.
type SchemeSource struct {
	mu      sync.Mutex
	current ColorScheme
	nextID  int
	subs    map[int]func(ColorScheme)
}

// NewSchemeSource creates a source with an initial preference.
func NewSchemeSource(initial ColorScheme) *SchemeSource {
	if initial != SchemeDark {
		initial = SchemeLight
	}
	return &SchemeSource{
		current: initial,
		subs:    make(map[int]func(ColorScheme)),
	}
}

// Current returns the current preference.
func (s *SchemeSource) Current() ColorScheme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers an observer and returns its cancel function. The
// observer is called immediately with the current value, then on every
// change until cancelled. Cancel is idempotent.
func (s *SchemeSource) Subscribe(fn func(ColorScheme)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Set updates the preference and notifies subscribers.
func (s *SchemeSource) Set(scheme ColorScheme) {
	s.mu.Lock()
	if scheme == s.current {
		s.mu.Unlock()
		return
	}
	s.current = scheme
	subs := make([]func(ColorScheme), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(scheme)
	}
}

// SubscriberCount reports active registrations; used to verify the
// mount/unmount pair leaks nothing.
func (s *SchemeSource) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
