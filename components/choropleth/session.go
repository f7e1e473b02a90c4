package choropleth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const defaultSessionTTL = 30 * time.Minute

// Session is one open dashboard page. All access to its root goes through the
// session event loop.
type Session struct {
	ID        string
	CreatedAt time.Time

	root     *DashboardRoot
	loop     *EventLoop
	cancel   context.CancelFunc
	lastSeen time.Time
	version  uint64
}

// Do runs fn against the dashboard on the session loop.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, root *DashboardRoot) error) error {
	return s.loop.Call(ctx, func() error { return fn(ctx, s.root) })
}

// View returns the current render state.
func (s *Session) View(ctx context.Context) (View, error) {
	view, _, err := s.Snapshot(ctx)
	return view, err
}

// Snapshot returns the current render state and its version. Versions
// increase with every snapshot taken on the session loop, so a later
// version never describes an older state.
func (s *Session) Snapshot(ctx context.Context) (View, uint64, error) {
	var (
		view    View
		version uint64
	)
	err := s.Do(ctx, func(_ context.Context, root *DashboardRoot) error {
		s.version++
		view, version = root.View(), s.version
		return nil
	})
	return view, version, err
}

func (s *Session) stop() {
	s.cancel()
	s.loop.Stop()
}

// SessionManagerOptions configures a SessionManager.
type SessionManagerOptions struct {
	Catalog      *RegionCatalog
	Metrics      MetricSource
	Series       SeriesSource
	MapConfig    MapConfig
	FetchTimeout time.Duration
	TTL          time.Duration
	Clock        clockwork.Clock
	Telemetry    Telemetry
	Logger       *slog.Logger
	Hook         RefreshHook
	NewID        func() string
	// Purgers run on every sweep tick.
	Purgers []Purger
}

// SessionManager creates sessions and expires idle ones.
type SessionManager struct {
	opts      SessionManagerOptions
	clock     clockwork.Clock
	telemetry Telemetry
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager builds a manager with safe defaults.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Catalog == nil {
		opts.Catalog = DefaultRegionCatalog()
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &SessionManager{
		opts:      opts,
		clock:     opts.Clock,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    opts.Logger,
		sessions:  map[string]*Session{},
	}
}

// Create opens a session and starts its metric load.
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	now := m.clock.Now()
	loopCtx, cancel := context.WithCancel(context.Background())
	session := &Session{
		ID:        m.opts.NewID(),
		CreatedAt: now,
		loop:      NewEventLoop(0),
		cancel:    cancel,
		lastSeen:  now,
	}
	session.root = NewDashboardRoot(DashboardOptions{
		Catalog:      m.opts.Catalog,
		Store:        NewMetricStore(m.opts.Catalog, m.clock),
		Metrics:      m.opts.Metrics,
		Series:       m.opts.Series,
		Loop:         session.loop,
		MapConfig:    m.opts.MapConfig,
		FetchTimeout: m.opts.FetchTimeout,
		Telemetry:    m.opts.Telemetry,
		Logger:       m.logger.With("session", session.ID),
		OnChange: func(ctx context.Context, reason string) {
			m.notify(ctx, session.ID, reason)
		},
	})
	go session.loop.Run(loopCtx)

	if err := session.Do(ctx, func(ctx context.Context, root *DashboardRoot) error {
		root.Start(ctx)
		return nil
	}); err != nil {
		session.stop()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.telemetry.Record(ctx, EventSessionStarted, map[string]any{"session": session.ID})
	m.logger.Debug("session started", "session", session.ID)
	return session, nil
}

// Get returns a live session and marks it as active.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.lastSeen = m.clock.Now()
	return session, nil
}

// Close ends a session.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		session.stop()
		m.telemetry.Record(context.Background(), EventSessionClosed, map[string]any{"session": id})
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (m *SessionManager) Sweep(ctx context.Context) int {
	cutoff := m.clock.Now().Add(-m.opts.TTL)
	var expired []*Session
	m.mu.Lock()
	for id, session := range m.sessions {
		if session.lastSeen.Before(cutoff) {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, session := range expired {
		session.stop()
		m.telemetry.Record(ctx, EventSessionExpired, map[string]any{"session": session.ID})
	}
	if len(expired) > 0 {
		m.logger.Debug("expired sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.opts.TTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.Chan():
			m.tick(ctx)
		}
	}
}

type subscriberCounter interface {
	Subscribers() int
}

func (m *SessionManager) tick(ctx context.Context) {
	expired := m.Sweep(ctx)
	purged := 0
	for _, purger := range m.opts.Purgers {
		purged += purger.Purge()
	}
	attrs := []any{"sessions", m.Len(), "expired", expired, "purged", purged}
	if counter, ok := m.opts.Hook.(subscriberCounter); ok {
		attrs = append(attrs, "subscribers", counter.Subscribers())
	}
	m.logger.Debug("session sweep", attrs...)
}

func (m *SessionManager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for id, session := range sessions {
		session.stop()
		m.telemetry.Record(context.Background(), EventSessionClosed, map[string]any{"session": id})
	}
}

func (m *SessionManager) notify(ctx context.Context, id, reason string) {
	if m.opts.Hook == nil {
		return
	}
	event := ViewEvent{SessionID: id, Reason: reason, At: m.clock.Now()}
	if err := m.opts.Hook.ViewChanged(ctx, event); err != nil {
		m.logger.Warn("view change hook failed", "session", id, "error", err)
	}
}
