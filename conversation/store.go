package conversation

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/docent/core"
)

const (
	// messageCap bounds how many messages one session retains; the oldest
	// fall off the front.
	messageCap = 100

	// defaultRecentLimit is how many messages GetRecent returns when no
	// limit is given.
	defaultRecentLimit = 10

	// defaultListLimit bounds List when no limit is given.
	defaultListLimit = 50

	// activityWindow is the look-back for counting active sessions.
	activityWindow = 24 * time.Hour
)

// session is one conversation with its own lock, so different sessions
// mutate independently of each other.
type session struct {
	mu        sync.Mutex
	id        string
	messages  []core.ChatMessage
	createdAt time.Time
	updatedAt time.Time
}

func (s *session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Store keeps conversation sessions in memory. The store lock guards the
// session map; mutations to one session serialize on that session's lock.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	metricsMu sync.Mutex
	metrics   Metrics

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithClock sets the time source. Tests use it to control session ages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		if now == nil {
			now = time.Now
		}
		s.now = now
		return nil
	}
}

// NewStore creates an empty conversation store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		sessions: make(map[string]*session),
		logger:   slog.Default().With("component", "conversation"),
		now:      time.Now,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CreateOrGet returns the id of an existing session, creating the session
// first when needed. An empty id gets a generated UUID.
func (s *Store) CreateOrGet(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	s.getOrCreate(id)
	return id
}

func (s *Store) getOrCreate(id string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	now := s.now()
	sess = &session{id: id, createdAt: now, updatedAt: now}
	s.sessions[id] = sess
	s.logger.Debug("session created", "conversationId", id)
	return sess
}

// AddMessage appends one turn to a session, creating the session when it
// does not exist yet.
func (s *Store) AddMessage(id string, role core.Role, content string, metadata map[string]string) {
	sess := s.getOrCreate(id)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = append(sess.messages, core.ChatMessage{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
		Metadata:  metadata,
	})
	if len(sess.messages) > messageCap {
		sess.messages = slices.Clone(sess.messages[len(sess.messages)-messageCap:])
	}
	sess.updatedAt = s.now()
}

// GetRecent returns up to limit most recent messages of a session, oldest
// first. Unknown sessions yield nothing; limit below one means the default.
func (s *Store) GetRecent(id string, limit int) []core.ChatMessage {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	messages := sess.messages
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return slices.Clone(messages)
}

// Clear removes a session and reports whether it existed.
func (s *Store) Clear(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	s.logger.Info("session cleared", "conversationId", id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepExpired removes sessions whose last update is older than idleFor and
// returns how many went. A non-positive idleFor disables the sweep.
func (s *Store) SweepExpired(idleFor time.Duration) int {
	if idleFor <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idleFor)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastUpdate().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", "count", removed)
	}
	return removed
}

// SweepExcess evicts the least recently updated sessions until at most max
// remain and returns how many went. A cap below one disables the sweep.
func (s *Store) SweepExcess(max int) int {
	if max < 1 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	excess := len(s.sessions) - max
	if excess <= 0 {
		return 0
	}

	type aged struct {
		id      string
		updated time.Time
	}
	ages := make([]aged, 0, len(s.sessions))
	for id, sess := range s.sessions {
		ages = append(ages, aged{id: id, updated: sess.lastUpdate()})
	}
	slices.SortFunc(ages, func(a, b aged) int {
		if c := a.updated.Compare(b.updated); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	for _, a := range ages[:excess] {
		delete(s.sessions, a.id)
	}
	s.logger.Info("excess sessions removed", "count", excess, "cap", max)
	return excess
}

// Summary describes one session without exposing its messages.
type Summary struct {
	Id                string
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Duration          time.Duration
}

// Summary returns the summary of one session.
func (s *Store) Summary(id string) (Summary, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Summary{}, false
	}
	return sess.summarize(), true
}

func (s *session) summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{
		Id:            s.id,
		TotalMessages: len(s.messages),
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
		Duration:      s.updatedAt.Sub(s.createdAt),
	}
	for _, msg := range s.messages {
		switch msg.Role {
		case core.RoleUser:
			sum.UserMessages++
		case core.RoleAssistant:
			sum.AssistantMessages++
		}
	}
	return sum
}

// List returns session summaries, most recently updated first. A limit
// below one means the default.
func (s *Store) List(limit int) []Summary {
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.RLock()
	summaries := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, sess.summarize())
	}
	s.mu.RUnlock()

	slices.SortFunc(summaries, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Id, b.Id)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// Statistics summarizes the store contents.
type Statistics struct {
	TotalSessions   int
	TotalMessages   int
	AverageMessages float64
	ActiveLastDay   int
}

// Statistics reports store-wide counts and how many sessions saw activity
// inside the last day.
func (s *Store) Statistics() Statistics {
	cutoff := s.now().Add(-activityWindow)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{TotalSessions: len(s.sessions)}
	for _, sess := range s.sessions {
		sess.mu.Lock()
		stats.TotalMessages += len(sess.messages)
		if sess.updatedAt.After(cutoff) {
			stats.ActiveLastDay++
		}
		sess.mu.Unlock()
	}
	if stats.TotalSessions > 0 {
		stats.AverageMessages = float64(stats.TotalMessages) / float64(stats.TotalSessions)
	}
	return stats
}
