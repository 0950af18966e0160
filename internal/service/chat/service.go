package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/metrics"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message has neither text nor attachment")
)

// DefaultTitle is used when a session starts without text or attachment name.
const DefaultTitle = "New Chat"

// TitleSeedRunes is the length of the provisional title taken from the first message.
const TitleSeedRunes = 30

const subscriberBuffer = 16

// Service encapsulates conversation state management. Every mutation replaces
// the session value and its message slice, so readers holding an older copy
// are never affected.
type Service struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]chat.Session
	order    []string
	current  string

	subMu       sync.Mutex
	subscribers map[string]map[int]chan chat.Message
	nextSubID   int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(logger) }
}

// WithMetrics attaches metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService bootstraps the in-memory session store.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:      zap.NewNop(),
		now:         time.Now,
		sessions:    make(map[string]chat.Session),
		subscribers: make(map[string]map[int]chan chat.Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID returns a fresh time-ordered session identifier.
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// StartOrContinue switches the current session. An empty id clears it so the
// next send starts a new chat.
func (s *Service) StartOrContinue(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		s.current = ""
		return nil
	}
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.current = sessionID
	return nil
}

// Current returns the current session id, or "" when none is selected.
func (s *Service) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) activate(sessionID string) {
	s.mu.Lock()
	s.current = sessionID
	s.mu.Unlock()
}

// AppendUserMessage appends msg to the session, creating it when missing. It
// returns the transcript as it stood just before the append.
func (s *Service) AppendUserMessage(_ context.Context, sessionID string, msg chat.Message) ([]chat.Message, bool, error) {
	if sessionID == "" {
		return nil, false, ErrSessionNotFound
	}
	if !msg.HasContent() {
		return nil, false, ErrEmptyMessage
	}
	msg = s.stamp(sessionID, chat.RoleUser, msg)

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	created := !ok
	if created {
		session = chat.Session{
			ID:        sessionID,
			Title:     seedTitle(msg),
			CreatedAt: msg.CreatedAt,
		}
		s.order = append(s.order, sessionID)
	}
	prior := session.Messages
	session.Messages = appendCopy(prior, msg)
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.metrics.MessageAppended(string(chat.RoleUser))
	s.publish(sessionID, msg)
	if created {
		s.logger.Debug("session created", zap.String("session_id", sessionID))
	}
	return cloneMessages(prior), created, nil
}

// AppendModelMessage appends a reply to an existing session.
func (s *Service) AppendModelMessage(_ context.Context, sessionID string, msg chat.Message) (chat.Message, error) {
	msg = s.stamp(sessionID, chat.RoleModel, msg)

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return chat.Message{}, ErrSessionNotFound
	}
	session.Messages = appendCopy(session.Messages, msg)
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.metrics.MessageAppended(string(chat.RoleModel))
	s.publish(sessionID, msg)
	return msg, nil
}

// Retitle replaces the title; it reports false when the session is gone.
func (s *Service) Retitle(_ context.Context, sessionID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	session.Title = title
	s.sessions[sessionID] = session
	return true
}

// List returns session summaries in creation order.
func (s *Service) List(_ context.Context) []chat.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sessions[id].Summary())
	}
	return out
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	session.Messages = cloneMessages(session.Messages)
	return session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneMessages(session.Messages), nil
}

// Subscribe streams messages appended to sessionID from now on. A subscriber
// that falls behind loses messages rather than blocking appends. Call cancel
// to release the channel.
func (s *Service) Subscribe(sessionID string) (<-chan chat.Message, func()) {
	ch := make(chan chat.Message, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	if s.subscribers[sessionID] == nil {
		s.subscribers[sessionID] = make(map[int]chan chat.Message)
	}
	s.subscribers[sessionID][id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers[sessionID], id)
			if len(s.subscribers[sessionID]) == 0 {
				delete(s.subscribers, sessionID)
			}
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publish(sessionID string, msg chat.Message) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			s.logger.Warn("dropping message for slow subscriber",
				zap.String("session_id", sessionID),
				zap.String("message_id", msg.ID))
		}
	}
}

func (s *Service) stamp(sessionID string, role chat.Role, msg chat.Message) chat.Message {
	msg.ID = uuid.NewString()
	msg.SessionID = sessionID
	msg.Role = role
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	return msg
}

// seedTitle is the provisional title until a generated one arrives.
func seedTitle(msg chat.Message) string {
	if title := truncateRunes(msg.Text, TitleSeedRunes); strings.TrimSpace(title) != "" {
		return title
	}
	if msg.Attachment != nil && msg.Attachment.Name != "" {
		return msg.Attachment.Name
	}
	return DefaultTitle
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// appendCopy never writes into the backing array of messages.
func appendCopy(messages []chat.Message, msg chat.Message) []chat.Message {
	out := make([]chat.Message, len(messages), len(messages)+1)
	copy(out, messages)
	return append(out, msg)
}

func cloneMessages(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, len(messages))
	copy(out, messages)
	return out
}
