package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/mindbloom/backend/internal/config"
	"github.com/zhouzirui/mindbloom/backend/internal/logging"
	"github.com/zhouzirui/mindbloom/backend/internal/model/chat"
	"github.com/zhouzirui/mindbloom/backend/internal/service/ai"
)

// ErrSendInFlight is returned under the reject policy while a previous send
// on the same session has not received its reply.
var ErrSendInFlight = errors.New("a message is already being sent in this session")

// Responder is the part of the AI client the dispatcher needs.
type Responder interface {
	Converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error)
	TitleFor(ctx context.Context, firstMessage string) (string, error)
}

// SendRequest is one user submission.
type SendRequest struct {
	SessionID  string
	Text       string
	Attachment *chat.Attachment
}

// SendResult describes a completed dispatch.
type SendResult struct {
	SessionID string       `json:"sessionId"`
	Created   bool         `json:"created"`
	Reply     chat.Message `json:"reply"`
}

// Dispatcher runs the send flow: gate, append user turn, call the model,
// append the reply and schedule title generation for new sessions.
type Dispatcher struct {
	sessions  *Service
	responder Responder
	policy    string
	timeout   time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	gates map[string]*sendGate

	titles sync.WaitGroup
}

type sendGate struct {
	mu      sync.Mutex
	pending int
	busy    bool
}

// NewDispatcher wires the store and the model. A nil responder makes every
// send produce the fallback reply.
func NewDispatcher(sessions *Service, responder Responder, cfg config.ChatConfig, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	policy := cfg.SendPolicy
	if policy == "" {
		policy = config.SendPolicyReject
	}
	return &Dispatcher{
		sessions:  sessions,
		responder: responder,
		policy:    policy,
		timeout:   timeout,
		logger:    logging.OrNop(logger),
		gates:     make(map[string]*sendGate),
	}
}

// Send dispatches req. It returns ErrEmptyMessage or ErrSendInFlight without
// touching any state; every other failure is turned into a fallback reply.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if strings.TrimSpace(req.Text) == "" && req.Attachment == nil {
		return SendResult{}, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
		d.sessions.activate(sessionID)
	}

	release, err := d.acquire(sessionID)
	if err != nil {
		return SendResult{}, err
	}
	defer release()

	history, created, err := d.sessions.AppendUserMessage(ctx, sessionID, chat.Message{
		Text:       req.Text,
		Attachment: req.Attachment,
	})
	if err != nil {
		return SendResult{}, err
	}

	// 客户端断开不影响回复写入
	callCtx, cancel := d.callContext(ctx)
	text, err := d.converse(callCtx, history, req.Text, req.Attachment)
	cancel()

	reply := chat.Message{Text: text}
	if err != nil {
		d.logger.Warn("ai reply failed, using fallback",
			zap.String("session_id", sessionID),
			zap.Error(err))
		reply = chat.Message{Text: ai.FallbackReply(err), IsError: true}
	}

	stored, err := d.sessions.AppendModelMessage(context.WithoutCancel(ctx), sessionID, reply)
	if err != nil {
		return SendResult{}, err
	}

	if created && strings.TrimSpace(req.Text) != "" {
		d.scheduleTitle(ctx, sessionID, req.Text)
	}

	return SendResult{SessionID: sessionID, Created: created, Reply: stored}, nil
}

// Wait blocks until pending title jobs finish.
func (d *Dispatcher) Wait() {
	d.titles.Wait()
}

func (d *Dispatcher) converse(ctx context.Context, history []chat.Message, text string, attachment *chat.Attachment) (string, error) {
	if d.responder == nil {
		return "", errors.New("ai client is not configured")
	}
	return d.responder.Converse(ctx, history, text, attachment)
}

func (d *Dispatcher) scheduleTitle(ctx context.Context, sessionID, firstMessage string) {
	d.titles.Add(1)
	go func() {
		defer d.titles.Done()

		title := ai.FallbackTitle(firstMessage)
		if d.responder != nil {
			callCtx, cancel := d.callContext(ctx)
			generated, err := d.responder.TitleFor(callCtx, firstMessage)
			cancel()
			if err != nil {
				d.logger.Warn("title generation failed",
					zap.String("session_id", sessionID),
					zap.Error(err))
			} else {
				title = ai.NormalizeTitle(generated, firstMessage)
			}
		}

		if !d.sessions.Retitle(context.Background(), sessionID, title) {
			d.logger.Debug("session gone before title arrived", zap.String("session_id", sessionID))
		}
	}()
}

func (d *Dispatcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if d.timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, d.timeout)
}

// acquire enters the per-session gate according to the send policy.
func (d *Dispatcher) acquire(sessionID string) (func(), error) {
	d.mu.Lock()
	gate, ok := d.gates[sessionID]
	if !ok {
		gate = &sendGate{}
		d.gates[sessionID] = gate
	}

	if d.policy == config.SendPolicyReject {
		if gate.busy {
			d.mu.Unlock()
			return nil, ErrSendInFlight
		}
		gate.busy = true
		d.mu.Unlock()
		return func() { d.leave(sessionID, gate, false) }, nil
	}

	gate.pending++
	d.mu.Unlock()

	gate.mu.Lock()
	return func() { d.leave(sessionID, gate, true) }, nil
}

func (d *Dispatcher) leave(sessionID string, gate *sendGate, queued bool) {
	if queued {
		gate.mu.Unlock()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if queued {
		gate.pending--
	} else {
		gate.busy = false
	}
	if gate.pending == 0 && !gate.busy {
		delete(d.gates, sessionID)
	}
}

// InFlight reports whether a send is pending for sessionID.
func (d *Dispatcher) InFlight(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	gate, ok := d.gates[sessionID]
	return ok && (gate.busy || gate.pending > 0)
}
