// Package bridge implements the per-call relay between a telephony
// media-stream connection and a realtime conversational-audio backend.
package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/telvoice/bridge/internal/openai"
	"github.com/telvoice/bridge/internal/telephony"
)

// Mode selects how a session treats inbound caller audio.
type Mode string

const (
	// ModeBridge relays audio between the caller and the backend.
	ModeBridge Mode = "bridge"

	// ModeLoopback echoes caller audio straight back without contacting
	// the backend. Used to validate the telephony transport in isolation.
	ModeLoopback Mode = "loopback"
)

// State is the session lifecycle position. A session moves from
// StateAwaitingStart through StateActive to StateClosed, never backwards.
type State int

const (
	StateAwaitingStart State = iota
	StateActive
	StateClosed
)

// BackendDialer opens the backend leg for one call and performs its one-time
// session setup.
type BackendDialer interface {
	DialCall(ctx context.Context, prompt string) (*websocket.Conn, error)
}

// Session owns exactly two connections for one call and the relay logic
// between them. Closing either leg always closes the other; a Session never
// leaves a half-open pair behind.
type Session struct {
	id     string
	mode   Mode
	prompt string
	dialer BackendDialer
	logger *zap.Logger

	mu           sync.Mutex
	state        State
	streamSid    string
	backendReady bool
	backend      *websocket.Conn

	telephony      *websocket.Conn
	closeTelephony sync.Once
	closeBackend   sync.Once
}

// NewSession wraps an accepted telephony connection. The session takes
// ownership of conn; the dialer is only used in bridge mode.
func NewSession(conn *websocket.Conn, mode Mode, prompt string, dialer BackendDialer, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		mode:      mode,
		prompt:    prompt,
		dialer:    dialer,
		telephony: conn,
		logger: logger.With(
			zap.String("session_id", id),
			zap.String("mode", string(mode)),
		),
	}
}

// Run drives the session until either leg terminates. It always returns with
// both connections closed.
func (s *Session) Run(ctx context.Context) {
	defer s.terminate()
	s.logger.Info("session started")
	s.telephony.SetReadLimit(maxMessageSize)

	if s.mode == ModeLoopback {
		s.loopbackLoop()
		return
	}
	go s.connectBackend(ctx)
	s.telephonyLoop()
}

// State reports the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamSid reports the stream identifier, empty until a start event has
// been observed. Once set it never changes.
func (s *Session) StreamSid() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSid
}

func (s *Session) backendIsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backendReady
}

// connectBackend resolves the backend leg while the telephony loop is
// already consuming frames. Media arriving before the backend is ready is
// dropped, not buffered.
func (s *Session) connectBackend(ctx context.Context) {
	conn, err := s.dialer.DialCall(ctx, s.prompt)
	if err != nil {
		s.logger.Error("backend connect failed", zap.Error(err))
		s.terminate()
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.backend = conn
	s.backendReady = true
	s.mu.Unlock()

	s.logger.Info("backend connected")
	s.backendLoop(conn)
}

// telephonyLoop consumes frames from the telephony leg in arrival order and
// forwards media toward the backend.
func (s *Session) telephonyLoop() {
	defer s.terminate()
	for {
		_, data, err := s.telephony.ReadMessage()
		if err != nil {
			s.logger.Info("telephony connection closed", zap.Error(err))
			return
		}
		ev, ok := telephony.Decode(data)
		if !ok {
			s.logger.Debug("skipping malformed telephony frame")
			continue
		}
		switch ev.Event {
		case telephony.EventStart:
			s.handleStart(ev)
		case telephony.EventMedia:
			s.forwardMedia(ev)
		case telephony.EventStop:
			s.logger.Info("stop received")
			return
		case telephony.EventConnected, telephony.EventMark:
			// Protocol chatter, nothing to relay.
		default:
			s.logger.Debug("ignoring telephony event", zap.String("event", ev.Event))
		}
	}
}

// backendLoop consumes backend events in arrival order and relays audio
// deltas back to the caller. Every other event type is ignored.
func (s *Session) backendLoop(conn *websocket.Conn) {
	defer s.terminate()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Info("backend connection closed", zap.Error(err))
			return
		}
		ev, ok := openai.DecodeServerEvent(data)
		if !ok {
			s.logger.Debug("skipping malformed backend frame")
			continue
		}
		if ev.Type != openai.TypeResponseAudioDelta || ev.Delta == "" {
			continue
		}
		sid := s.StreamSid()
		if sid == "" {
			continue
		}
		frame, err := telephony.MediaFrame(sid, ev.Delta)
		if err != nil {
			s.logger.Error("encoding media frame", zap.Error(err))
			continue
		}
		if err := s.telephony.WriteMessage(websocket.TextMessage, frame); err != nil {
			s.logger.Info("telephony write failed", zap.Error(err))
			return
		}
	}
}

// loopbackLoop echoes caller media straight back, addressed to the recorded
// stream identifier. The backend leg is never created.
func (s *Session) loopbackLoop() {
	for {
		_, data, err := s.telephony.ReadMessage()
		if err != nil {
			s.logger.Info("telephony connection closed", zap.Error(err))
			return
		}
		ev, ok := telephony.Decode(data)
		if !ok {
			s.logger.Debug("skipping malformed telephony frame")
			continue
		}
		switch ev.Event {
		case telephony.EventStart:
			s.handleStart(ev)
		case telephony.EventMedia:
			if ev.Media == nil {
				continue
			}
			sid := s.StreamSid()
			if sid == "" {
				continue
			}
			frame, err := telephony.MediaFrame(sid, ev.Media.Payload)
			if err != nil {
				continue
			}
			if err := s.telephony.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Info("telephony write failed", zap.Error(err))
				return
			}
		case telephony.EventStop:
			s.logger.Info("stop received")
			return
		}
	}
}

// handleStart records the stream identifier. The identifier is immutable:
// a second start event never overwrites it.
func (s *Session) handleStart(ev *telephony.Event) {
	sid := ev.StreamSid
	if ev.Start != nil && ev.Start.StreamSid != "" {
		sid = ev.Start.StreamSid
	}
	if sid == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamSid != "" || s.state != StateAwaitingStart {
		return
	}
	s.streamSid = sid
	s.state = StateActive
	s.logger.Info("stream started", zap.String("stream_sid", sid))
}

// forwardMedia re-wraps one caller audio chunk in the backend append
// envelope. Frames arriving before the stream is identified and the backend
// handshake has finished are dropped by design.
func (s *Session) forwardMedia(ev *telephony.Event) {
	if ev.Media == nil {
		return
	}
	s.mu.Lock()
	conn := s.backend
	ready := s.backendReady && s.streamSid != "" && s.state == StateActive
	s.mu.Unlock()
	if !ready || conn == nil {
		return
	}
	frame, err := openai.EncodeAudioAppend(ev.Media.Payload)
	if err != nil {
		s.logger.Error("encoding audio append", zap.Error(err))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Info("backend write failed", zap.Error(err))
		s.terminate()
	}
}

// terminate closes both legs, backend first, exactly once each. Safe to call
// from any goroutine any number of times.
func (s *Session) terminate() {
	s.mu.Lock()
	first := s.state != StateClosed
	s.state = StateClosed
	backend := s.backend
	s.mu.Unlock()

	if backend != nil {
		s.closeBackend.Do(func() { backend.Close() })
	}
	s.closeTelephony.Do(func() { s.telephony.Close() })
	if first {
		s.logger.Info("session closed")
	}
}
