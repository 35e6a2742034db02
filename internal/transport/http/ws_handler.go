package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WSHandler serves the session and leaderboard sockets.
type WSHandler struct {
	service  *app.QuizService
	metrics  *metrics.Metrics
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, m *metrics.Metrics, origins originPolicy, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		metrics: m,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Option     string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ServeSession gives the connection its own quiz session. Closing the socket
// ends the session and discards any unsaved progress.
func (h *WSHandler) ServeSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.NewSession(r.Context())
	if err != nil {
		h.log.Error("open session failed", zap.Error(err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	defer h.service.EndSession(session.ID())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	h.opened("session")
	defer h.closed("session")

	log := h.log.With(zap.String("session_id", session.ID()))
	views, cancel := session.Subscribe()

	out := newOutbox(conn, log)
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for view := range views {
			if !out.send(outboundMessage[any]{Type: "view", Payload: view}) {
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("ws read error", zap.Error(err))
			}
			break
		}
		if err := h.service.TouchSession(r.Context(), session.ID()); err != nil {
			log.Debug("session touch failed", zap.Error(err))
		}
		if err := h.dispatch(session, inbound); err != nil {
			out.send(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: errorCode(err)}})
		}
	}

	cancel()
	<-forwardDone
	out.close()
}

func (h *WSHandler) dispatch(session *app.Session, msg inboundMessage) error {
	switch msg.Type {
	case "start":
		return session.Start()
	case "register":
		var identity domain.Identity
		if err := json.Unmarshal(msg.Payload, &identity); err != nil {
			return errInvalidPayload
		}
		return session.Register(identity)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.Answer(payload.QuestionID, payload.Option)
	case "home":
		return session.Home()
	case "leaderboard":
		return session.OpenLeaderboard()
	default:
		return errUnsupportedType
	}
}

// ServeLeaderboard streams live rankings. The feed subscription is held for
// exactly as long as the socket is open.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	h.opened("leaderboard")
	defer h.closed("leaderboard")

	updates, cancel, err := h.service.SubscribeLeaderboard(r.Context())
	if err != nil {
		h.log.Error("leaderboard subscription failed", zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: "unavailable"}})
		return
	}
	defer cancel()

	out := newOutbox(conn, h.log)
	forwardDone := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for {
			select {
			case lb, ok := <-updates:
				if !ok {
					return
				}
				if !out.send(outboundMessage[any]{Type: "leaderboard", Payload: lb}) {
					return
				}
			case <-readerDone:
				return
			}
		}
	}()

	// Inbound frames are ignored; reading detects the close.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	close(readerDone)
	<-forwardDone
	out.close()
}

func (h *WSHandler) opened(kind string) {
	if h.metrics != nil {
		h.metrics.SocketOpened(kind)
	}
}

func (h *WSHandler) closed(kind string) {
	if h.metrics != nil {
		h.metrics.SocketClosed(kind)
	}
}

// outbox serialises writes onto one connection and keeps it alive with pings.
type outbox struct {
	conn *websocket.Conn
	log  *zap.Logger
	ch   chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(conn *websocket.Conn, log *zap.Logger) *outbox {
	o := &outbox{
		conn: conn,
		log:  log,
		ch:   make(chan outboundMessage[any], 16),
		done: make(chan struct{}),
	}
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go o.run()
	return o
}

func (o *outbox) run() {
	defer close(o.done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-o.ch:
			if !ok {
				return
			}
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteJSON(msg); err != nil {
				o.log.Debug("ws write error", zap.Error(err))
				// Unblocks the reader so the handler can wind down.
				_ = o.conn.Close()
				return
			}
		case <-ticker.C:
			if err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = o.conn.Close()
				return
			}
		}
	}
}

// send queues msg; it reports false once the writer has stopped.
func (o *outbox) send(msg outboundMessage[any]) bool {
	select {
	case o.ch <- msg:
		return true
	case <-o.done:
		return false
	}
}

// close flushes queued messages and waits for the writer. All senders must
// have returned.
func (o *outbox) close() {
	close(o.ch)
	<-o.done
}

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrIdentityIncomplete):
		return "identity_incomplete"
	case errors.Is(err, domain.ErrCheckInFlight):
		return "check_in_flight"
	case errors.Is(err, domain.ErrFeedbackPending):
		return "answer_locked"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "question_not_found"
	case errors.Is(err, domain.ErrOptionNotFound):
		return "option_not_found"
	case errors.Is(err, domain.ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrResultNotFound):
		return "result_not_found"
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz_not_found"
	case errors.Is(err, domain.ErrNoResult):
		return "no_result"
	case errors.Is(err, errInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, errUnsupportedType):
		return "unsupported_type"
	default:
		return "internal"
	}
}
