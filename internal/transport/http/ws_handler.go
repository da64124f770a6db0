package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"whobible-live/internal/app"
	"whobible-live/internal/domain"
)

// WSHandler exposes the game over two websocket endpoints: one for the host
// driving a room and one for players answering in it.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createPayload struct {
	Difficulty      string `json:"difficulty"`
	NumQuestions    int    `json:"numQuestions"`
	TimePerQuestion int    `json:"timePerQuestion"`
}

type answerPayload struct {
	Answer int `json:"answer"`
}

type roomPayload struct {
	Code string `json:"code"`
}

type joinedPayload struct {
	PlayerID string      `json:"playerId"`
	Room     domain.Room `json:"room"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeHost runs the host side of one room: create it, then drive the state
// machine with start/leaderboard/next/end messages. Closing the socket tears
// the room down.
func (h *WSHandler) ServeHost(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// First message must create the room.
	var inbound inboundMessage
	if err := conn.ReadJSON(&inbound); err != nil {
		return
	}
	if inbound.Type != "create" {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "expected create message"}})
		return
	}
	var payload createPayload
	if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid create payload"}})
		return
	}

	session, err := h.service.CreateRoom(r.Context(), domain.Settings{
		Difficulty:      domain.Difficulty(strings.ToLower(payload.Difficulty)),
		NumQuestions:    payload.NumQuestions,
		TimePerQuestion: payload.TimePerQuestion,
	})
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	code := session.Code()
	defer h.service.CloseRoom(r.Context(), code)

	events, cancel, err := h.service.Subscribe(code)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send, done, stop := h.startWriter(conn)
	defer stop()
	go relayEvents(events, send, done, false)

	trySend(send, done, outboundMessage[any]{Type: "room", Payload: roomPayload{Code: code}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		var actionErr error
		switch inbound.Type {
		case "start":
			actionErr = h.service.Start(r.Context(), code)
		case "leaderboard":
			actionErr = h.service.ShowLeaderboard(r.Context(), code)
		case "next":
			actionErr = h.service.NextQuestion(r.Context(), code)
		case "end":
			actionErr = h.service.EndEarly(r.Context(), code)
		default:
			trySend(send, done, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
			continue
		}
		if actionErr != nil {
			trySend(send, done, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: actionErr.Error()}})
		}
	}
}

// ServePlayer joins a player into a room and relays its event stream; the
// only inbound message is an answer to the open question.
func (h *WSHandler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	name := r.URL.Query().Get("name")
	if code == "" || name == "" {
		http.Error(w, "missing code or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	playerID := uuid.New().String()
	if err := h.service.Join(r.Context(), code, playerID, name); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel, err := h.service.Subscribe(code)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send, done, stop := h.startWriter(conn)
	defer stop()
	go relayEvents(events, send, done, true)

	room, err := h.service.Snapshot(code)
	if err == nil {
		trySend(send, done, outboundMessage[any]{Type: "joined", Payload: joinedPayload{PlayerID: playerID, Room: redactRoom(room)}})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				trySend(send, done, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), code, playerID, payload.Answer); err != nil {
				trySend(send, done, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			trySend(send, done, outboundMessage[any]{Type: "answerAck", Payload: answerPayload{Answer: payload.Answer}})
		default:
			trySend(send, done, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

// startWriter serializes all writes through one goroutine so concurrent
// event relays and command replies never interleave on the socket. done
// closes when either side stops; callers must defer the returned stop.
func (h *WSHandler) startWriter(conn *websocket.Conn) (chan outboundMessage[any], chan struct{}, func()) {
	send := make(chan outboundMessage[any], 16)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		defer stop()
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					// Tear the connection down so the read loop unblocks
					// instead of queueing into a dead writer.
					conn.Close()
					return
				}
			case <-done:
				return
			}
		}
	}()
	return send, done, stop
}

// trySend queues a message unless the connection is shutting down.
func trySend(send chan outboundMessage[any], done chan struct{}, msg outboundMessage[any]) {
	select {
	case send <- msg:
	case <-done:
	}
}

// relayEvents forwards session events to the writer. Player connections get
// a redacted view so correct answers never leave the server early.
func relayEvents(events <-chan app.Event, send chan outboundMessage[any], done chan struct{}, redact bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if redact && ev.Kind != app.EventResults && ev.Kind != app.EventFinished {
				ev.Room = redactRoom(ev.Room)
			}
			select {
			case send <- outboundMessage[any]{Type: string(ev.Kind), Payload: ev}:
			case <-done:
				return
			}
		case <-done:
			return
		}
	}
}

// redactRoom strips correct answers and other players' responses from a
// room snapshot.
func redactRoom(room domain.Room) domain.Room {
	if len(room.Questions) > 0 {
		questions := make([]domain.Question, len(room.Questions))
		copy(questions, room.Questions)
		for i := range questions {
			questions[i].Correct = ""
		}
		room.Questions = questions
	}
	room.Responses = nil
	return room
}
