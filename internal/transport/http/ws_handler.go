package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-analytics-service/internal/app"
	"quiz-analytics-service/internal/domain"
)

// WSHandler streams live stats updates over a websocket. A client connects
// with ?participant=NAME to follow one series (or no filter for all), may
// push attempts inline, and receives a refreshed stats snapshot after every
// graded submission.
type WSHandler struct {
	service  *app.AnalyticsService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AnalyticsService) *WSHandler {
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the connection and bridges it onto the stats feed.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	participant := r.URL.Query().Get("participant")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe(participant)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "stats", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Initial snapshot so dashboards render before the first submission.
	if participant != "" {
		if snapshot, err := h.service.ParticipantStats(r.Context(), participant); err == nil {
			send <- outboundMessage[any]{Type: "snapshot", Payload: snapshot}
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "attempt":
			var payload attemptRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid attempt payload"}}
				continue
			}
			result, err := h.service.SubmitAttempt(r.Context(), app.Submission{
				QuizID:      payload.QuizID,
				Participant: payload.Participant,
				Answers:     payload.Answers,
				StartTime:   payload.StartTime,
				EndTime:     payload.EndTime,
			})
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: submitErrorMessage(err)}}
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// submitErrorMessage mirrors the REST mapping: authoring defects get a
// generic message instead of leaking grading internals.
func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case domain.IsConfiguration(err):
		return "cannot grade this quiz"
	default:
		return "failed to record attempt"
	}
}
