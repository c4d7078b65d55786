package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"quiz-analytics-service/internal/app"
	"quiz-analytics-service/internal/domain"
)

// Handler exposes the scoring and analytics use cases over JSON.
type Handler struct {
	service *app.AnalyticsService
}

func NewHandler(service *app.AnalyticsService) *Handler {
	return &Handler{service: service}
}

// Register mounts the REST routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /attempts", h.submitAttempt)
	mux.HandleFunc("GET /participants", h.listParticipants)
	mux.HandleFunc("GET /participants/{name}/stats", h.participantStats)
	mux.HandleFunc("GET /results", h.listResults)
	mux.HandleFunc("DELETE /results/{id}", h.deleteResult)
}

type attemptRequest struct {
	QuizID      string                            `json:"quizId"`
	Participant domain.Participant                `json:"participant"`
	Answers     map[string]domain.SubmittedAnswer `json:"answers"`
	StartTime   time.Time                         `json:"startTime"`
	EndTime     time.Time                         `json:"endTime"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt payload")
		return
	}
	if req.QuizID == "" || req.Participant.Name == "" {
		writeError(w, http.StatusBadRequest, "missing quizId or participant name")
		return
	}

	result, err := h.service.SubmitAttempt(r.Context(), app.Submission{
		QuizID:      req.QuizID,
		Participant: req.Participant,
		Answers:     req.Answers,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) participantStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.ParticipantStats(r.Context(), r.PathValue("name"))
	if err != nil {
		log.Printf("participant stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	// nil stats means "no data to show", not an error.
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) listParticipants(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.Participants(r.Context())
	if err != nil {
		log.Printf("list participants: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context())
	if err != nil {
		log.Printf("list results: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if results == nil {
		results = []domain.QuizResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) deleteResult(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteResult(r.Context(), r.PathValue("id"))
	if errors.Is(err, domain.ErrResultNotFound) {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		log.Printf("delete result: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete result")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeSubmitError maps grading failures onto HTTP statuses. Configuration
// errors surface as a generic message: they are authoring defects, not
// participant mistakes.
func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case domain.IsConfiguration(err):
		writeError(w, http.StatusUnprocessableEntity, "cannot grade this quiz")
	default:
		log.Printf("submit attempt: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record attempt")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}
