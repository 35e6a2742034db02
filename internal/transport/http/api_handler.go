package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/certificate"
	"marketing-quiz-service/internal/domain"
)

// APIHandler serves the read-only REST endpoints.
type APIHandler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewAPIHandler(service *app.QuizService, log *zap.Logger) *APIHandler {
	return &APIHandler{service: service, log: log}
}

type quizResponse struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	Questions []domain.QuestionView `json:"questions"`
}

type healthResponse struct {
	Status       string `json:"status"`
	LiveSessions *int   `json:"liveSessions,omitempty"`
}

// Health reports liveness and the live session count when it can be read.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if live, err := h.service.LiveSessions(r.Context()); err != nil {
		h.log.Warn("live session count failed", zap.Error(err))
	} else {
		resp.LiveSessions = &live
	}
	writeJSON(w, http.StatusOK, resp)
}

// Quiz returns the bank without answers.
func (h *APIHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	bank, err := h.service.Bank(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{ID: bank.ID, Title: bank.Title, Questions: bank.Public()})
}

func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// SessionCertificate renders the certificate of a live session on the result screen.
func (h *APIHandler) SessionCertificate(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	cert, err := session.Certificate()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeCertificate(w, cert)
}

// StoredCertificate renders the certificate from a stored result row.
func (h *APIHandler) StoredCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.StoredCertificate(r.Context(), chi.URLParam(r, "roll"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeCertificate(w, cert)
}

func (h *APIHandler) writeCertificate(w http.ResponseWriter, cert domain.Certificate) {
	var buf bytes.Buffer
	if err := certificate.Render(&buf, cert); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+certificate.FileName(cert.RollNumber)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error(), Code: errorCode(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoResult):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
