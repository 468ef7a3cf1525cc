package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/chamahub/vsla-backend/internal/domain"
)

// NewRouter wires the handler onto a gorilla/mux router. /health is open;
// everything under /api requires a valid bearer token.
func NewRouter(h *Handler, jwtSecret string, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(RequestLogging(log))
	api.Use(AuthMiddleware(jwtSecret))

	api.HandleFunc("/transactions", h.RecordTransaction).Methods("POST")
	api.HandleFunc("/groups", h.CreateGroup).Methods("POST")
	api.HandleFunc("/groups/{id}/members", h.EnrollMember).Methods("POST")
	api.HandleFunc("/groups/{id}/members/summary", h.MemberSummaries).Methods("GET")
	api.HandleFunc("/groups/{id}/metrics", h.GroupMetrics).Methods("GET")
	api.HandleFunc("/groups/{id}/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/groups/{id}/reconcile", h.ReconcileGroup).Methods("POST")
	api.HandleFunc("/members/{id}/role", h.AssignRole).Methods("POST")
	api.HandleFunc("/members/{id}/balance/rebuild", h.RebuildMemberBalance).Methods("POST")

	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		typeErr       *domain.InvalidTypeError
		notFoundErr   *domain.NotFoundError
		invariantErr  *domain.InvariantViolation
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error(), Field: validationErr.Field})
	case errors.As(err, &typeErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: typeErr.Error(), Field: "type"})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &invariantErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: invariantErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
