package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"oftalmo/internal/server/service"
	"oftalmo/internal/shared/models"
)

type Router struct {
	services        *service.Services
	logger          *zap.Logger
	maxRequestBytes int64
}

func NewRouter(services *service.Services, logger *zap.Logger, maxRequestBytes int64) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{services: services, logger: logger, maxRequestBytes: maxRequestBytes}
	mux := chi.NewRouter()
	mux.Use(r.requestID)
	mux.Use(r.accessLog)
	mux.Use(middleware.Recoverer)

	mux.Get("/health", r.handleHealth)
	mux.Post("/api/login", r.handleLogin)

	mux.Group(func(pr chi.Router) {
		pr.Use(r.authMiddleware)
		pr.Get("/api/dashboard/stats", r.handleDashboardStats)
		pr.Get("/api/pacientes", r.handleListPatients)
		pr.Post("/api/pacientes", r.handleCreatePatient)
		pr.Get("/api/pacientes/{id}", r.handleGetPatient)
		pr.Get("/api/consultas", r.handleListConsultations)
		pr.Post("/api/consultas", r.handleCreateConsultation)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v.
func (r *Router) decodeJSON(w http.ResponseWriter, req *http.Request, v any) bool {
	body := req.Body
	if r.maxRequestBytes > 0 {
		body = http.MaxBytesReader(w, req.Body, r.maxRequestBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Requisição muito grande")
			return false
		}
		writeError(w, http.StatusBadRequest, "Corpo da requisição ilegível")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return false
	}
	return true
}

// queryInt returns the positive integer query parameter name, or def.
func queryInt(req *http.Request, name string, def int) int {
	v, err := strconv.Atoi(req.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// internalError logs err and answers 500 without leaking details.
func (r *Router) internalError(w http.ResponseWriter, req *http.Request, err error) {
	r.logger.Error("request failed",
		zap.String("request_id", requestIDFrom(req.Context())),
		zap.String("path", req.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Erro interno do servidor")
}
