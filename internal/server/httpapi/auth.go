package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"oftalmo/internal/server/service"
	"oftalmo/internal/shared/models"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body models.LoginRequest
	if !r.decodeJSON(w, req, &body) {
		return
	}
	resp, err := r.services.Auth.Login(req.Context(), body)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Email e senha são obrigatórios")
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		r.logger.Info("login rejected", zap.String("request_id", requestIDFrom(req.Context())))
		writeError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	case err != nil:
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
