package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"oftalmo/internal/server/service"
	"oftalmo/internal/shared/models"
)

func (r *Router) handleDashboardStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.services.Dashboard.Stats(req.Context())
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (r *Router) handleListPatients(w http.ResponseWriter, req *http.Request) {
	page, err := r.services.Patients.List(req.Context(),
		req.URL.Query().Get("search"),
		queryInt(req, "page", 1),
		queryInt(req, "per_page", service.DefaultPerPage),
	)
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (r *Router) handleGetPatient(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "Paciente não encontrado")
		return
	}
	p, err := r.services.Patients.Get(req.Context(), id)
	if errors.Is(err, service.ErrPatientNotFound) {
		writeError(w, http.StatusNotFound, "Paciente não encontrado")
		return
	}
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PatientEnvelope{Paciente: p})
}

func (r *Router) handleCreatePatient(w http.ResponseWriter, req *http.Request) {
	var body models.NewPatient
	if !r.decodeJSON(w, req, &body) {
		return
	}
	p, err := r.services.Patients.Create(req.Context(), body)
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "Nome, CPF, data de nascimento e sexo são obrigatórios")
		return
	}
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (r *Router) handleListConsultations(w http.ResponseWriter, req *http.Request) {
	page, err := r.services.Consultations.List(req.Context(),
		queryInt(req, "page", 1),
		queryInt(req, "per_page", service.DefaultPerPage),
	)
	if err != nil {
		r.internalError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (r *Router) handleCreateConsultation(w http.ResponseWriter, req *http.Request) {
	var body models.NewConsultation
	if !r.decodeJSON(w, req, &body) {
		return
	}
	c, err := r.services.Consultations.Create(req.Context(), body)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "ID do paciente é obrigatório")
		return
	case errors.Is(err, service.ErrPatientNotFound):
		writeError(w, http.StatusBadRequest, "Paciente não encontrado")
		return
	case err != nil:
		r.internalError(w, req, err)
		return
	}
	r.logger.Info("consultation created",
		zap.Int64("consultation_id", c.ID),
		zap.Int64("patient_id", c.IDPaciente),
		zap.Int64("user_id", getUserID(req.Context())),
	)
	writeJSON(w, http.StatusCreated, c)
}
