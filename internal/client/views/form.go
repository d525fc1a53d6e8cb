package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"oftalmo/internal/client/api"
	"oftalmo/internal/shared/models"
)

const (
	MsgPatientNotSelected = "Paciente não selecionado"
	MsgPatientNotFound    = "Paciente não encontrado"
	MsgPatientLoadFailed  = "Erro ao carregar dados do paciente"
	MsgConsultationSaved  = "Consulta salva com sucesso!"
	MsgConsultationFailed = "Erro ao salvar consulta"

	LabelSubmit     = "Salvar Consulta"
	LabelSubmitting = "Salvando..."

	// RedirectAfterSave is where a saved consultation sends the practitioner.
	RedirectAfterSave = "/consultas"
)

var (
	ErrNoPatient      = errors.New("no patient selected")
	ErrUnknownField   = errors.New("unknown consultation field")
	ErrSubmitInFlight = errors.New("submission already in progress")
)

// FormField describes one free-text input of the consultation form.
type FormField struct {
	Name    string
	Label   string
	Section string
}

// ConsultationFields lists the form inputs in display order.
var ConsultationFields = []FormField{
	{Name: "anamnese", Label: "Anamnese", Section: "Anamnese"},
	{Name: "acuidade_visual_od", Label: "Acuidade Visual OD", Section: "Exame Físico"},
	{Name: "acuidade_visual_oe", Label: "Acuidade Visual OE", Section: "Exame Físico"},
	{Name: "pressao_intraocular_od", Label: "Pressão Intraocular OD (mmHg)", Section: "Exame Físico"},
	{Name: "pressao_intraocular_oe", Label: "Pressão Intraocular OE (mmHg)", Section: "Exame Físico"},
	{Name: "exame_fisico", Label: "Outros achados do exame físico", Section: "Exame Físico"},
	{Name: "diagnostico", Label: "Diagnóstico", Section: "Diagnóstico"},
	{Name: "plano_tratamento", Label: "Plano de Tratamento", Section: "Plano de Tratamento"},
	{Name: "observacoes", Label: "Observações", Section: "Observações"},
}

func isConsultationField(name string) bool {
	for _, f := range ConsultationFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

type ConsultationClient interface {
	GetPatient(ctx context.Context, id string) (models.Patient, error)
	CreateConsultation(ctx context.Context, body models.NewConsultation) (models.Consultation, error)
}

// Redirect asks the shell to open Path once After has elapsed.
type Redirect struct {
	Path  string
	After time.Duration
}

// ConsultationForm collects a new consultation for one patient.
type ConsultationForm struct {
	mu            sync.Mutex
	client        ConsultationClient
	log           *zap.Logger
	patientID     string
	patient       *models.Patient
	values        map[string]string
	submitting    bool
	errMsg        string
	successMsg    string
	redirectDelay time.Duration
}

func NewConsultationForm(client ConsultationClient, patientID string, redirectDelay time.Duration, log *zap.Logger) *ConsultationForm {
	if log == nil {
		log = zap.NewNop()
	}
	values := make(map[string]string, len(ConsultationFields))
	for _, f := range ConsultationFields {
		values[f.Name] = ""
	}
	return &ConsultationForm{
		client:        client,
		log:           log,
		patientID:     strings.TrimSpace(patientID),
		values:        values,
		redirectDelay: redirectDelay,
	}
}

// HasTarget reports whether a patient was supplied. Without one the view
// only prompts the practitioner to pick a patient.
func (f *ConsultationForm) HasTarget() bool {
	return f.patientID != ""
}

// Mount loads the target patient once.
func (f *ConsultationForm) Mount(ctx context.Context) error {
	if !f.HasTarget() {
		return nil
	}
	p, err := f.client.GetPatient(ctx, f.patientID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		if api.IsStatus(err) {
			f.errMsg = MsgPatientNotFound
		} else {
			f.errMsg = MsgPatientLoadFailed
		}
		f.log.Warn("patient lookup failed", zap.String("patient_id", f.patientID), zap.Error(err))
		return err
	}
	f.patient = &p
	return nil
}

// Set updates one field.
func (f *ConsultationForm) Set(name, value string) error {
	if !isConsultationField(name) {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	return nil
}

func (f *ConsultationForm) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Body merges the integer patient id with every field value.
func (f *ConsultationForm) Body() (models.NewConsultation, error) {
	if !f.HasTarget() {
		return models.NewConsultation{}, ErrNoPatient
	}
	id, err := strconv.ParseInt(f.patientID, 10, 64)
	if err != nil {
		return models.NewConsultation{}, fmt.Errorf("patient id %q: %w", f.patientID, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.NewConsultation{
		IDPaciente:           id,
		Anamnese:             f.values["anamnese"],
		ExameFisico:          f.values["exame_fisico"],
		AcuidadeVisualOD:     f.values["acuidade_visual_od"],
		AcuidadeVisualOE:     f.values["acuidade_visual_oe"],
		PressaoIntraocularOD: f.values["pressao_intraocular_od"],
		PressaoIntraocularOE: f.values["pressao_intraocular_oe"],
		Diagnostico:          f.values["diagnostico"],
		PlanoTratamento:      f.values["plano_tratamento"],
		Observacoes:          f.values["observacoes"],
	}, nil
}

// Submit sends the form. On success it returns the redirect to follow.
func (f *ConsultationForm) Submit(ctx context.Context) (*Redirect, error) {
	body, err := f.Body()
	if err != nil {
		f.mu.Lock()
		f.errMsg = MsgConsultationFailed
		f.mu.Unlock()
		return nil, err
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.submitting = true
	f.errMsg = ""
	f.successMsg = ""
	f.mu.Unlock()

	created, err := f.client.CreateConsultation(ctx, body)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.errMsg = api.ClientMessage(err, MsgConsultationFailed)
		f.log.Warn("consultation not saved", zap.Int64("patient_id", body.IDPaciente), zap.Error(err))
		return nil, err
	}
	f.successMsg = MsgConsultationSaved
	f.log.Info("consultation saved", zap.Int64("consultation_id", created.ID), zap.Int64("patient_id", body.IDPaciente))
	return &Redirect{Path: RedirectAfterSave, After: f.redirectDelay}, nil
}

func (f *ConsultationForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// SubmitLabel is the submit control's text for the current state.
func (f *ConsultationForm) SubmitLabel() string {
	if f.Submitting() {
		return LabelSubmitting
	}
	return LabelSubmit
}

func (f *ConsultationForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *ConsultationForm) Success() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successMsg
}

func (f *ConsultationForm) Patient() (models.Patient, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patient == nil {
		return models.Patient{}, false
	}
	return *f.patient, true
}

func (f *ConsultationForm) Render(w io.Writer) {
	fmt.Fprintln(w, "Nova Consulta")
	if !f.HasTarget() {
		fmt.Fprintln(w, MsgPatientNotSelected)
		fmt.Fprintln(w, "Vá para a lista de pacientes e selecione um paciente para iniciar uma nova consulta.")
		fmt.Fprintln(w, "  oftalmo pacientes")
		return
	}
	if p, ok := f.Patient(); ok {
		fmt.Fprintf(w, "Paciente: %s\n", p.NomeCompleto)
	}
	if msg := f.Error(); msg != "" {
		fmt.Fprintf(w, "Erro: %s\n", msg)
	}
	if msg := f.Success(); msg != "" {
		fmt.Fprintln(w, msg)
	}

	section := ""
	for _, field := range ConsultationFields {
		if field.Section != section {
			section = field.Section
			fmt.Fprintf(w, "\n[%s]\n", section)
		}
		fmt.Fprintf(w, "  %s: %s\n", field.Label, orDash(f.Value(field.Name)))
	}
	fmt.Fprintf(w, "\n[%s]\n", f.SubmitLabel())
}
