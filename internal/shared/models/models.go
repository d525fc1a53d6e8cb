package models

// User is the authenticated practitioner returned by the login endpoint.
type User struct {
	ID           int64  `json:"id"`
	NomeCompleto string `json:"nome_completo"`
	CRM          string `json:"crm"`
	Email        string `json:"email"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required"`
	Senha string `json:"senha" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type Patient struct {
	ID             int64  `json:"id"`
	NomeCompleto   string `json:"nome_completo"`
	CPF            string `json:"cpf"`
	DataNascimento string `json:"data_nascimento"`
	Sexo           string `json:"sexo"`
	Telefone       string `json:"telefone,omitempty"`
	Email          string `json:"email,omitempty"`
	Endereco       string `json:"endereco,omitempty"`
}

// PatientSummary is embedded in consultation listings.
type PatientSummary struct {
	ID           int64  `json:"id"`
	NomeCompleto string `json:"nome_completo"`
}

type Consultation struct {
	ID                   int64           `json:"id"`
	IDPaciente           int64           `json:"id_paciente"`
	DataConsulta         string          `json:"data_consulta"`
	Anamnese             string          `json:"anamnese,omitempty"`
	ExameFisico          string          `json:"exame_fisico,omitempty"`
	AcuidadeVisualOD     string          `json:"acuidade_visual_od,omitempty"`
	AcuidadeVisualOE     string          `json:"acuidade_visual_oe,omitempty"`
	PressaoIntraocularOD string          `json:"pressao_intraocular_od,omitempty"`
	PressaoIntraocularOE string          `json:"pressao_intraocular_oe,omitempty"`
	Diagnostico          string          `json:"diagnostico,omitempty"`
	PlanoTratamento      string          `json:"plano_tratamento,omitempty"`
	Observacoes          string          `json:"observacoes,omitempty"`
	Paciente             *PatientSummary `json:"paciente,omitempty"`
}

// NewConsultation is the create body. Every text field is always sent,
// empty when the practitioner left it blank.
type NewConsultation struct {
	IDPaciente           int64  `json:"id_paciente" validate:"required,gt=0"`
	Anamnese             string `json:"anamnese"`
	ExameFisico          string `json:"exame_fisico"`
	AcuidadeVisualOD     string `json:"acuidade_visual_od"`
	AcuidadeVisualOE     string `json:"acuidade_visual_oe"`
	PressaoIntraocularOD string `json:"pressao_intraocular_od"`
	PressaoIntraocularOE string `json:"pressao_intraocular_oe"`
	Diagnostico          string `json:"diagnostico"`
	PlanoTratamento      string `json:"plano_tratamento"`
	Observacoes          string `json:"observacoes"`
}

type PatientPage struct {
	Pacientes   []Patient `json:"pacientes"`
	Pages       int       `json:"pages"`
	Total       int       `json:"total,omitempty"`
	CurrentPage int       `json:"current_page,omitempty"`
}

type PatientEnvelope struct {
	Paciente Patient `json:"paciente"`
}

type ConsultationPage struct {
	Consultas   []Consultation `json:"consultas"`
	Pages       int            `json:"pages"`
	Total       int            `json:"total,omitempty"`
	CurrentPage int            `json:"current_page,omitempty"`
}

type DashboardStats struct {
	ConsultasHoje   int `json:"consultas_hoje"`
	TotalPacientes  int `json:"total_pacientes"`
	ConsultasSemana int `json:"consultas_semana"`
}

// ErrorResponse is the body the API sends with a non-success status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewPatient is the create body of the patient endpoint.
type NewPatient struct {
	NomeCompleto   string `json:"nome_completo" validate:"required"`
	CPF            string `json:"cpf" validate:"required"`
	DataNascimento string `json:"data_nascimento" validate:"required"`
	Sexo           string `json:"sexo" validate:"required"`
	Telefone       string `json:"telefone"`
	Email          string `json:"email"`
	Endereco       string `json:"endereco"`
}
