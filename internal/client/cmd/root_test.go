package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oftalmo/internal/shared/models"
)

type fakeBackend struct {
	mu      sync.Mutex
	created []models.NewConsultation
	queries []string
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer jwt-1" {
				write(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Token inválido"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email != "ana@clinica.com" || req.Senha != "segredo" {
			write(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Credenciais inválidas"})
			return
		}
		write(w, http.StatusOK, models.LoginResponse{
			Token: "jwt-1",
			User:  models.User{ID: 1, NomeCompleto: "Ana Souza", CRM: "12345"},
		})
	})
	mux.HandleFunc("/api/dashboard/stats", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, models.DashboardStats{ConsultasHoje: 1, TotalPacientes: 2, ConsultasSemana: 3})
	}))
	mux.HandleFunc("/api/pacientes", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		f.mu.Unlock()
		write(w, http.StatusOK, models.PatientPage{
			Pacientes: []models.Patient{{ID: 42, NomeCompleto: "João Lima", CPF: "111"}},
			Pages:     1,
		})
	}))
	mux.HandleFunc("/api/pacientes/42", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, models.PatientEnvelope{Paciente: models.Patient{ID: 42, NomeCompleto: "João Lima"}})
	}))
	mux.HandleFunc("/api/consultas", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			var body models.NewConsultation
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			f.mu.Lock()
			f.created = append(f.created, body)
			f.mu.Unlock()
			write(w, http.StatusCreated, models.Consultation{ID: 7, IDPaciente: body.IDPaciente})
			return
		}
		write(w, http.StatusOK, models.ConsultationPage{
			Consultas: []models.Consultation{{ID: 7, DataConsulta: "2024-05-02T10:00:00", Paciente: &models.PatientSummary{ID: 42, NomeCompleto: "João Lima"}}},
			Pages:     1,
		})
	}))
	return mux
}

func setupEnv(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("OFTALMO_SESSION_DIR", t.TempDir())
	t.Setenv("OFTALMO_LOG_LEVEL", "error")
	t.Setenv("OFTALMO_ENV", "test")
	t.Setenv("OFTALMO_REDIRECT_DELAY", "0s")

	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler(t))
	t.Cleanup(srv.Close)
	return fb, srv.URL + "/api"
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("1.0.0", "2025-08-13")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "oftalmo 1.0.0 (2025-08-13)\n", out)
}

func TestViewsRequireLogin(t *testing.T) {
	_, api := setupEnv(t)
	out, err := run(t, "", "--server", api, "pacientes")
	require.Error(t, err)
	assert.Contains(t, out, "oftalmo auth login")
	assert.NotContains(t, out, "João")
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	fb, api := setupEnv(t)

	out, err := run(t, "ana@clinica.com\nsegredo\n", "--server", api, "auth", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Bem-vindo, Ana Souza")

	out, err = run(t, "", "--server", api, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "autenticado como Ana Souza (CRM: 12345)")

	out, err = run(t, "", "--server", api, "pacientes", "--search", "joão")
	require.NoError(t, err)
	assert.Contains(t, out, "[Pacientes]")
	assert.Contains(t, out, "João Lima")
	require.Len(t, fb.queries, 1)
	assert.Equal(t, "page=1&per_page=10&search=jo%C3%A3o", fb.queries[0])

	out, err = run(t, "", "--server", api, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Consultas da Semana")

	out, err = run(t, "", "--server", api, "open", "/qualquer")
	require.NoError(t, err)
	assert.Contains(t, out, "[Dashboard]")

	_, err = run(t, "", "--server", api, "auth", "logout")
	require.NoError(t, err)
	out, err = run(t, "", "--server", api, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "não autenticado")
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	_, api := setupEnv(t)
	out, err := run(t, "ana@clinica.com\nerrada\n", "--server", api, "auth", "login", "--email", "ana@clinica.com")
	require.Error(t, err)
	assert.Contains(t, out, "Erro: Credenciais inválidas")
}

func TestNewConsultationSubmitRedirectsToList(t *testing.T) {
	fb, api := setupEnv(t)
	_, err := run(t, "segredo\n", "--server", api, "auth", "login", "--email", "ana@clinica.com")
	require.NoError(t, err)

	out, err := run(t, "", "--server", api, "nova-consulta", "42", "--anamnese", "dor de cabeça", "--acuidade-visual-od", "20/20")
	require.NoError(t, err)
	assert.Contains(t, out, "Consulta salva com sucesso!")
	assert.Contains(t, out, "#7 João Lima")

	require.Len(t, fb.created, 1)
	assert.Equal(t, models.NewConsultation{IDPaciente: 42, Anamnese: "dor de cabeça", AcuidadeVisualOD: "20/20"}, fb.created[0])
}

func TestNewConsultationWithoutFlagsRendersForm(t *testing.T) {
	fb, api := setupEnv(t)
	_, err := run(t, "segredo\n", "--server", api, "auth", "login", "--email", "ana@clinica.com")
	require.NoError(t, err)

	out, err := run(t, "", "--server", api, "nova-consulta", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Paciente: João Lima")
	assert.Contains(t, out, "[Salvar Consulta]")
	assert.Empty(t, fb.created)

	out, err = run(t, "", "--server", api, "nova-consulta")
	require.NoError(t, err)
	assert.Contains(t, out, "Paciente não selecionado")
}

func TestConsultationsInteractive(t *testing.T) {
	_, api := setupEnv(t)
	_, err := run(t, "segredo\n", "--server", api, "auth", "login", "--email", "ana@clinica.com")
	require.NoError(t, err)

	out, err := run(t, "n\nq\n", "--server", api, "consultas", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "Comandos:")
	assert.Contains(t, out, "Realizada em: 02/05/2024 10:00:00")
}
