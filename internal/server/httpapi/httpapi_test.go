package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oftalmo/internal/client/api"
	"oftalmo/internal/client/session"
	"oftalmo/internal/client/views"
	"oftalmo/internal/server/config"
	"oftalmo/internal/server/repository/sqlite"
	"oftalmo/internal/server/service"
	"oftalmo/internal/shared/models"
)

func newTestServer(t *testing.T) (http.Handler, *service.Services) {
	t.Helper()
	repo, err := sqlite.New(fmt.Sprintf("file:http_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	svcs := service.NewServices(repo, config.Config{JWTSecret: "test"})
	_, err = svcs.Auth.Register(context.Background(), models.User{NomeCompleto: "Ana Souza", CRM: "123", Email: "ana@clinica.com"}, "segredo")
	require.NoError(t, err)
	return NewRouter(svcs, nil, 1<<10), svcs
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	buf := &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/login", models.LoginRequest{Email: "ana@clinica.com", Senha: "segredo"}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "Ana Souza", resp.User.NomeCompleto)
	return resp.Token
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestHealthAndRequestID(t *testing.T) {
	h, _ := newTestServer(t)
	rr := doJSON(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))
}

func TestLoginFailures(t *testing.T) {
	h, _ := newTestServer(t)
	rr := doJSON(t, h, http.MethodPost, "/api/login", models.LoginRequest{Email: "ana@clinica.com", Senha: "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Credenciais inválidas", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/api/login", map[string]string{"email": "ana@clinica.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h, _ := newTestServer(t)
	for _, path := range []string{"/api/dashboard/stats", "/api/pacientes", "/api/pacientes/1", "/api/consultas"} {
		rr := doJSON(t, h, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
		rr = doJSON(t, h, http.MethodGet, path, nil, "bogus")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestPatientsAndConsultations(t *testing.T) {
	h, _ := newTestServer(t)
	token := login(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/pacientes?page=1&per_page=10", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"pacientes":[],"pages":0,"current_page":1}`, rr.Body.String())

	rr = doJSON(t, h, http.MethodPost, "/api/pacientes", models.NewPatient{
		NomeCompleto: "João Lima", CPF: "123.456.789-00", DataNascimento: "1980-02-03", Sexo: "M",
	}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var p models.Patient
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))

	rr = doJSON(t, h, http.MethodPost, "/api/pacientes", models.NewPatient{NomeCompleto: "Incompleto"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/api/pacientes?search=456", nil, token)
	var page models.PatientPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Pages)
	require.Len(t, page.Pacientes, 1)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/pacientes/%d", p.ID), nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	var env models.PatientEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, p, env.Paciente)

	rr = doJSON(t, h, http.MethodGet, "/api/pacientes/999", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Paciente não encontrado", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/api/consultas", models.NewConsultation{IDPaciente: 999}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Paciente não encontrado", errorOf(t, rr))

	rr = doJSON(t, h, http.MethodPost, "/api/consultas", map[string]any{"anamnese": "x"}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/api/consultas", models.NewConsultation{IDPaciente: p.ID, Diagnostico: "catarata"}, token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, h, http.MethodGet, "/api/consultas", nil, token)
	var consultas models.ConsultationPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &consultas))
	require.Len(t, consultas.Consultas, 1)
	assert.Equal(t, "catarata", consultas.Consultas[0].Diagnostico)
	require.NotNil(t, consultas.Consultas[0].Paciente)
	assert.Equal(t, "João Lima", consultas.Consultas[0].Paciente.NomeCompleto)

	rr = doJSON(t, h, http.MethodGet, "/api/dashboard/stats", nil, token)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalPacientes)
	assert.Equal(t, 1, stats.ConsultasHoje)
}

func TestRequestBodyLimit(t *testing.T) {
	h, _ := newTestServer(t)
	token := login(t, h)
	rr := doJSON(t, h, http.MethodPost, "/api/consultas", models.NewConsultation{IDPaciente: 1, Observacoes: strings.Repeat("a", 2048)}, token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

// The terminal client runs against the real router end to end.
func TestClientAgainstRouter(t *testing.T) {
	h, svcs := newTestServer(t)
	srv := httptest.NewServer(h)
	defer srv.Close()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svcs.Patients.Create(ctx, models.NewPatient{
			NomeCompleto: fmt.Sprintf("Paciente %02d", i), CPF: fmt.Sprint(i), DataNascimento: "1990-01-01", Sexo: "F",
		})
		require.NoError(t, err)
	}

	store := session.NewStore(session.NewFileBackend(t.TempDir()), nil)
	_, err := store.Hydrate()
	require.NoError(t, err)
	client := api.New(srv.URL+"/api", store, nil)

	resp, err := client.Login(ctx, "ana@clinica.com", "segredo")
	require.NoError(t, err)
	require.NoError(t, store.Login(resp.Token, resp.User))

	v := views.NewPatientsView(client, nil)
	require.NoError(t, v.Load(ctx))
	assert.Equal(t, 2, v.State().Pager.Total)
	require.NoError(t, v.NextPage(ctx))
	require.NoError(t, v.NextPage(ctx))
	st := v.State()
	assert.Equal(t, 2, st.Pager.Current)
	assert.Len(t, st.Items, 2)

	require.NoError(t, v.SetSearch(ctx, "11"))
	st = v.State()
	assert.Equal(t, 1, st.Pager.Current)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Paciente 11", st.Items[0].NomeCompleto)

	form := views.NewConsultationForm(client, fmt.Sprint(st.Items[0].ID), 0, nil)
	require.NoError(t, form.Mount(ctx))
	require.NoError(t, form.Set("anamnese", "dor de cabeça"))
	redirect, err := form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/consultas", redirect.Path)

	missing := views.NewConsultationForm(client, "9999", 0, nil)
	require.Error(t, missing.Mount(ctx))
	assert.Equal(t, views.MsgPatientNotFound, missing.Error())

	require.NoError(t, store.Logout())
	_, err = client.DashboardStats(ctx)
	assert.True(t, api.IsStatus(err))
	assert.Equal(t, "Token não fornecido", api.ClientMessage(err, ""))
}
