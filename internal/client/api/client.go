package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"oftalmo/internal/client/config"
	"oftalmo/internal/shared/models"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
	MIMEApplicationJSON = "application/json"
)

// TokenSource yields the bearer token for outgoing requests. An empty
// token means no Authorization header; an error blocks the request.
type TokenSource interface {
	BearerToken() (string, error)
}

// PageQuery selects one page of a list endpoint. Search is sent only when
// non-empty.
type PageQuery struct {
	Page   int
	Search string
}

func (q PageQuery) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("per_page", strconv.Itoa(config.PerPage))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Client calls the clinic API. It never retries and sets no timeout of its
// own; callers cancel through the context.
type Client struct {
	baseURL  string
	tokens   TokenSource
	http     *http.Client
	log      *zap.Logger
	validate *validator.Validate
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokens:   tokens,
		http:     &http.Client{},
		log:      log,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Login exchanges credentials for a session token. It is the only call made
// without a bearer token.
func (c *Client) Login(ctx context.Context, email, senha string) (models.LoginResponse, error) {
	req := models.LoginRequest{Email: strings.TrimSpace(email), Senha: senha}
	if err := c.validate.Struct(req); err != nil {
		return models.LoginResponse{}, fmt.Errorf("login: %w", err)
	}
	var out models.LoginResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/login",
		body:     req,
		resource: "login",
	}, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/dashboard/stats",
		authorize: true,
		resource:  "dashboard",
	}, &out)
	return out, err
}

func (c *Client) ListPatients(ctx context.Context, q PageQuery) (models.PatientPage, error) {
	var out models.PatientPage
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/pacientes",
		query:     q.Values(),
		authorize: true,
		resource:  "pacientes",
	}, &out)
	return out, err
}

func (c *Client) GetPatient(ctx context.Context, id string) (models.Patient, error) {
	var out models.PatientEnvelope
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/pacientes/" + url.PathEscape(id),
		authorize: true,
		resource:  "paciente",
	}, &out)
	return out.Paciente, err
}

// ListConsultations ignores q.Search; the endpoint has no filter.
func (c *Client) ListConsultations(ctx context.Context, q PageQuery) (models.ConsultationPage, error) {
	q.Search = ""
	var out models.ConsultationPage
	err := c.do(ctx, request{
		method:    http.MethodGet,
		path:      "/consultas",
		query:     q.Values(),
		authorize: true,
		resource:  "consultas",
	}, &out)
	return out, err
}

func (c *Client) CreateConsultation(ctx context.Context, body models.NewConsultation) (models.Consultation, error) {
	if err := c.validate.Struct(body); err != nil {
		return models.Consultation{}, fmt.Errorf("create consultation: %w", err)
	}
	var out models.Consultation
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/consultas",
		body:      body,
		authorize: true,
		resource:  "consultas",
	}, &out)
	return out, err
}

type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	authorize bool
	resource  string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	requestID := uuid.NewString()
	log := c.log.With(
		zap.String("request_id", requestID),
		zap.String("method", r.method),
		zap.String("resource", r.resource),
	)

	var token string
	if r.authorize {
		tok, err := c.tokens.BearerToken()
		if err != nil {
			log.Warn("request blocked", zap.Error(err))
			return err
		}
		token = tok
	}

	var payload io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return ErrEncodeRequest(err, r.resource)
		}
		payload = bytes.NewReader(b)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, payload)
	if err != nil {
		return ErrSendHTTPRequest(err, r.resource)
	}
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", MIMEApplicationJSON)
	if r.body != nil {
		req.Header.Set(HeaderContentType, MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+token)
	}

	log.Debug("sending request", zap.String("url", target))
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		return ErrSendHTTPRequest(err, r.resource)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body models.ErrorResponse
		raw, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		log.Warn("unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("server_error", body.Error),
		)
		return ErrStatus(resp.StatusCode, body.Error, r.resource)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Error("decode failed", zap.Error(err))
			return ErrDecodeResponse(err, r.resource)
		}
	}
	log.Debug("request succeeded", zap.Int("status", resp.StatusCode))
	return nil
}
