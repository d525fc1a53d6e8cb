package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"oftalmo/internal/server/config"
	"oftalmo/internal/server/repository"
	"oftalmo/internal/shared/models"
	"oftalmo/internal/shared/passhash"
)

const (
	tokenTTL       = 24 * time.Hour
	DefaultPerPage = 10
	MaxPerPage     = 100
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPatientNotFound    = errors.New("patient not found")
)

type Repository interface {
	CreateUser(ctx context.Context, u models.User, passwordHash []byte) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, []byte, error)

	CreatePatient(ctx context.Context, p models.NewPatient) (models.Patient, error)
	GetPatient(ctx context.Context, id int64) (models.Patient, error)
	ListPatients(ctx context.Context, search string, limit, offset int) ([]models.Patient, int, error)
	CountPatients(ctx context.Context) (int, error)

	CreateConsultation(ctx context.Context, c models.NewConsultation, at time.Time) (models.Consultation, error)
	ListConsultations(ctx context.Context, limit, offset int) ([]models.Consultation, int, error)
	CountConsultationsBetween(ctx context.Context, from, to time.Time) (int, error)
}

type Services struct {
	Auth          *AuthService
	Patients      *PatientService
	Consultations *ConsultationService
	Dashboard     *DashboardService
}

func NewServices(repo Repository, cfg config.Config) *Services {
	v := validator.New()
	return &Services{
		Auth:          &AuthService{repo: repo, jwtSecret: []byte(cfg.JWTSecret), validate: v, now: time.Now},
		Patients:      &PatientService{repo: repo, validate: v},
		Consultations: &ConsultationService{repo: repo, validate: v, now: time.Now},
		Dashboard:     &DashboardService{repo: repo, now: time.Now},
	}
}

// SetClock replaces the time source of every time-dependent service.
func (s *Services) SetClock(now func() time.Time) {
	s.Auth.now = now
	s.Consultations.now = now
	s.Dashboard.now = now
}

// AuthService verifies practitioner credentials and issues HS256 tokens.
type AuthService struct {
	repo      Repository
	jwtSecret []byte
	validate  *validator.Validate
	now       func() time.Time
}

// Register creates a practitioner account.
func (a *AuthService) Register(ctx context.Context, u models.User, password string) (models.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	phc, err := passhash.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return a.repo.CreateUser(ctx, u, []byte(phc))
}

// EnsureUser registers u unless an account with its email already exists.
func (a *AuthService) EnsureUser(ctx context.Context, u models.User, password string) (models.User, bool, error) {
	existing, _, err := a.repo.GetUserByEmail(ctx, strings.TrimSpace(u.Email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, false, err
	}
	created, err := a.Register(ctx, u, password)
	return created, err == nil, err
}

func (a *AuthService) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := a.validate.Struct(req); err != nil {
		return models.LoginResponse{}, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	user, hash, err := a.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.LoginResponse{}, ErrInvalidCredentials
		}
		return models.LoginResponse{}, err
	}
	ok, err := passhash.VerifyPassword(string(hash), req.Senha)
	if err != nil || !ok {
		return models.LoginResponse{}, ErrInvalidCredentials
	}
	token, err := a.IssueToken(user.ID, tokenTTL)
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, User: user}, nil
}

func (a *AuthService) IssueToken(userID int64, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// ParseToken validates token and returns the user id it was issued for.
func (a *AuthService) ParseToken(_ context.Context, token string) (int64, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// normalizePage bounds page to >= 1 and perPage to [1, MaxPerPage].
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func pageCount(total, perPage int) int {
	return (total + perPage - 1) / perPage
}

type PatientService struct {
	repo     Repository
	validate *validator.Validate
}

func (s *PatientService) List(ctx context.Context, search string, page, perPage int) (models.PatientPage, error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.repo.ListPatients(ctx, strings.TrimSpace(search), perPage, (page-1)*perPage)
	if err != nil {
		return models.PatientPage{}, err
	}
	return models.PatientPage{
		Pacientes:   items,
		Pages:       pageCount(total, perPage),
		Total:       total,
		CurrentPage: page,
	}, nil
}

func (s *PatientService) Get(ctx context.Context, id int64) (models.Patient, error) {
	p, err := s.repo.GetPatient(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Patient{}, ErrPatientNotFound
	}
	return p, err
}

func (s *PatientService) Create(ctx context.Context, p models.NewPatient) (models.Patient, error) {
	if err := s.validate.Struct(p); err != nil {
		return models.Patient{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.repo.CreatePatient(ctx, p)
}

type ConsultationService struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func (s *ConsultationService) List(ctx context.Context, page, perPage int) (models.ConsultationPage, error) {
	page, perPage = normalizePage(page, perPage)
	items, total, err := s.repo.ListConsultations(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return models.ConsultationPage{}, err
	}
	return models.ConsultationPage{
		Consultas:   items,
		Pages:       pageCount(total, perPage),
		Total:       total,
		CurrentPage: page,
	}, nil
}

// Create stores a consultation dated now for an existing patient.
func (s *ConsultationService) Create(ctx context.Context, c models.NewConsultation) (models.Consultation, error) {
	if err := s.validate.Struct(c); err != nil {
		return models.Consultation{}, fmt.Errorf("%w: id_paciente required", ErrInvalidInput)
	}
	if _, err := s.repo.GetPatient(ctx, c.IDPaciente); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.Consultation{}, ErrPatientNotFound
		}
		return models.Consultation{}, err
	}
	return s.repo.CreateConsultation(ctx, c, s.now())
}

type DashboardService struct {
	repo Repository
	now  func() time.Time
}

// Stats counts today's consultations, this week's (from Monday 00:00) and
// all patients.
func (s *DashboardService) Stats(ctx context.Context) (models.DashboardStats, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := dayStart.AddDate(0, 0, 1)
	weekday := (int(dayStart.Weekday()) + 6) % 7
	weekStart := dayStart.AddDate(0, 0, -weekday)

	today, err := s.repo.CountConsultationsBetween(ctx, dayStart, tomorrow)
	if err != nil {
		return models.DashboardStats{}, err
	}
	week, err := s.repo.CountConsultationsBetween(ctx, weekStart, tomorrow)
	if err != nil {
		return models.DashboardStats{}, err
	}
	patients, err := s.repo.CountPatients(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	return models.DashboardStats{ConsultasHoje: today, TotalPacientes: patients, ConsultasSemana: week}, nil
}
