package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"oftalmo/internal/server/repository"
	"oftalmo/internal/shared/models"
)

// TimeLayout is how consultation timestamps are stored and returned.
// Lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05"

type Repository struct {
	db *sql.DB
}

func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nome_completo TEXT NOT NULL,
			crm TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash BLOB NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pacientes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nome_completo TEXT NOT NULL,
			cpf TEXT NOT NULL,
			data_nascimento TEXT NOT NULL,
			sexo TEXT NOT NULL,
			telefone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			endereco TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS consultas (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_paciente INTEGER NOT NULL,
			data_consulta TEXT NOT NULL,
			anamnese TEXT NOT NULL DEFAULT '',
			exame_fisico TEXT NOT NULL DEFAULT '',
			acuidade_visual_od TEXT NOT NULL DEFAULT '',
			acuidade_visual_oe TEXT NOT NULL DEFAULT '',
			pressao_intraocular_od TEXT NOT NULL DEFAULT '',
			pressao_intraocular_oe TEXT NOT NULL DEFAULT '',
			diagnostico TEXT NOT NULL DEFAULT '',
			plano_tratamento TEXT NOT NULL DEFAULT '',
			observacoes TEXT NOT NULL DEFAULT '',
			FOREIGN KEY(id_paciente) REFERENCES pacientes(id)
		);
		CREATE INDEX IF NOT EXISTS consultas_data_idx ON consultas(data_consulta);
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func now() string {
	return time.Now().UTC().Format(TimeLayout)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Users

func (r *Repository) CreateUser(ctx context.Context, u models.User, passwordHash []byte) (models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users(nome_completo, crm, email, password_hash, created_at) VALUES(?,?,?,?,?)`,
		u.NomeCompleto, u.CRM, u.Email, passwordHash, now())
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, repository.ErrDuplicate
		}
		return models.User{}, err
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, []byte, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, nome_completo, crm, email, password_hash FROM users WHERE email = ?`, email)
	var (
		u    models.User
		hash []byte
	)
	if err := row.Scan(&u.ID, &u.NomeCompleto, &u.CRM, &u.Email, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, nil, repository.ErrNotFound
		}
		return models.User{}, nil, err
	}
	return u, hash, nil
}

// Patients

const patientColumns = `id, nome_completo, cpf, data_nascimento, sexo, telefone, email, endereco`

type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(s scanner) (models.Patient, error) {
	var p models.Patient
	err := s.Scan(&p.ID, &p.NomeCompleto, &p.CPF, &p.DataNascimento, &p.Sexo, &p.Telefone, &p.Email, &p.Endereco)
	return p, err
}

func (r *Repository) CreatePatient(ctx context.Context, p models.NewPatient) (models.Patient, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pacientes(nome_completo, cpf, data_nascimento, sexo, telefone, email, endereco, created_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		p.NomeCompleto, p.CPF, p.DataNascimento, p.Sexo, p.Telefone, p.Email, p.Endereco, now())
	if err != nil {
		return models.Patient{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Patient{}, err
	}
	return models.Patient{
		ID:             id,
		NomeCompleto:   p.NomeCompleto,
		CPF:            p.CPF,
		DataNascimento: p.DataNascimento,
		Sexo:           p.Sexo,
		Telefone:       p.Telefone,
		Email:          p.Email,
		Endereco:       p.Endereco,
	}, nil
}

func (r *Repository) GetPatient(ctx context.Context, id int64) (models.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM pacientes WHERE id = ?`, id)
	p, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Patient{}, repository.ErrNotFound
	}
	return p, err
}

func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(search))
	return "%" + escaped + "%"
}

// ListPatients returns one page ordered by name and the total number of
// matches. An empty search matches every patient.
func (r *Repository) ListPatients(ctx context.Context, search string, limit, offset int) ([]models.Patient, int, error) {
	where := ""
	var args []any
	if search != "" {
		where = ` WHERE lower(nome_completo) LIKE ? ESCAPE '\' OR lower(cpf) LIKE ? ESCAPE '\'`
		pattern := likePattern(search)
		args = append(args, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pacientes`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM pacientes`+where+` ORDER BY nome_completo, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repository) CountPatients(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pacientes`).Scan(&n)
	return n, err
}

// Consultations

func (r *Repository) CreateConsultation(ctx context.Context, c models.NewConsultation, at time.Time) (models.Consultation, error) {
	stamp := at.Format(TimeLayout)
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO consultas(id_paciente, data_consulta, anamnese, exame_fisico,
			acuidade_visual_od, acuidade_visual_oe, pressao_intraocular_od, pressao_intraocular_oe,
			diagnostico, plano_tratamento, observacoes)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		c.IDPaciente, stamp, c.Anamnese, c.ExameFisico,
		c.AcuidadeVisualOD, c.AcuidadeVisualOE, c.PressaoIntraocularOD, c.PressaoIntraocularOE,
		c.Diagnostico, c.PlanoTratamento, c.Observacoes)
	if err != nil {
		return models.Consultation{}, fmt.Errorf("insert consultation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Consultation{}, err
	}
	return models.Consultation{
		ID:                   id,
		IDPaciente:           c.IDPaciente,
		DataConsulta:         stamp,
		Anamnese:             c.Anamnese,
		ExameFisico:          c.ExameFisico,
		AcuidadeVisualOD:     c.AcuidadeVisualOD,
		AcuidadeVisualOE:     c.AcuidadeVisualOE,
		PressaoIntraocularOD: c.PressaoIntraocularOD,
		PressaoIntraocularOE: c.PressaoIntraocularOE,
		Diagnostico:          c.Diagnostico,
		PlanoTratamento:      c.PlanoTratamento,
		Observacoes:          c.Observacoes,
	}, nil
}

// ListConsultations returns one page, newest first, each joined with its
// patient when the patient still exists.
func (r *Repository) ListConsultations(ctx context.Context, limit, offset int) ([]models.Consultation, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consultas`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.id_paciente, c.data_consulta, c.anamnese, c.exame_fisico,
			c.acuidade_visual_od, c.acuidade_visual_oe, c.pressao_intraocular_od, c.pressao_intraocular_oe,
			c.diagnostico, c.plano_tratamento, c.observacoes, p.id, p.nome_completo
		FROM consultas c
		LEFT JOIN pacientes p ON p.id = c.id_paciente
		ORDER BY c.data_consulta DESC, c.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Consultation{}
	for rows.Next() {
		var (
			c           models.Consultation
			patientID   sql.NullInt64
			patientName sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.IDPaciente, &c.DataConsulta, &c.Anamnese, &c.ExameFisico,
			&c.AcuidadeVisualOD, &c.AcuidadeVisualOE, &c.PressaoIntraocularOD, &c.PressaoIntraocularOE,
			&c.Diagnostico, &c.PlanoTratamento, &c.Observacoes, &patientID, &patientName); err != nil {
			return nil, 0, err
		}
		if patientID.Valid {
			c.Paciente = &models.PatientSummary{ID: patientID.Int64, NomeCompleto: patientName.String}
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// CountConsultationsBetween counts consultations with from <= data_consulta < to.
func (r *Repository) CountConsultationsBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM consultas WHERE data_consulta >= ? AND data_consulta < ?`,
		from.Format(TimeLayout), to.Format(TimeLayout)).Scan(&n)
	return n, err
}
