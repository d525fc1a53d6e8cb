package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"oftalmo/internal/client/session"
	"oftalmo/internal/client/views"
	"oftalmo/internal/shared/models"
)

// ErrLoginRequired is returned when a view is opened without a session.
var ErrLoginRequired = errors.New("login required")

// API is everything the views need from the clinic API.
type API interface {
	views.PatientLister
	views.ConsultationLister
	views.ConsultationClient
	views.StatsFetcher
}

// Session is the read side of the session store.
type Session interface {
	State() session.State
	Authenticated() bool
	User() (models.User, bool)
}

type Shell struct {
	session       Session
	api           API
	log           *zap.Logger
	out           io.Writer
	redirectDelay time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

func New(sess Session, client API, out io.Writer, redirectDelay time.Duration, log *zap.Logger) *Shell {
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		session:       sess,
		api:           client,
		log:           log,
		out:           out,
		redirectDelay: redirectDelay,
		sleep:         sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// gate resolves path against the session and renders the header. An error
// means only the login or loading view was rendered.
func (s *Shell) gate(path string) (Match, error) {
	if s.session.State() == session.StateLoading {
		fmt.Fprintln(s.out, "Carregando...")
		return Match{}, session.ErrNotHydrated
	}
	m := Resolve(path, s.session.Authenticated())
	if m.Route == RouteLogin {
		renderLogin(s.out)
		return m, ErrLoginRequired
	}
	if m.Redirected {
		s.log.Debug("redirecting unknown path", zap.String("path", path), zap.String("to", m.Path))
	}
	user, _ := s.session.User()
	RenderNav(s.out, m.Path, user)
	return m, nil
}

// Open renders the view a path resolves to. Fetch failures are rendered
// inline and do not fail the call.
func (s *Shell) Open(ctx context.Context, path string) error {
	m, err := s.gate(path)
	if err != nil {
		return err
	}
	switch m.Route {
	case RoutePatients:
		s.Patients(ctx, 1, "")
	case RouteConsultations:
		s.Consultations(ctx, 1)
	case RouteNewConsultation:
		s.Form(ctx, m.PatientID)
	default:
		s.Dashboard(ctx)
	}
	return nil
}

// Guard renders the login view and fails when there is no session.
func (s *Shell) Guard(path string) error {
	_, err := s.gate(path)
	return err
}

func (s *Shell) Dashboard(ctx context.Context) *views.Dashboard {
	d := views.NewDashboard(s.api, s.log)
	_ = d.Mount(ctx)
	d.Render(s.out)
	return d
}

func (s *Shell) Patients(ctx context.Context, page int, search string) *views.PatientsView {
	v := views.NewPatientsView(s.api, s.log)
	v.Configure(page, search)
	s.load(ctx, v.Load)
	v.Render(s.out)
	return v
}

func (s *Shell) Consultations(ctx context.Context, page int) *views.ConsultationsView {
	v := views.NewConsultationsView(s.api, s.log)
	v.Configure(page, "")
	s.load(ctx, v.Load)
	v.Render(s.out)
	return v
}

// Form mounts and renders the consultation form for patientID.
func (s *Shell) Form(ctx context.Context, patientID string) *views.ConsultationForm {
	f := views.NewConsultationForm(s.api, patientID, s.redirectDelay, s.log)
	_ = f.Mount(ctx)
	f.Render(s.out)
	return f
}

// SubmitConsultation fills the form for patientID with values and submits
// it. A saved consultation follows the redirect once its delay elapses.
// Submission is skipped when the patient could not be loaded.
func (s *Shell) SubmitConsultation(ctx context.Context, patientID string, values map[string]string) error {
	f := views.NewConsultationForm(s.api, patientID, s.redirectDelay, s.log)
	if !f.HasTarget() {
		f.Render(s.out)
		return views.ErrNoPatient
	}
	if err := f.Mount(ctx); err != nil {
		f.Render(s.out)
		return err
	}
	for name, value := range values {
		if err := f.Set(name, value); err != nil {
			return err
		}
	}

	redirect, err := f.Submit(ctx)
	f.Render(s.out)
	if err != nil {
		return err
	}
	if err := s.sleep(ctx, redirect.After); err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	return s.Open(ctx, redirect.Path)
}

func (s *Shell) load(ctx context.Context, load func(context.Context) error) {
	if err := load(ctx); err != nil && !errors.Is(err, views.ErrStaleResponse) {
		s.log.Debug("view load failed", zap.Error(err))
	}
}

// Pageable is a list view driven by Browse.
type Pageable interface {
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	GoTo(ctx context.Context, n int) error
	SetSearch(ctx context.Context, search string) error
	Render(w io.Writer)
}

const browseHelp = "Comandos: n (próxima), p (anterior), g <página> (ir para), s <texto> (buscar), q (sair)"

// Browse drives v from line commands read from in until "q" or EOF.
// Search is only honored when searchable is set. The text after "s " is
// sent as typed.
func (s *Shell) Browse(ctx context.Context, in io.Reader, v Pageable, searchable bool) error {
	fmt.Fprintln(s.out, browseHelp)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimLeft(scanner.Text(), " \t")
		cmd, arg, _ := strings.Cut(line, " ")
		cmd = strings.TrimSpace(cmd)
		var err error
		switch cmd {
		case "q":
			return nil
		case "n":
			err = v.NextPage(ctx)
		case "p":
			err = v.PrevPage(ctx)
		case "g":
			n, convErr := strconv.Atoi(strings.TrimSpace(arg))
			if convErr != nil {
				fmt.Fprintln(s.out, "Página inválida.")
				continue
			}
			err = v.GoTo(ctx, n)
		case "s":
			if !searchable {
				fmt.Fprintln(s.out, "Busca indisponível nesta lista.")
				continue
			}
			err = v.SetSearch(ctx, arg)
		case "":
			continue
		default:
			fmt.Fprintln(s.out, browseHelp)
			continue
		}
		if err != nil && !errors.Is(err, views.ErrStaleResponse) {
			s.log.Debug("browse load failed", zap.String("command", cmd), zap.Error(err))
		}
		v.Render(s.out)
	}
}
