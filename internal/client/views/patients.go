package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"oftalmo/internal/client/api"
	"oftalmo/internal/shared/models"
)

type PatientLister interface {
	ListPatients(ctx context.Context, q api.PageQuery) (models.PatientPage, error)
}

// PatientsView lists registered patients, filtered by name or CPF.
type PatientsView struct {
	*ListView[models.Patient]
	now func() time.Time
}

func NewPatientsView(client PatientLister, log *zap.Logger) *PatientsView {
	fetch := func(ctx context.Context, q api.PageQuery) (Page[models.Patient], error) {
		resp, err := client.ListPatients(ctx, q)
		if err != nil {
			return Page[models.Patient]{}, err
		}
		return Page[models.Patient]{Items: resp.Pacientes, TotalPages: resp.Pages}, nil
	}
	return &PatientsView{ListView: NewListView(fetch, log), now: time.Now}
}

func (v *PatientsView) Render(w io.Writer) {
	st := v.State()
	fmt.Fprintln(w, "Pacientes")
	if st.Search != "" {
		fmt.Fprintf(w, "Busca: %q\n", st.Search)
	}
	if st.Err != nil {
		fmt.Fprintf(w, "Erro: %s\n", api.ClientMessage(st.Err, "Erro ao buscar pacientes"))
	}

	switch {
	case st.Loading:
		fmt.Fprintln(w, "Carregando pacientes...")
		return
	case len(st.Items) == 0:
		fmt.Fprintln(w, "Nenhum paciente encontrado")
		if st.Search != "" {
			fmt.Fprintln(w, "Tente ajustar os termos de busca.")
		} else {
			fmt.Fprintln(w, "Comece cadastrando seu primeiro paciente.")
		}
	default:
		now := v.now()
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Nome", "Idade", "Sexo", "CPF", "Nascimento", "Telefone", "E-mail", "Endereço"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		for _, p := range st.Items {
			table.Append([]string{
				strconv.FormatInt(p.ID, 10),
				p.NomeCompleto,
				ageLabel(p.DataNascimento, now),
				orDash(p.Sexo),
				orDash(p.CPF),
				FormatDate(p.DataNascimento),
				orDash(p.Telefone),
				orDash(p.Email),
				orDash(p.Endereco),
			})
		}
		table.Render()
	}
	renderPagination(w, st.Pager)
}
