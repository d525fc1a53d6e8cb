package views

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"oftalmo/internal/client/api"
	"oftalmo/internal/shared/models"
)

type ConsultationLister interface {
	ListConsultations(ctx context.Context, q api.PageQuery) (models.ConsultationPage, error)
}

type ConsultationsView struct {
	*ListView[models.Consultation]
}

func NewConsultationsView(client ConsultationLister, log *zap.Logger) *ConsultationsView {
	fetch := func(ctx context.Context, q api.PageQuery) (Page[models.Consultation], error) {
		resp, err := client.ListConsultations(ctx, q)
		if err != nil {
			return Page[models.Consultation]{}, err
		}
		return Page[models.Consultation]{Items: resp.Consultas, TotalPages: resp.Pages}, nil
	}
	return &ConsultationsView{ListView: NewListView(fetch, log)}
}

func (v *ConsultationsView) Render(w io.Writer) {
	st := v.State()
	fmt.Fprintln(w, "Consultas")
	if st.Err != nil {
		fmt.Fprintf(w, "Erro: %s\n", api.ClientMessage(st.Err, "Erro ao buscar consultas"))
	}

	switch {
	case st.Loading:
		fmt.Fprintln(w, "Carregando consultas...")
		return
	case len(st.Items) == 0:
		fmt.Fprintln(w, "Nenhuma consulta encontrada")
		fmt.Fprintln(w, "Comece realizando sua primeira consulta.")
	default:
		for _, c := range st.Items {
			renderConsultation(w, c)
		}
	}
	renderPagination(w, st.Pager)
}

func renderConsultation(w io.Writer, c models.Consultation) {
	name := "Paciente não encontrado"
	if c.Paciente != nil && c.Paciente.NomeCompleto != "" {
		name = c.Paciente.NomeCompleto
	}
	fmt.Fprintf(w, "\n#%d %s [%s]\n", c.ID, name, FormatDate(c.DataConsulta))
	if c.Anamnese != "" {
		fmt.Fprintf(w, "  Anamnese: %s\n", c.Anamnese)
	}
	if c.Diagnostico != "" {
		fmt.Fprintf(w, "  Diagnóstico: %s\n", c.Diagnostico)
	}
	if c.AcuidadeVisualOD != "" || c.AcuidadeVisualOE != "" {
		fmt.Fprint(w, "  Acuidade Visual:")
		if c.AcuidadeVisualOD != "" {
			fmt.Fprintf(w, " OD: %s", c.AcuidadeVisualOD)
		}
		if c.AcuidadeVisualOE != "" {
			fmt.Fprintf(w, " OE: %s", c.AcuidadeVisualOE)
		}
		fmt.Fprintln(w)
	}
	if c.PressaoIntraocularOD != "" || c.PressaoIntraocularOE != "" {
		fmt.Fprint(w, "  Pressão Intraocular:")
		if c.PressaoIntraocularOD != "" {
			fmt.Fprintf(w, " OD: %s mmHg", c.PressaoIntraocularOD)
		}
		if c.PressaoIntraocularOE != "" {
			fmt.Fprintf(w, " OE: %s mmHg", c.PressaoIntraocularOE)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  Realizada em: %s\n", FormatDateTime(c.DataConsulta))
}
