package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"oftalmo/internal/client/api"
	"oftalmo/internal/shared/models"
)

// GrowthPlaceholder stands in for the growth card; the API has no such metric.
const GrowthPlaceholder = "n/d"

type StatsFetcher interface {
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
}

type Card struct {
	Title       string
	Value       string
	Description string
}

// Dashboard shows aggregate counters fetched once per mount.
type Dashboard struct {
	mu      sync.Mutex
	client  StatsFetcher
	log     *zap.Logger
	stats   models.DashboardStats
	loading bool
	err     error
}

func NewDashboard(client StatsFetcher, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{client: client, log: log, loading: true}
}

// Mount fetches the stats. On failure the zeroed counters stay in place.
func (d *Dashboard) Mount(ctx context.Context) error {
	stats, err := d.client.DashboardStats(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if err != nil {
		d.err = err
		d.log.Warn("dashboard stats unavailable", zap.Error(err))
		return err
	}
	d.stats = stats
	return nil
}

func (d *Dashboard) Cards() []Card {
	d.mu.Lock()
	defer d.mu.Unlock()
	return []Card{
		{Title: "Consultas Hoje", Value: strconv.Itoa(d.stats.ConsultasHoje), Description: "Consultas realizadas hoje"},
		{Title: "Total de Pacientes", Value: strconv.Itoa(d.stats.TotalPacientes), Description: "Pacientes cadastrados"},
		{Title: "Consultas da Semana", Value: strconv.Itoa(d.stats.ConsultasSemana), Description: "Consultas desta semana"},
		{Title: "Crescimento", Value: GrowthPlaceholder, Description: "Em relação ao mês anterior"},
	}
}

func (d *Dashboard) Render(w io.Writer) {
	d.mu.Lock()
	loading, err := d.loading, d.err
	d.mu.Unlock()

	fmt.Fprintln(w, "Dashboard")
	if loading {
		fmt.Fprintln(w, "Carregando estatísticas...")
		return
	}
	if err != nil {
		fmt.Fprintf(w, "Erro: %s\n", api.ClientMessage(err, "Erro ao buscar estatísticas"))
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Indicador", "Valor", "Descrição"})
	table.SetBorder(false)
	for _, c := range d.Cards() {
		table.Append([]string{c.Title, c.Value, c.Description})
	}
	table.Render()

	fmt.Fprintln(w, "\nAções Rápidas")
	fmt.Fprintln(w, "  oftalmo pacientes              Ver pacientes")
	fmt.Fprintln(w, "  oftalmo consultas              Ver consultas")
	fmt.Fprintln(w, "  oftalmo nova-consulta <id>     Nova consulta")
}
