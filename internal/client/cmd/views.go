package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"oftalmo/internal/client/views"
)

func newOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Render the view a path resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.shell(cmd)
			if err != nil {
				return err
			}
			return sh.Open(cmd.Context(), args[0])
		},
	}
}

func newDashboardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show consultation and patient counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.shell(cmd)
			if err != nil {
				return err
			}
			return sh.Open(cmd.Context(), "/dashboard")
		},
	}
}

func newPatientsCmd(opts *options) *cobra.Command {
	var (
		page        int
		search      string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "pacientes",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.shell(cmd)
			if err != nil {
				return err
			}
			if err := sh.Guard("/pacientes"); err != nil {
				return err
			}
			v := sh.Patients(cmd.Context(), page, search)
			if !interactive {
				return nil
			}
			return sh.Browse(cmd.Context(), cmd.InOrStdin(), v, true)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().StringVar(&search, "search", "", "filter by name or CPF")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse pages from stdin commands")
	return cmd
}

func newConsultationsCmd(opts *options) *cobra.Command {
	var (
		page        int
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "consultas",
		Short: "List consultations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.shell(cmd)
			if err != nil {
				return err
			}
			if err := sh.Guard("/consultas"); err != nil {
				return err
			}
			v := sh.Consultations(cmd.Context(), page)
			if !interactive {
				return nil
			}
			return sh.Browse(cmd.Context(), cmd.InOrStdin(), v, false)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse pages from stdin commands")
	return cmd
}

// fieldFlag maps a form field to its flag name, e.g. acuidade_visual_od to
// acuidade-visual-od.
func fieldFlag(f views.FormField) string {
	return strings.ReplaceAll(f.Name, "_", "-")
}

func newNewConsultationCmd(opts *options) *cobra.Command {
	var submit bool
	values := make(map[string]*string, len(views.ConsultationFields))

	cmd := &cobra.Command{
		Use:   "nova-consulta [pacienteId]",
		Short: "Show or submit the new consultation form",
		Long: "Without field flags the form is rendered. Any field flag, or --submit,\n" +
			"sends the consultation and then shows the consultation list.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.shell(cmd)
			if err != nil {
				return err
			}
			patientID := ""
			if len(args) == 1 {
				patientID = args[0]
			}
			path := "/nova-consulta"
			if patientID != "" {
				path += "/" + patientID
			}

			fields := map[string]string{}
			for _, f := range views.ConsultationFields {
				if cmd.Flags().Changed(fieldFlag(f)) {
					fields[f.Name] = *values[f.Name]
				}
			}
			if !submit && len(fields) == 0 {
				return sh.Open(cmd.Context(), path)
			}
			if err := sh.Guard(path); err != nil {
				return err
			}
			return sh.SubmitConsultation(cmd.Context(), patientID, fields)
		},
	}
	for _, f := range views.ConsultationFields {
		v := new(string)
		values[f.Name] = v
		cmd.Flags().StringVar(v, fieldFlag(f), "", f.Label)
	}
	cmd.Flags().BoolVar(&submit, "submit", false, "submit even when no field is given")
	return cmd
}
