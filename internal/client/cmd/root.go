package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oftalmo/internal/client/api"
	"oftalmo/internal/client/config"
	"oftalmo/internal/client/session"
	"oftalmo/internal/client/shell"
	"oftalmo/internal/shared/logger"
)

// app holds the per-process client state. It is built on first use so that
// commands like version never touch the session directory.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	store  *session.Store
	client *api.Client
}

type options struct {
	serverURL string
	app       *app
}

func NewRootCmd(version, buildDate string) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "oftalmo",
		Short:        "OftalmoPro terminal client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "API base URL (overrides OFTALMO_API_URL)")

	root.AddCommand(newVersionCmd(version, buildDate))
	root.AddCommand(newAuthCmd(opts))
	root.AddCommand(newOpenCmd(opts))
	root.AddCommand(newDashboardCmd(opts))
	root.AddCommand(newPatientsCmd(opts))
	root.AddCommand(newConsultationsCmd(opts))
	root.AddCommand(newNewConsultationCmd(opts))
	return root
}

func (o *options) load() (*app, error) {
	if o.app != nil {
		return o.app, nil
	}
	cfg := config.Load()
	if o.serverURL != "" {
		cfg.APIBaseURL = o.serverURL
	}

	log, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Env:         cfg.Env,
		Encoding:    "console",
		OutputPaths: []string{cfg.LogFile},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store := session.NewStore(session.NewFileBackend(cfg.SessionDir), log)
	if _, err := store.Hydrate(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	o.app = &app{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: api.New(cfg.APIBaseURL, store, log),
	}
	return o.app, nil
}

func (o *options) shell(cmd *cobra.Command) (*shell.Shell, error) {
	a, err := o.load()
	if err != nil {
		return nil, err
	}
	return shell.New(a.store, a.client, cmd.OutOrStdout(), a.cfg.RedirectDelay, a.log), nil
}
