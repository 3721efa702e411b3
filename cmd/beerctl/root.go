package main

import (
	"fmt"
	"io"

	"beer-tasting-go/internal/apiclient"
	"beer-tasting-go/internal/clientconfig"
	"beer-tasting-go/internal/logging"
	"beer-tasting-go/internal/navigation"
	"beer-tasting-go/internal/realtime"
	"beer-tasting-go/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app is built once per invocation in the root PersistentPreRunE.
type app struct {
	cfg    clientconfig.Config
	store  session.Store
	api    *apiclient.Client
	router *navigation.Router
	rt     *realtime.Client
	logger *zap.Logger
	out    io.Writer

	restoreStdLog func()
}

type rootFlags struct {
	configPath  string
	apiURL      string
	credentials string
	logLevel    string
}

func newRootCommand() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	cmd := &cobra.Command{
		Use:           "beerctl",
		Short:         "Beer tasting rooms from the terminal.",
		Long:          "beerctl signs in to a beer-tasting server, browses rooms and beers, and follows live room events.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.rt != nil {
				a.rt.Close()
			}
			if a.restoreStdLog != nil {
				a.restoreStdLog()
			}
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default ~/.beerctl/config.yaml)")
	pf.StringVar(&flags.apiURL, "api", "", "API base URL, overrides api_url from the config file")
	pf.StringVar(&flags.credentials, "credentials", "", "Credentials file (default ~/.beerctl/credentials.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newLoginCommand(a),
		newRegisterCommand(a),
		newLogoutCommand(a),
		newOpenCommand(a),
		newRoomCommand(a),
		newRateCommand(a),
		newListenCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := clientconfig.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if flags.credentials != "" {
		cfg.CredentialsFile = flags.credentials
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger, err := logging.NewWithSink(cfg.LogLevel, "console", zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	// httpbackoff reports each retry through the standard log package.
	restore, err := zap.RedirectStdLogAt(logger.Named("stdlog"), zapcore.DebugLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	store, err := session.NewFileStore(cfg.CredentialsFile)
	if err != nil {
		restore()
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.restoreStdLog = restore
	a.store = store
	a.out = cmd.OutOrStdout()
	a.api = apiclient.New(cfg.APIURL, store, apiclient.WithLogger(logger))
	a.router = navigation.NewRouter(navigation.DefaultRoutes, store, logger)
	a.router.BeforeEach(navigation.AuthGuard(store, navigation.DefaultPublic...))
	a.rt = realtime.New(realtime.Config{APIURL: cfg.APIURL, WSHost: cfg.WSHost, WSSHost: cfg.WSSHost}, a.api, logger)
	return nil
}
