package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"qbank/internal/bankapi"
	"qbank/internal/config"
	"qbank/internal/domain"
	"qbank/internal/log"
	"qbank/internal/search"
	"qbank/internal/service"
	"qbank/internal/store"
	"qbank/internal/tui"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "qbank",
	Short: "Admin console for a scanned-book question bank",
	Long: `qbank is a terminal console for managing a question bank built from
scanned book pages. It browses the cropped page images served by the
bank server, tags them as question or answer evidence, edits question
records, and uploads new PDFs for ingestion.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&serverURL, "server", "", "bank server URL (overrides config)",
	)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(versionCmd)
}

// appEnv holds everything a command needs after bootstrapping.
type appEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *bankapi.Client
	session *service.SessionService
	store   *store.BankStore
}

// bootstrap loads config, wires the logger and client, and verifies the
// persisted token. It fails with ErrAuthRequired when there is no usable
// session.
func bootstrap(ctx context.Context) (*appEnv, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("no server configured; run qbank login --server <url>")
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	client := bankapi.NewClient(cfg.Server.URL, cfg.Server.Token, logger)
	session := service.NewSessionService(client, config.ClearCredentials, logger)

	if _, err := session.Init(ctx, cfg.Server.Token); err != nil {
		return nil, err
	}

	bankStore, err := store.NewBankStore(config.GetCachePath(), cfg.Server.URL)
	if err != nil {
		logger.Warn("cache store unavailable, running without local cache", "error", err)
		bankStore = nil
	}

	return &appEnv{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		session: session,
		store:   bankStore,
	}, nil
}

func runConsole() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	env, err := bootstrap(ctx)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			fmt.Println("Not logged in. Run: qbank login")
			return nil
		}
		return err
	}
	defer func() {
		if env.store != nil {
			env.store.Close()
		}
	}()

	env.logger.Info("starting qbank", "version", version, "server", env.cfg.Server.URL)

	var cacheStore domain.Store
	if env.store != nil {
		cacheStore = env.store
	}

	librarySvc := service.NewLibraryService(env.client, cacheStore, env.logger)
	questionSvc := service.NewQuestionService(env.client, env.client, env.client, librarySvc, env.logger)
	poller := service.NewStatusPoller(env.client, service.DefaultPollerConfig(), env.logger)
	uploadSvc := service.NewUploadService(env.client, poller, librarySvc, env.logger)
	searchSvc := search.NewService(env.logger)

	model := tui.NewModel(tui.Services{
		Session:   env.session,
		Library:   librarySvc,
		Questions: questionSvc,
		Upload:    uploadSvc,
		Search:    searchSvc,
		Store:     env.store,
		Logger:    env.logger,
		ImageURL:  env.client.ImageURL,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		env.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	env.logger.Info("shutting down")
	return nil
}
