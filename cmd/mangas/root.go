package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kerbaras/mangaread/pkg/app"
	"github.com/kerbaras/mangaread/pkg/app/screens"
	"github.com/kerbaras/mangaread/pkg/config"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/integrations"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/kerbaras/mangaread/pkg/sources"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mangaread",
	Short: "Read manga in your terminal",
	Long:  "Browse your manga library and read chapters in a terminal reader that remembers where you stopped",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetString("open")
		return runTUI(start)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/mangaread/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().String("open", "", `screen to open, e.g. "/manga/<id>" or "/manga/<id>/chapter/<chapterId>"`)

	rootCmd.AddCommand(listCmd, addCmd, searchCmd, readCmd, exportCmd, serveCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every command opens: the config, the library database and
// the MangaDex-backed library service.
type env struct {
	cfg     *config.Config
	repo    *data.Repository
	library *services.Library
	logger  zerolog.Logger
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func openEnv(logger zerolog.Logger) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := data.OpenRepository(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", cfg.DBPath, err)
	}
	library := services.NewLibrary(sources.NewMangaDex(), repo, cfg.UserID(), logger)
	return &env{cfg: cfg, repo: repo, library: library, logger: logger}, nil
}

func (e *env) Close() {
	if err := e.repo.Close(); err != nil {
		e.logger.Warn().Err(err).Msg("closing library")
	}
}

func level() zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// consoleLogger is for the one-shot commands.
func consoleLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level()).With().Timestamp().Logger()
}

// fileLogger keeps logs off the screen while the TUI owns the terminal.
func fileLogger(path string) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	logger := zerolog.New(f).Level(level()).With().Timestamp().Str("app", "mangaread").Logger()
	return logger, f, nil
}

func runTUI(start string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := fileLogger(cfg.LogPath())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	e, err := openEnv(logger)
	if err != nil {
		return err
	}
	defer e.Close()

	downloader := services.NewDownloader(services.DefaultPageInterval, services.WithLogger(logger))
	defer downloader.Close()

	deps := &screens.Deps{
		Library:         e.library,
		Downloader:      downloader,
		Exporter:        integrations.NewEPubBuilder(e.cfg.DownloadDir),
		Chapters:        e.library,
		Progress:        e.library,
		Resume:          e.library,
		Auth:            e.cfg,
		Preferences:     reader.PreferencesFromData(e.library.Preferences(e.cfg.Reader)),
		SavePreferences: e.library.SavePreferences,
		Logger:          logger,
	}
	if e.cfg.Remote() {
		remote := sources.NewRemote(e.cfg.ServerURL, e.cfg.Token)
		deps.Chapters = remote
		deps.Progress = remote
		deps.Resume = remote
		logger.Info().Str("server", e.cfg.ServerURL).Msg("reading through server")
	}

	logger.Info().Str("start", start).Msg("starting")
	return app.NewApp(deps, start).Run()
}
