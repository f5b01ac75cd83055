package commands

import (
	"log/slog"

	"github.com/dbsee/dbsee/internal/cli/config"
	"github.com/dbsee/dbsee/internal/cli/output"
	"github.com/dbsee/dbsee/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	cc.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	// ParseMode already ran during config validation.
	mode, _ := output.ParseMode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs outside the root command (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{OutputFormat: config.DefaultOutput, LogLevel: config.DefaultLogLevel}
	}
	return cfg
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if err := cfg.ValidateTarget(); err != nil {
		return nil, err
	}
	return engine.New(engine.Config{
		Target: *cfg.Target,
		Search: cfg.Search,
		Logger: logger,
	})
}
