package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hays/shahnameh-mcp/catalog"
	"github.com/hays/shahnameh-mcp/config"
	"github.com/hays/shahnameh-mcp/server"
	"github.com/hays/shahnameh-mcp/upstream"
)

const name = "shahnameh"

// Set via ldflags at build time.
var version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shahnameh-mcp",
		Short: "MCP server for the Shahnameh corpus API",
		Long: "shahnameh-mcp exposes the chapters, verses and explanation search of the Shahnameh\n" +
			"corpus API as MCP tools over stdio.\n\n" +
			"Environment variables:\n" +
			"  " + config.EnvBaseURL + "    Base address of the corpus API (overridden by --base-url)\n" +
			"  " + config.EnvUserAgent + "  Client name sent upstream\n" +
			"  " + config.EnvLogLevel + "   Log level (overridden by --log-level)\n" +
			"  " + config.EnvLogFormat + "  console or json\n\n" +
			"A .env file in the working directory is loaded first if present.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runServe,
	}

	cmd.Flags().String("config", "", "Path to YAML config file")
	cmd.Flags().String("base-url", "", "Base address of the corpus API (default "+config.DefaultBaseURL+")")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	cmd.Version = version
	cmd.SetVersionTemplate(fmt.Sprintf("%s-mcp v%s\n", name, version))
	// stdout is the MCP protocol stream
	cmd.SetOut(os.Stderr)

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := resolveConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	// Logging to stderr (stdout is MCP protocol)
	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	log.Info().Str("base_url", cfg.BaseURL).Msg("Using corpus API")

	cat, err := catalog.New(cfg.BaseURL, upstream.NewClient(cfg.UserAgent, log.With().Str("component", "upstream").Logger()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport := server.NewTransport(os.Stdin, os.Stdout, log.With().Str("component", "transport").Logger())
	srv := server.NewServer(name, version, cat, transport, log)

	err = srv.Run(ctx)
	switch {
	case errors.Is(err, io.EOF):
		log.Info().Msg("Client disconnected")
		return nil
	case errors.Is(err, context.Canceled):
		log.Info().Msg("Shutting down")
		return nil
	case err != nil:
		log.Error().Err(err).Msg("Server error")
		return err
	}
	return nil
}

// resolveConfig applies defaults, the YAML file, the environment and then
// flags, in that order of increasing precedence.
func resolveConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(lookup)

	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := cfg.ZerologLevel()
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
