package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"live2mcp/internal/config"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGenericError   = 1
	ExitConfigInvalid  = 2
	ExitBindFailure    = 3
	ExitConnectFailure = 4
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	Host       string
	Port       int
	JSON       bool
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "live2mcp",
	Short: "Control surface daemon and MCP bridge for session-based music making",
	Long: "live2mcp runs a host-side control surface over TCP and bridges it " +
		"to MCP clients over stdio, so a model can build tracks, clips and " +
		"arrangements through tool calls.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "config file path (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Host, "host", "", "control surface host")
	rootCmd.PersistentFlags().IntVar(&globalFlags.Port, "port", 0, "control surface port")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "emit machine-readable output")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(surfaceCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// loadConfig resolves configuration with flag overrides applied last.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	overrides := &config.Overrides{}
	if cmd.Flags().Changed("host") || cmd.InheritedFlags().Changed("host") {
		overrides.Host = &globalFlags.Host
	}
	if cmd.Flags().Changed("port") || cmd.InheritedFlags().Changed("port") {
		overrides.Port = &globalFlags.Port
	}
	return config.Load(config.Options{
		ConfigPath: globalFlags.ConfigPath,
		Overrides:  overrides,
	})
}

// newLogger builds a slog logger per the log config. Quiet mode raises
// the floor to warnings.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if globalFlags.Quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
