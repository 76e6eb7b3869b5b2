package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"live2mcp/internal/bridge"
	"live2mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools over stdio, bridged to the control surface",
	Long: "serve speaks MCP on stdin and stdout and forwards tool calls to " +
		"the control surface daemon. Logs go to stderr to keep the stdio " +
		"transport clean.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	logger := newLogger(cfg.Log, os.Stderr)
	session := bridge.New(cfg.Addr(), logger)
	srv := mcp.NewServer(session, logger)
	defer func() { _ = srv.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mcp server starting", "surface", cfg.Addr())
	return srv.Run(ctx)
}
