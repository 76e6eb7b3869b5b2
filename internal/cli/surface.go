package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"live2mcp/internal/surface"
)

var surfaceCmd = &cobra.Command{
	Use:   "surface",
	Short: "Run the control surface daemon",
	Long: "surface listens for JSON commands over TCP, applies them to the " +
		"song and persists snapshots so the session survives restarts.",
	RunE: runSurface,
}

var (
	surfaceSnapshotPath string
	surfaceSnapshotKeep int
)

func init() {
	surfaceCmd.Flags().StringVar(&surfaceSnapshotPath, "snapshot-path", "", "SQLite file for song snapshots (empty disables persistence)")
	surfaceCmd.Flags().IntVar(&surfaceSnapshotKeep, "snapshot-keep", 0, "snapshots to retain")
}

func runSurface(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}
	if cmd.Flags().Changed("snapshot-path") {
		cfg.Surface.SnapshotPath = surfaceSnapshotPath
	}
	if cmd.Flags().Changed("snapshot-keep") {
		cfg.Surface.SnapshotKeep = surfaceSnapshotKeep
	}

	logger := newLogger(cfg.Log, os.Stderr)
	srv := surface.New(surface.Config{
		Host:         cfg.Surface.Host,
		Port:         cfg.Surface.Port,
		SnapshotPath: cfg.Surface.SnapshotPath,
		SnapshotKeep: cfg.Surface.SnapshotKeep,
	}, logger)

	if !globalFlags.Quiet && !globalFlags.JSON {
		st := newStyles(os.Stdout, globalFlags.JSON)
		fmt.Println(st.banner(), st.dim("control surface on "+srv.Addr()))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		exitWith(ExitBindFailure, "ERROR: "+err.Error())
	}
	return nil
}
