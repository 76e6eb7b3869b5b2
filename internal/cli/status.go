package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"live2mcp/internal/bridge"
	"live2mcp/internal/protocol"
	"live2mcp/internal/song"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the control surface and show the session state",
	RunE:  runStatus,
}

const statusTimeout = 10 * time.Second

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	session := bridge.New(cfg.Addr(), newLogger(cfg.Log, os.Stderr))
	defer func() { _ = session.Close() }()

	st := newStyles(os.Stdout, globalFlags.JSON)
	if err := session.Connect(ctx); err != nil {
		exitWith(ExitConnectFailure, fmt.Sprintf("%s cannot reach control surface at %s: %v\nRun 'live2mcp surface' first.",
			st.errPrefix(), cfg.Addr(), err))
	}

	var caps struct {
		Version  string   `json:"version"`
		Commands []string `json:"commands"`
	}
	if err := session.SendCommand(ctx, protocol.CmdGetCapabilities, nil, &caps); err != nil {
		return err
	}
	var info song.SessionInfo
	if err := session.SendCommand(ctx, protocol.CmdGetSessionInfo, nil, &info); err != nil {
		return err
	}

	if globalFlags.JSON {
		out := map[string]any{
			"surface": map[string]any{
				"addr":     cfg.Addr(),
				"version":  caps.Version,
				"commands": len(caps.Commands),
			},
			"session": info,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(st.sectionHeader("Surface"))
	fmt.Println(st.kv("Address", cfg.Addr()))
	fmt.Println(st.kv("Protocol", caps.Version))
	fmt.Println(st.kv("Commands", fmt.Sprintf("%d", len(caps.Commands))))
	fmt.Println()
	fmt.Println(st.sectionHeader("Session"))
	fmt.Println(st.kv("Tempo", fmt.Sprintf("%g BPM", info.Tempo)))
	fmt.Println(st.kv("Signature", fmt.Sprintf("%d/%d", info.SignatureNumerator, info.SignatureDenominator)))
	fmt.Println(st.kv("Tracks", fmt.Sprintf("%d", info.TrackCount)))
	fmt.Println(st.kv("Returns", fmt.Sprintf("%d", info.ReturnTrackCount)))
	fmt.Println(st.kv("Master", fmt.Sprintf("%s (volume %.2f)", info.MasterTrack.Name, info.MasterTrack.Volume)))
	return nil
}
