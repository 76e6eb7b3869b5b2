package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"live2mcp/internal/protocol"
)

const version = "0.4.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	RunE:  runVersion,
}

func runVersion(_ *cobra.Command, _ []string) error {
	fmt.Printf("live2mcp %s (protocol %s)\n", version, protocol.Version)
	return nil
}
