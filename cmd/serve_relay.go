package cmd

import (
	"github.com/rapidpro/relayd/pkg/cmd/server"
	"github.com/spf13/cobra"
)

// serveRelayCmd represents the serve relay command
var serveRelayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve the device sync and operator API instance",
	Run:   server.RunServeRelay(c),
}

func init() {
	serveCmd.AddCommand(serveRelayCmd)
}
