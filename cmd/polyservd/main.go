// Command polyservd is the listener + worker-pool wiring around the
// polyhttp core: accept connections, hand each to exactly one worker
// goroutine for its lifetime (spec §5 "Scheduling model"), and dispatch
// completed requests to a static-folder route handler.
//
// Grounded on packetd-packetd/cmd's cobra command tree (agent.go: load
// config, build a long-lived component, run until a signal) adapted from a
// packet-sniffing agent to an HTTP listener.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "polyservd",
	Short: "Multi-protocol HTTP/1, HTTP/2 and WebSocket server",
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the server and block until terminated",
	Example: "# polyservd serve --config polyservd.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath)
	},
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "polyservd.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
