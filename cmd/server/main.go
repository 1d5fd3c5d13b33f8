// LinkForge Agent Gateway: the protocol layer that lets software agents
// query public profiles and submit structured inquiries over JSON-RPC 2.0.
//
// Subcommands:
//   - serve: run the gateway HTTP server
//   - apikey: mint, list and deactivate agent API keys
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agent-gateway",
	Short: "LinkForge agent gateway",
	Long:  "The LinkForge agent gateway exposes profile tools and resources to software agents over JSON-RPC 2.0.",
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
