package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title SafeRoute API
// @version 1.0
// @description Community safety incidents, votes with reputation and realtime SOS alerts.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()

	rootCmd := &cobra.Command{
		Use:           "saferoute",
		Short:         "SafeRoute incident and SOS broadcasting service",
		SilenceUsage:  true,
		SilenceErrors: false,
		// Без подкоманды запускается сервер
		RunE: serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd, newMigrateCmd(), newTokenCmd())
	return rootCmd
}
