package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceqa/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoiceqa",
	Short: "invoiceqa - answers questions about the sales invoice ledger",
	Long: `invoiceqa answers questions about a sales invoice ledger kept in Google Sheets.

Questions are classified by a language model into intents. Intents with a
query behind them are answered from the ledger directly, everything else is
answered by the model with the relevant part of the ledger as context.
Admins can mark invoices paid or unpaid.

Run "invoiceqa serve" for the HTTP API used by chat integrations, or use
"ask", "query" and "pay" from the command line.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("invoiceqa executed")

		fmt.Println("Welcome to invoiceqa!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
