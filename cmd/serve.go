package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoiceqa/internal/logger"
	"invoiceqa/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question API over HTTP",
	Long: `Start an HTTP server answering chat messages.

Endpoints:
  POST /ask     - {"chat_id", "sender_id", "text", "group_name", "customer_name", "customer_code"}
  GET  /health  - liveness probe
  GET  /metrics - Prometheus metrics

Senders listed in ADMIN_IDS may send payment commands.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key
  GOOGLE_SHEET_URL - Google Sheets URL of the invoice ledger
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account credentials`,
	Example: `  # Listen on METRICS_ADDR (default :9090)
  invoiceqa serve

  # Listen on a custom address
  invoiceqa serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default METRICS_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.assistant()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.MetricsAddr
	}

	log.Info().
		Str("addr", addr).
		Int("admins", len(a.cfg.AdminIDs)).
		Msg("Starting server")

	if err := server.New(svc, a.cfg.AdminIDs).ListenAndServe(ctx, addr); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
