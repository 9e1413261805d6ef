package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"invoiceqa/internal/assistant"
	"invoiceqa/internal/logger"
	"invoiceqa/pkg/models"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about the invoice ledger",
	Long: `Answer one question the way the chat bot would.

The question is classified, answered by a ledger query when one fits and by
the language model otherwise. Payment commands such as "IV2601001 paid" are
applied when --admin is set.

Required environment variables:
  OPENAI_API_KEY - OpenAI API key
  GOOGLE_SHEET_URL - Google Sheets URL of the invoice ledger
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account credentials`,
	Example: `  # English question
  invoiceqa ask "How much does ABC TRADING owe?"

  # Chinese question in a customer's chat
  invoiceqa ask "我们还欠多少钱" --customer-name "ABC TRADING" --chat-id 12345

  # Mark an invoice paid
  invoiceqa ask "IV2601001 paid 20/03/2026" --admin`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("chat-id", "cli", "Conversation ID used for chat history")
	askCmd.Flags().String("group", "", "Chat group title, used to find the chat's customer")
	askCmd.Flags().String("customer-name", "", "Customer this chat belongs to")
	askCmd.Flags().String("customer-code", "", "Debtor code of the chat's customer")
	askCmd.Flags().Bool("admin", false, "Allow payment status updates")
}

func runAsk(cmd *cobra.Command, args []string) error {
	requestID := uuid.NewString()
	log := logger.WithRequestID(requestID).With().Str("component", "ask").Logger()

	chatID, _ := cmd.Flags().GetString("chat-id")
	group, _ := cmd.Flags().GetString("group")
	customerName, _ := cmd.Flags().GetString("customer-name")
	customerCode, _ := cmd.Flags().GetString("customer-code")
	admin, _ := cmd.Flags().GetBool("admin")

	ctx := logger.IntoContext(context.Background(), log)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.assistant()
	if err != nil {
		return err
	}

	req := assistant.Request{
		ChatID:    chatID,
		Text:      strings.Join(args, " "),
		GroupName: group,
		Admin:     admin,
	}
	if customerName != "" || customerCode != "" {
		req.Customer = &models.CustomerContext{CustomerName: customerName, CustomerCode: customerCode, GroupName: group}
	}

	log.Info().
		Str("chat_id", chatID).
		Bool("admin", admin).
		Msg("Answering question")

	reply, err := svc.Ask(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}

	log.Info().
		Str("source", string(reply.Source)).
		Msg("Question answered")

	fmt.Println(reply.Text)
	return nil
}
