package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"invoiceqa/internal/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the ledger and chat history caches",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached ledger snapshot",
	Long: `Drop the cached ledger snapshot so the next question reads the Google Sheet.

With --chat-id the stored conversation history of that chat is cleared too.`,
	Example: `  invoiceqa cache clear
  invoiceqa cache clear --chat-id 60123456789@c.us`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().String("chat-id", "", "Also clear the history of this chat")
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("cache")
	ctx := context.Background()

	chatID, _ := cmd.Flags().GetString("chat-id")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.source.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to clear ledger cache: %w", err)
	}
	log.Info().Str("worksheet", a.sheets.Worksheet()).Msg("Ledger cache cleared")

	if chatID != "" {
		if err := a.history.Clear(ctx, chatID); err != nil {
			return fmt.Errorf("failed to clear chat history: %w", err)
		}
		log.Info().Str("chat_id", chatID).Msg("Chat history cleared")
	}

	fmt.Println("Cache cleared")
	return nil
}
