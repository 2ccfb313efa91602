package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/flymate/flymate-go/internal/config"
	"github.com/flymate/flymate-go/internal/session"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the stored conversation",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Max messages to fetch (default from config)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	limit := historyLimit
	if limit <= 0 {
		limit = cfg.Chat.HistoryLimit
	}

	client, cch, tm := buildClients(cfg)
	defer cch.Close()

	sess := session.NewSession()
	ctrl := session.NewController(sess, tm, client, cch, cfg.Server.UserID)

	if err := ctrl.LoadHistory(context.Background(), limit); err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	msgs := sess.Messages()
	if len(msgs) == 0 {
		log.Println("No stored messages.")
		return nil
	}
	for _, msg := range msgs {
		renderMessage(msg)
	}
	return nil
}
