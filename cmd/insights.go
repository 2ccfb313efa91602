package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/config"
	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show feedback insights for your bookings",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := api.NewClient(cfg.Server.APIURL, cfg.Server.Token)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ins, err := client.GetFeedbackInsights(ctx)
	if err != nil {
		return fmt.Errorf("fetching insights: %w", err)
	}

	fmt.Printf("Average rating: %.1f over %d feedbacks\n", ins.AverageRating, ins.TotalFeedbacks)
	if len(ins.Insights) == 0 {
		fmt.Println("No insights yet. Leave more feedback to get personalized recommendations!")
		return nil
	}
	for _, line := range ins.Insights {
		fmt.Printf("  • %s\n", line)
	}
	return nil
}
