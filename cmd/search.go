package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/flymate/flymate-go/internal/booking"
	"github.com/flymate/flymate-go/internal/config"
	"github.com/flymate/flymate-go/internal/session"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search flights with a structured form",
	Long:  "Search flights by origin, destination and date. The form is sent through the same conversation as chat, so results can be booked the same way.",
	RunE:  runSearch,
}

var (
	searchOrigin      string
	searchDestination string
	searchDate        string
	searchTravelers   int
	searchClass       string
	searchBudget      int
)

func init() {
	searchCmd.Flags().StringVar(&searchOrigin, "from", "", "Origin city or airport")
	searchCmd.Flags().StringVar(&searchDestination, "to", "", "Destination city or airport")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Travel date (YYYY-MM-DD)")
	searchCmd.Flags().IntVar(&searchTravelers, "travelers", 1, "Number of travelers")
	searchCmd.Flags().StringVar(&searchClass, "class", "Economy", "Travel class")
	searchCmd.Flags().IntVar(&searchBudget, "budget", 0, "Budget in rupees (optional)")
	searchCmd.MarkFlagRequired("from")
	searchCmd.MarkFlagRequired("to")
	searchCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(searchCmd)
}

// searchMessage turns the form fields into the chat message the
// assistant understands; form search and chat search share one path.
func searchMessage(origin, destination, date string, travelers int, class string, budget int) string {
	msg := fmt.Sprintf("Find flights from %s to %s on %s for %d traveler(s) in %s class",
		origin, destination, date, travelers, class)
	if budget > 0 {
		msg += fmt.Sprintf(" within a budget of %d", budget)
	}
	return msg
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, cch, tm := buildClients(cfg)
	defer cch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := session.NewSession()
	ctrl := session.NewController(sess, tm, client, cch, cfg.Server.UserID)
	flow := booking.NewFlow(client, cch, cfg.Server.UserID)

	tm.Connect(ctx)
	defer tm.Disconnect()
	ctrl.Attach()
	defer ctrl.Detach()

	if err := ctrl.LoadHistory(ctx, cfg.Chat.HistoryLimit); err != nil {
		log.Printf("[Search] history unavailable: %v", err)
	}

	r := &repl{ctrl: ctrl, flow: flow, tm: tm}
	r.send(ctx, searchMessage(searchOrigin, searchDestination, searchDate,
		searchTravelers, searchClass, searchBudget))

	fmt.Println("Continue in `flymate chat` to book a result (/book N).")
	return nil
}
