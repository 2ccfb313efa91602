package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/flymate/flymate-go/internal/booking"
	"github.com/flymate/flymate-go/internal/config"
	"github.com/flymate/flymate-go/internal/results"
	"github.com/flymate/flymate-go/internal/session"
	"github.com/flymate/flymate-go/internal/transport"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the travel assistant",
	RunE:  runChat,
}

var chatMessage string

// replyWait bounds how long the REPL waits for a persistent-channel
// response before giving the prompt back.
const replyWait = 30 * time.Second

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send one message and exit")
	rootCmd.AddCommand(chatCmd)
}

// repl holds the interactive chat state: the transcript controller, the
// booking flow, and the most recent structured payload so results can be
// picked by number.
type repl struct {
	ctrl *session.Controller
	flow *booking.Flow
	tm   *transport.Manager

	lastPayload *results.Payload
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Server.Token == "" {
		fmt.Println("No credential stored; run `flymate login --token ...` first.")
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
		log.Printf("[Chat] history unavailable: %v", err)
	}

	r := &repl{ctrl: ctrl, flow: flow, tm: tm}

	if chatMessage != "" {
		// Single message mode
		r.send(ctx, chatMessage)
		return nil
	}

	if n := sess.Len(); n > 0 {
		fmt.Printf("(%d earlier messages loaded; /history to show them)\n", n)
	}
	state := tm.State()
	fmt.Printf("✈ FlyMate chat — %s channel (type /help, or 'exit' to quit)\n\n", state.Mode)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nGoodbye!")
		cancel()
		tm.Disconnect()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			break
		}
		if strings.HasPrefix(input, "/") {
			if err := r.command(ctx, input); err != nil {
				fmt.Printf("✗ %v\n", err)
			}
			continue
		}
		r.send(ctx, input)
	}
	return nil
}

// send delivers a message, waits for the reply, and renders everything
// that arrived.
func (r *repl) send(ctx context.Context, text string) {
	before := r.ctrl.Session.Len()
	if err := r.ctrl.SendUserMessage(ctx, text); err != nil {
		// Transcript already carries the apology entry.
		log.Printf("[Chat] %v", err)
	}
	r.waitForReply(ctx)
	r.renderSince(before + 1) // skip the echoed user entry
}

func (r *repl) waitForReply(ctx context.Context) {
	deadline := time.Now().Add(replyWait)
	for r.ctrl.Pending() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	if r.ctrl.Pending() {
		fmt.Println("(still waiting for a reply; it will appear when it arrives)")
	}
}

func (r *repl) renderSince(start int) {
	msgs := r.ctrl.Session.Messages()
	for _, msg := range msgs[min(start, len(msgs)):] {
		renderMessage(msg)
		if msg.Role == session.RoleAssistant && msg.Payload != nil {
			r.lastPayload = msg.Payload
		}
	}
	fmt.Println()
}

func (r *repl) command(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/help":
		fmt.Println(`  /book N          book flight/hotel N from the last results
  /seats           show the seat map for the selected flight
  /seat I CODE     assign seat CODE to segment I (1-based)
  /confirm         confirm seats / submit the booking
  /feedback N ...  rate the booking 1-5 with optional comments
  /cancel          abandon the booking in progress
  /quick N         send quick action N
  /history         print the whole transcript
  /clear           clear the conversation
  /status          show channel and booking state`)
		return nil
	case "/book":
		return r.book(ctx, fields[1:])
	case "/seats":
		sm, err := r.flow.RequestSeatMap(ctx)
		if err != nil {
			return err
		}
		renderSeatMap(sm)
		return nil
	case "/seat":
		return r.assignSeat(fields[1:])
	case "/confirm":
		return r.confirm(ctx)
	case "/feedback":
		return r.feedback(ctx, fields[1:])
	case "/cancel":
		r.flow.Cancel()
		fmt.Println("Booking cancelled.")
		return nil
	case "/quick":
		return r.quick(ctx, fields[1:])
	case "/history":
		for _, msg := range r.ctrl.Session.Messages() {
			renderMessage(msg)
		}
		return nil
	case "/clear":
		if err := r.ctrl.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Conversation cleared.")
		return nil
	case "/status":
		st := r.tm.State()
		fmt.Printf("Channel: %s (connected=%v, pending=%v)\n", st.Mode, st.Connected, st.Pending)
		fmt.Printf("Booking: %s\n", r.flow.State())
		if sel := r.flow.Selection(); sel != nil {
			fmt.Printf("Selection: %s, seats %v\n", sel.Type, sel.Seats)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %s (try /help)", fields[0])
	}
}

func (r *repl) book(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /book N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return errors.New("usage: /book N")
	}
	p := r.lastPayload
	if p == nil {
		return errors.New("no results to book from; search first")
	}

	// Itinerary entries book through the same flow as direct results.
	flights, hotels := p.Flights, p.Hotels
	if p.Kind == results.KindItineraryResults && p.Itinerary != nil {
		flights, hotels = p.Itinerary.Flights, p.Itinerary.Hotels
	}

	switch {
	case len(flights) > 0:
		if n > len(flights) {
			return fmt.Errorf("only %d flights listed", len(flights))
		}
		if err := r.flow.SelectFlight(flights[n-1], ""); err != nil {
			return err
		}
		fmt.Println("Flight selected. Pick seats for every segment, then /confirm.")
		sm, err := r.flow.RequestSeatMap(ctx)
		if err != nil {
			fmt.Printf("Seat map unavailable (%v); /seats to retry.\n", err)
			return nil
		}
		renderSeatMap(sm)
		return nil
	case len(hotels) > 0:
		if n > len(hotels) {
			return fmt.Errorf("only %d hotels listed", len(hotels))
		}
		if err := r.flow.SelectHotel(hotels[n-1], ""); err != nil {
			return err
		}
		fmt.Println("Hotel selected. /confirm to book it.")
		return nil
	default:
		return errors.New("the last response has nothing bookable")
	}
}

func (r *repl) assignSeat(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: /seat SEGMENT CODE (e.g. /seat 1 12A)")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 {
		return errors.New("segment must be a positive number")
	}
	code := strings.ToUpper(args[1])
	if err := r.flow.AssignSeat(idx-1, code); err != nil {
		return err
	}
	fmt.Printf("Seat %s assigned to segment %d.\n", code, idx)
	return nil
}

func (r *repl) confirm(ctx context.Context) error {
	if r.flow.State() == booking.StateSeatPending {
		if err := r.flow.ConfirmSeats(); err != nil {
			return err
		}
	}
	id, err := r.flow.SubmitBooking(ctx)
	if err != nil {
		return fmt.Errorf("%w — /confirm to retry", err)
	}
	fmt.Printf("✓ Booking confirmed! Reference: %s\n", id)
	fmt.Println("Leave a rating with /feedback N [comments].")
	return r.flow.OpenFeedback()
}

func (r *repl) feedback(ctx context.Context, args []string) error {
	rating := 0
	comments := ""
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.New("usage: /feedback N [comments], rating 1-5")
		}
		rating = n
		comments = strings.Join(args[1:], " ")
	}
	if err := r.flow.SubmitFeedback(ctx, rating, comments); err != nil {
		return fmt.Errorf("%w — /feedback to retry", err)
	}
	fmt.Println("✓ Thank you for your feedback!")
	return nil
}

func (r *repl) quick(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: /quick N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return errors.New("usage: /quick N")
	}
	p := r.lastPayload
	if p == nil || n > len(p.QuickActions) {
		return errors.New("no such quick action")
	}
	qa := p.QuickActions[n-1]
	msg := results.QuickActionMessages[qa.Action]
	if msg == "" {
		msg = qa.Text
	}
	r.send(ctx, msg)
	return nil
}
