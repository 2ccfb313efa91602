package cmd

import (
	"fmt"
	"strings"

	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/results"
	"github.com/flymate/flymate-go/internal/session"
	"github.com/flymate/flymate-go/internal/utils"
)

// maxCards limits how many result cards are printed per response; the
// full list stays in the transcript and is still selectable by number.
const maxCards = 3

func renderMessage(msg session.Message) {
	switch msg.Role {
	case session.RoleUser:
		fmt.Printf("You [%s]: %s\n", msg.Timestamp.Format("15:04"), msg.Content)
	default:
		fmt.Printf("\n✈ FlyMate [%s]\n%s\n", msg.Timestamp.Format("15:04"), msg.Content)
		renderPayload(msg.Payload)
	}
}

func renderPayload(p *results.Payload) {
	if p == nil {
		return
	}

	switch p.Kind {
	case results.KindFlightResults:
		renderFlights(p.Flights)
	case results.KindHotelResults:
		renderHotels(p.Hotels)
	case results.KindItineraryResults:
		renderItinerary(p.Itinerary)
	case results.KindDestinationSuggestions:
		for _, d := range p.Destinations {
			boost := ""
			if d.Boosted {
				boost = "  (recommended for season)"
			}
			fmt.Printf("  • %s  %s - %s%s\n", d.Name,
				utils.FormatPrice(d.MinBudget), utils.FormatPrice(d.MaxBudget), boost)
		}
	}

	if len(p.QuickActions) > 0 {
		fmt.Println("\nQuick actions (use /quick N):")
		for i, qa := range p.QuickActions {
			fmt.Printf("  [%d] %s\n", i+1, qa.Text)
		}
	}
	if len(p.DecisionLog) > 0 {
		fmt.Println("\nDecision log:")
		for _, d := range p.DecisionLog {
			fmt.Printf("  %s  %s\n", d.Timestamp, utils.TruncateString(d.Decision, 100, "..."))
		}
	}
}

// flightRoute joins the segment endpoints, e.g. "DEL → HYD → BOM".
func flightRoute(f results.FlightOption) string {
	if len(f.Segments) == 0 {
		return ""
	}
	parts := []string{f.Segments[0].OriginCode}
	for _, seg := range f.Segments {
		parts = append(parts, seg.DestCode)
	}
	return strings.Join(parts, " → ")
}

// flightStops summarizes the connections, e.g. "Direct" or
// "2 stops, 3.5h layover".
func flightStops(f results.FlightOption) string {
	n := len(f.Segments) - 1
	switch {
	case n <= 0:
		return "Direct"
	case n == 1:
		return fmt.Sprintf("1 stop, %.1fh layover", f.LayoverHours)
	default:
		return fmt.Sprintf("%d stops, %.1fh layover", n, f.LayoverHours)
	}
}

func renderFlights(flights []results.FlightOption) {
	shown := flights
	if len(shown) > maxCards {
		shown = shown[:maxCards]
	}
	for i, f := range shown {
		fmt.Printf("  [%d] %s  %s  %s  %s  %s\n", i+1, flightRoute(f), f.Date, flightStops(f),
			utils.FormatPrice(f.TotalPrice), f.TravelClass)
		for _, seg := range f.Segments {
			fmt.Printf("      %s %s  %s %s → %s %s  (%s)\n",
				seg.Airline, seg.FlightNumber,
				seg.OriginCode, seg.DepartureTime,
				seg.DestCode, seg.ArrivalTime, seg.Duration)
		}
	}
	if len(flights) > maxCards {
		fmt.Printf("  ... and %d more\n", len(flights)-maxCards)
	}
	fmt.Println("\nUse /book N to book a flight.")
}

func renderHotels(hotels []results.HotelOption) {
	shown := hotels
	if len(shown) > maxCards {
		shown = shown[:maxCards]
	}
	for i, h := range shown {
		amenities := []string{}
		if h.HasWifi {
			amenities = append(amenities, "wifi")
		}
		if h.HasPool {
			amenities = append(amenities, "pool")
		}
		if h.HasBreakfast {
			amenities = append(amenities, "breakfast")
		}
		fmt.Printf("  [%d] %s, %s  %s  %s/night", i+1, h.Name, h.City,
			utils.Stars(h.Rating), utils.FormatPrice(h.PricePerNight))
		if h.Nights > 0 {
			fmt.Printf("  %d nights, total %s", h.Nights, utils.FormatPrice(h.TotalPrice))
		}
		if len(amenities) > 0 {
			fmt.Printf("  [%s]", strings.Join(amenities, ", "))
		}
		fmt.Println()
	}
	if len(hotels) > maxCards {
		fmt.Printf("  ... and %d more\n", len(hotels)-maxCards)
	}
	fmt.Println("\nUse /book N to book a hotel.")
}

func renderItinerary(it *results.Itinerary) {
	if it == nil {
		return
	}
	fmt.Printf("  %s itinerary: %s to %s (%d days, %d travelers)\n",
		it.Destination, it.StartDate, it.EndDate, it.Days, it.Travelers)
	for _, note := range it.SeasonalNotes {
		fmt.Printf("  ⓘ %s\n", note)
	}
	if len(it.Flights) > 0 {
		fmt.Println("  Flights:")
		renderFlights(it.Flights)
	}
	if len(it.Hotels) > 0 {
		fmt.Println("  Hotels:")
		renderHotels(it.Hotels)
	}
	for _, day := range it.DailyPlan {
		fmt.Printf("  Day %d: %s\n", day.Day, day.Title)
		for _, act := range day.Activities {
			fmt.Printf("    - %s\n", act)
		}
		if day.Notes != "" {
			fmt.Printf("    (%s)\n", day.Notes)
		}
	}
	if it.Budget > 0 {
		fmt.Printf("  Estimated budget: %s\n", utils.FormatPrice(it.Budget))
	}
}

func renderSeatMap(sm *api.SeatMap) {
	if sm == nil {
		fmt.Println("No seat map loaded. Use /seats to fetch it.")
		return
	}
	for _, row := range sm.Rows {
		var b strings.Builder
		fmt.Fprintf(&b, "  %2d  ", row.RowNumber)
		for i, seat := range row.Seats {
			if i == 3 {
				b.WriteString("   ") // aisle
			}
			if seat.Available {
				fmt.Fprintf(&b, " %-3s", seat.Seat)
			} else {
				b.WriteString("  × ")
			}
		}
		fmt.Println(b.String())
	}
	fmt.Println("  (× = occupied)")
}
