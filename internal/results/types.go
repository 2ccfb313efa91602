// Package results defines the tagged result model for assistant payloads.
// One payload kind per response type the assistant can return, plus a
// plain-text fallback. The same model backs both the chat transcript and
// booking selection, so a flight picked from a chat card and one picked
// from the search form are the same value.
package results

// Kind discriminates the payload variants.
type Kind string

const (
	KindPlain                  Kind = ""
	KindFlightResults          Kind = "flight_results"
	KindHotelResults           Kind = "hotel_results"
	KindItineraryResults       Kind = "itinerary_results"
	KindDestinationSuggestions Kind = "destination_suggestions"
)

// FlightSegment is one leg of a flight option.
type FlightSegment struct {
	Origin        string `json:"origin"`
	OriginCode    string `json:"origin_code"`
	Destination   string `json:"destination"`
	DestCode      string `json:"dest_code"`
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Duration      string `json:"duration"`
}

// FlightOption is a bookable flight (direct or connecting).
type FlightOption struct {
	Type         string          `json:"type,omitempty"` // "direct" or "connecting"
	Segments     []FlightSegment `json:"segments"`
	LayoverHours float64         `json:"layover_hours,omitempty"` // present iff connecting
	TotalPrice   float64         `json:"total_price"`
	TravelClass  string          `json:"travel_class"`
	Date         string          `json:"date"`
	Passengers   int             `json:"passengers"`
}

// IsConnecting reports whether the option has more than one segment.
func (f FlightOption) IsConnecting() bool {
	return len(f.Segments) > 1
}

// HotelOption is a bookable hotel stay.
type HotelOption struct {
	Name          string  `json:"name"`
	City          string  `json:"city"`
	Rating        float64 `json:"rating"`
	PricePerNight float64 `json:"price_per_night"`
	Nights        int     `json:"nights,omitempty"`
	TotalPrice    float64 `json:"total_price,omitempty"`
	HasWifi       bool    `json:"has_wifi,omitempty"`
	HasPool       bool    `json:"has_pool,omitempty"`
	HasBreakfast  bool    `json:"has_breakfast,omitempty"`
	RoomType      string  `json:"type,omitempty"`
	CheckIn       string  `json:"check_in,omitempty"`
	CheckOut      string  `json:"check_out,omitempty"`
	Guests        int     `json:"guests,omitempty"`
}

// ItineraryDay is one entry of an itinerary's daily plan.
type ItineraryDay struct {
	Day        int      `json:"day"`
	Title      string   `json:"title"`
	Activities []string `json:"activities,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Itinerary is a full trip plan with candidate flights and hotels.
type Itinerary struct {
	Destination   string         `json:"destination"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	Days          int            `json:"days"`
	Travelers     int            `json:"travelers"`
	Flights       []FlightOption `json:"flights,omitempty"`
	Hotels        []HotelOption  `json:"hotels,omitempty"`
	DailyPlan     []ItineraryDay `json:"daily_plan,omitempty"`
	SeasonalNotes []string       `json:"seasonal_notes,omitempty"`
	Budget        float64        `json:"budget,omitempty"`
}

// DestinationSuggestion is a recommended destination with a budget range.
type DestinationSuggestion struct {
	Name      string  `json:"name"`
	MinBudget float64 `json:"min_budget"`
	MaxBudget float64 `json:"max_budget"`
	Boosted   bool    `json:"boosted,omitempty"`
}

// QuickAction is a suggested follow-up the user can tap instead of typing.
type QuickAction struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// DecisionEntry is one line of the assistant's decision log.
type DecisionEntry struct {
	Timestamp string `json:"timestamp"`
	Decision  string `json:"decision"`
}

// Payload is the classified structured data attached to an assistant
// message. Kind selects which of the result fields is populated;
// QuickActions and DecisionLog may accompany any kind.
type Payload struct {
	Kind         Kind                    `json:"type,omitempty"`
	Flights      []FlightOption          `json:"flights,omitempty"`
	Hotels       []HotelOption           `json:"hotels,omitempty"`
	Itinerary    *Itinerary              `json:"itinerary,omitempty"`
	Destinations []DestinationSuggestion `json:"destinations,omitempty"`
	QuickActions []QuickAction           `json:"quick_actions,omitempty"`
	DecisionLog  []DecisionEntry         `json:"decision_log,omitempty"`
}

// IsPlain reports whether the payload carries no structured results.
func (p *Payload) IsPlain() bool {
	return p == nil || (p.Kind == KindPlain &&
		len(p.QuickActions) == 0 && len(p.DecisionLog) == 0)
}

// QuickActionMessages maps quick-action identifiers to the canned chat
// message each one stands for.
var QuickActionMessages = map[string]string{
	"create_itinerary":       "I want to plan a trip",
	"search_flight":          "Find me flights",
	"destination_suggestion": "Suggest destinations for me",
}
