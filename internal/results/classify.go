package results

import (
	"encoding/json"
	"fmt"

	"github.com/flymate/flymate-go/internal/utils"
)

// response is the wire shape of an assistant reply, shared by the
// persistent-channel chat_response event and the REST /chat/message body.
type response struct {
	Message       string                  `json:"message"`
	Type          string                  `json:"type,omitempty"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	Flights       []FlightOption          `json:"flights,omitempty"`
	Hotels        []HotelOption           `json:"hotels,omitempty"`
	Itinerary     *Itinerary              `json:"itinerary,omitempty"`
	Destinations  []DestinationSuggestion `json:"destinations,omitempty"`
	QuickActions  []QuickAction           `json:"quick_actions,omitempty"`
	DecisionLog   []DecisionEntry         `json:"decision_log,omitempty"`
}

// Classify parses a raw assistant response into a Payload and the display
// text. A response without a type field is plain text. An unrecognized
// type is downgraded to plain text with a warning appended to the decision
// log; classification never fails.
func Classify(raw []byte) (*Payload, string) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		// Not JSON at all: treat the bytes as the message.
		return nil, string(raw)
	}

	p := &Payload{
		QuickActions: r.QuickActions,
		DecisionLog:  r.DecisionLog,
	}

	switch Kind(r.Type) {
	case KindPlain:
		// text only
	case KindFlightResults:
		p.Kind = KindFlightResults
		p.Flights = r.Flights
	case KindHotelResults:
		p.Kind = KindHotelResults
		p.Hotels = r.Hotels
	case KindItineraryResults:
		p.Kind = KindItineraryResults
		p.Itinerary = r.Itinerary
	case KindDestinationSuggestions:
		p.Kind = KindDestinationSuggestions
		p.Destinations = r.Destinations
	default:
		p.DecisionLog = append(p.DecisionLog, DecisionEntry{
			Timestamp: utils.Timestamp(),
			Decision:  fmt.Sprintf("unrecognized result type %q, showing as text", r.Type),
		})
	}

	if p.IsPlain() {
		p = nil
	}
	return p, r.Message
}

// CorrelationID extracts the correlation identifier echoed by the server,
// if any, without fully classifying the response.
func CorrelationID(raw []byte) string {
	var r struct {
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return ""
	}
	return r.CorrelationID
}
