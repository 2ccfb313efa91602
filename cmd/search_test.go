package cmd

import (
	"testing"

	"github.com/flymate/flymate-go/internal/results"
	"github.com/stretchr/testify/assert"
)

func TestSearchMessage(t *testing.T) {
	msg := searchMessage("Delhi", "Mumbai", "2026-09-15", 2, "Business", 0)
	assert.Equal(t, "Find flights from Delhi to Mumbai on 2026-09-15 for 2 traveler(s) in Business class", msg)
}

func TestSearchMessage_WithBudget(t *testing.T) {
	msg := searchMessage("Delhi", "Goa", "2026-10-01", 1, "Economy", 15000)
	assert.Contains(t, msg, "within a budget of 15000")
}

func TestFlightRoute(t *testing.T) {
	direct := results.FlightOption{Segments: []results.FlightSegment{
		{OriginCode: "DEL", DestCode: "BOM"},
	}}
	assert.Equal(t, "DEL → BOM", flightRoute(direct))

	connecting := results.FlightOption{Segments: []results.FlightSegment{
		{OriginCode: "DEL", DestCode: "HYD"},
		{OriginCode: "HYD", DestCode: "BOM"},
	}}
	assert.Equal(t, "DEL → HYD → BOM", flightRoute(connecting))

	assert.Equal(t, "", flightRoute(results.FlightOption{}))
}
