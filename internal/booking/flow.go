// Package booking drives a selected search result through seat
// assignment, confirmation, and feedback. The same flow backs selections
// made from chat result cards and from the structured search form.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/cache"
	"github.com/flymate/flymate-go/internal/results"
)

// State is a stage of the booking flow.
type State string

const (
	StateIdle              State = "idle"
	StateSelected          State = "selected"
	StateSeatPending       State = "seat_pending"
	StateConfirming        State = "confirming"
	StateConfirmed         State = "confirmed"
	StateFeedbackOpen      State = "feedback_open"
	StateFeedbackSubmitted State = "feedback_submitted"
)

// Selection types.
const (
	TypeFlight = "flight"
	TypeHotel  = "hotel"
)

var (
	// ErrInvalidState means the operation is not valid in the current state.
	ErrInvalidState = errors.New("booking: operation not valid in current state")
	// ErrSeatUnavailable means the target seat is occupied or unknown.
	ErrSeatUnavailable = errors.New("booking: seat unavailable")
	// ErrSeatsIncomplete means not every segment has an assigned seat yet.
	ErrSeatsIncomplete = errors.New("booking: seat assignment incomplete")
	// ErrNoSeatMap means seats cannot be assigned before the seat map is loaded.
	ErrNoSeatMap = errors.New("booking: seat map not loaded")
)

// Selection is the in-progress record of which result entry the user is
// converting into a booking. Owned and mutated only by Flow.
type Selection struct {
	Type               string
	Flight             *results.FlightOption
	Hotel              *results.HotelOption
	Seats              map[int]string // segment index -> seat code
	ItineraryID        string
	ConfirmedBookingID string
}

// API is the booking collaborator. Satisfied by api.Client.
type API interface {
	GetSeatMap(ctx context.Context, travelClass string) (*api.SeatMap, error)
	BookFlight(ctx context.Context, flight results.FlightOption, seats map[int]string, itineraryID string) (*api.Booking, error)
	BookHotel(ctx context.Context, hotel results.HotelOption, checkIn, checkOut string, guests int, itineraryID string) (*api.Booking, error)
	SubmitFeedback(ctx context.Context, bookingRef, bookingType string, rating int, comments string) error
}

// Flow is the booking state machine. All failures leave it in a state
// the caller can retry from; nothing here is fatal.
type Flow struct {
	api    API
	cache  *cache.Cache
	userID string

	mu      sync.Mutex
	state   State
	sel     *Selection
	seatMap *api.SeatMap
}

// NewFlow creates an idle flow. The cache may be nil.
func NewFlow(a API, c *cache.Cache, userID string) *Flow {
	return &Flow{api: a, cache: c, userID: userID, state: StateIdle}
}

// State returns the current stage.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Selection returns a copy of the in-progress selection, or nil.
func (f *Flow) Selection() *Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sel == nil {
		return nil
	}
	cp := *f.sel
	cp.Seats = make(map[int]string, len(f.sel.Seats))
	for k, v := range f.sel.Seats {
		cp.Seats[k] = v
	}
	return &cp
}

// SelectFlight begins a flight booking. Valid only from Idle; flights
// always pass through seat assignment.
func (f *Flow) SelectFlight(flight results.FlightOption, itineraryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return fmt.Errorf("%w: select in %s", ErrInvalidState, f.state)
	}
	fl := flight
	f.sel = &Selection{
		Type:        TypeFlight,
		Flight:      &fl,
		Seats:       make(map[int]string),
		ItineraryID: itineraryID,
	}
	f.seatMap = nil
	f.state = StateSeatPending
	return nil
}

// SelectHotel begins a hotel booking. Valid only from Idle; hotels have
// no seat step and go straight to confirmation.
func (f *Flow) SelectHotel(hotel results.HotelOption, itineraryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return fmt.Errorf("%w: select in %s", ErrInvalidState, f.state)
	}
	h := hotel
	f.sel = &Selection{
		Type:        TypeHotel,
		Hotel:       &h,
		Seats:       make(map[int]string),
		ItineraryID: itineraryID,
	}
	f.state = StateConfirming
	return nil
}

// RequestSeatMap retrieves the cabin layout for the selected flight's
// class. Failure keeps the state and selection intact so the caller can
// retry.
func (f *Flow) RequestSeatMap(ctx context.Context) (*api.SeatMap, error) {
	f.mu.Lock()
	if f.state != StateSeatPending || f.sel == nil || f.sel.Flight == nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: seat map in %s", ErrInvalidState, f.state)
	}
	class := f.sel.Flight.TravelClass
	f.mu.Unlock()

	sm, err := f.api.GetSeatMap(ctx, class)
	if err != nil {
		log.Printf("[Booking] seat map fetch failed: %v", err)
		return nil, err
	}

	f.mu.Lock()
	if f.state == StateSeatPending {
		f.seatMap = sm
	}
	f.mu.Unlock()
	return sm, nil
}

// SeatMap returns the retrieved cabin layout, or nil before RequestSeatMap.
func (f *Flow) SeatMap() *api.SeatMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seatMap
}

// AssignSeat chooses a seat for one segment. An unavailable or unknown
// seat is rejected without touching the existing assignment. Assigning a
// segment twice overwrites the earlier choice.
func (f *Flow) AssignSeat(segmentIndex int, seatCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSeatPending || f.sel == nil || f.sel.Flight == nil {
		return fmt.Errorf("%w: assign seat in %s", ErrInvalidState, f.state)
	}
	if segmentIndex < 0 || segmentIndex >= len(f.sel.Flight.Segments) {
		return fmt.Errorf("booking: segment %d out of range", segmentIndex)
	}
	if f.seatMap == nil {
		return ErrNoSeatMap
	}
	seat := f.seatMap.Find(seatCode)
	if seat == nil || !seat.Available {
		return ErrSeatUnavailable
	}
	f.sel.Seats[segmentIndex] = seatCode
	return nil
}

// ConfirmSeats moves to confirmation once every segment has a seat.
// With segments missing it changes nothing and reports which are left.
func (f *Flow) ConfirmSeats() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateSeatPending || f.sel == nil || f.sel.Flight == nil {
		return fmt.Errorf("%w: confirm seats in %s", ErrInvalidState, f.state)
	}
	for i := range f.sel.Flight.Segments {
		if _, ok := f.sel.Seats[i]; !ok {
			return fmt.Errorf("%w: segment %d has no seat", ErrSeatsIncomplete, i)
		}
	}
	f.state = StateConfirming
	return nil
}

// SubmitBooking invokes the booking collaborator with the selection.
// Success reaches Confirmed and records the booking id; failure drops
// back to Selected so the same selection can be resubmitted. Also valid
// from Selected, which is the retry after a failed submit.
func (f *Flow) SubmitBooking(ctx context.Context) (string, error) {
	f.mu.Lock()
	if (f.state != StateConfirming && f.state != StateSelected) || f.sel == nil {
		f.mu.Unlock()
		return "", fmt.Errorf("%w: submit in %s", ErrInvalidState, f.state)
	}
	f.state = StateConfirming
	sel := f.sel
	f.mu.Unlock()

	var booked *api.Booking
	var err error
	switch sel.Type {
	case TypeFlight:
		booked, err = f.api.BookFlight(ctx, *sel.Flight, sel.Seats, sel.ItineraryID)
	case TypeHotel:
		checkIn, checkOut, guests := hotelStay(sel.Hotel)
		booked, err = f.api.BookHotel(ctx, *sel.Hotel, checkIn, checkOut, guests, sel.ItineraryID)
	default:
		err = fmt.Errorf("booking: unknown selection type %q", sel.Type)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Cancel may have fired while the request was in flight; the
	// selection is gone and must not be resurrected.
	cancelled := f.sel == nil || f.state != StateConfirming

	if err != nil {
		log.Printf("[Booking] submit failed: %v", err)
		if !cancelled {
			f.state = StateSelected
		}
		return "", fmt.Errorf("booking: submit: %w", err)
	}

	f.cache.SetJSON(ctx, cache.BookingKey(f.userID), map[string]string{
		"booking_id": booked.BookingID,
		"type":       sel.Type,
	})
	if cancelled {
		log.Printf("[Booking] cancelled during submit; booking %s completed anyway", booked.BookingID)
		return booked.BookingID, nil
	}
	f.sel.ConfirmedBookingID = booked.BookingID
	f.state = StateConfirmed
	return booked.BookingID, nil
}

// OpenFeedback opens the feedback stage for a confirmed booking.
func (f *Flow) OpenFeedback() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateConfirmed && f.state != StateFeedbackOpen {
		return fmt.Errorf("%w: feedback in %s", ErrInvalidState, f.state)
	}
	f.state = StateFeedbackOpen
	return nil
}

// SubmitFeedback records a rating (1-5, default 5 when unset) and
// comments. Failure keeps the feedback stage open for retry.
func (f *Flow) SubmitFeedback(ctx context.Context, rating int, comments string) error {
	f.mu.Lock()
	if (f.state != StateConfirmed && f.state != StateFeedbackOpen) || f.sel == nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: feedback in %s", ErrInvalidState, f.state)
	}
	f.state = StateFeedbackOpen
	ref := f.sel.ConfirmedBookingID
	bookingType := f.sel.Type
	f.mu.Unlock()

	if rating == 0 {
		rating = 5
	}
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	if err := f.api.SubmitFeedback(ctx, ref, bookingType, rating, comments); err != nil {
		log.Printf("[Booking] feedback failed: %v", err)
		return fmt.Errorf("booking: feedback: %w", err)
	}

	f.mu.Lock()
	// Skip the transition if Cancel fired while the request was in flight.
	if f.state == StateFeedbackOpen {
		f.state = StateFeedbackSubmitted
	}
	f.mu.Unlock()
	return nil
}

// Cancel discards the current selection and returns to Idle. A no-op
// when already Idle; never fails. It does not reach out to the network:
// requests already issued run to completion on their own.
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sel = nil
	f.seatMap = nil
	f.state = StateIdle
}

// hotelStay fills best-effort stay parameters when the entry carries
// none: check-in today, check-out tomorrow, one guest.
func hotelStay(h *results.HotelOption) (checkIn, checkOut string, guests int) {
	checkIn = h.CheckIn
	if checkIn == "" {
		checkIn = time.Now().Format("2006-01-02")
	}
	checkOut = h.CheckOut
	if checkOut == "" {
		checkOut = time.Now().Add(24 * time.Hour).Format("2006-01-02")
	}
	guests = h.Guests
	if guests == 0 {
		guests = 1
	}
	return checkIn, checkOut, guests
}
