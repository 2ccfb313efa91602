package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	seatMap    *api.SeatMap
	seatMapErr error

	bookErr     error
	bookedID    string
	flightCalls int
	hotelCalls  int

	gotSeats    map[int]string
	gotCheckIn  string
	gotCheckOut string
	gotGuests   int

	feedbackErr    error
	gotRating      int
	gotComments    string
	gotBookingRef  string
	gotBookingType string
}

func (f *fakeAPI) GetSeatMap(ctx context.Context, travelClass string) (*api.SeatMap, error) {
	if f.seatMapErr != nil {
		return nil, f.seatMapErr
	}
	return f.seatMap, nil
}

func (f *fakeAPI) BookFlight(ctx context.Context, flight results.FlightOption, seats map[int]string, itineraryID string) (*api.Booking, error) {
	f.flightCalls++
	f.gotSeats = seats
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &api.Booking{BookingID: f.bookedID}, nil
}

func (f *fakeAPI) BookHotel(ctx context.Context, hotel results.HotelOption, checkIn, checkOut string, guests int, itineraryID string) (*api.Booking, error) {
	f.hotelCalls++
	f.gotCheckIn = checkIn
	f.gotCheckOut = checkOut
	f.gotGuests = guests
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &api.Booking{BookingID: f.bookedID}, nil
}

func (f *fakeAPI) SubmitFeedback(ctx context.Context, bookingRef, bookingType string, rating int, comments string) error {
	f.gotBookingRef = bookingRef
	f.gotBookingType = bookingType
	f.gotRating = rating
	f.gotComments = comments
	return f.feedbackErr
}

func twoSegmentFlight() results.FlightOption {
	return results.FlightOption{
		Segments:    []results.FlightSegment{{OriginCode: "DEL", DestCode: "HYD"}, {OriginCode: "HYD", DestCode: "BOM"}},
		TravelClass: "Economy",
		TotalPrice:  5600,
	}
}

func openSeatMap() *api.SeatMap {
	return &api.SeatMap{Rows: []api.SeatRow{{
		RowNumber: 12,
		Seats: []api.Seat{
			{Seat: "12A", Type: "window", Available: true},
			{Seat: "12B", Type: "middle", Available: false},
			{Seat: "12C", Type: "aisle", Available: true},
		},
	}}}
}

func TestFlow_SelectFlight_EntersSeatPending(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	assert.Equal(t, StateSeatPending, f.State())

	sel := f.Selection()
	require.NotNil(t, sel)
	assert.Equal(t, TypeFlight, sel.Type)
	assert.Empty(t, sel.Seats)
}

func TestFlow_SelectHotel_SkipsSeats(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))
	assert.Equal(t, StateConfirming, f.State())
}

func TestFlow_Select_OnlyFromIdle(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))

	err := f.SelectHotel(results.HotelOption{}, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateSeatPending, f.State())
}

func TestFlow_RequestSeatMap_FailureKeepsState(t *testing.T) {
	fa := &fakeAPI{seatMapErr: errors.New("502")}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))

	_, err := f.RequestSeatMap(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateSeatPending, f.State())
	assert.NotNil(t, f.Selection(), "selection survives a seat-map failure")
}

func TestFlow_AssignSeat_UnavailableRejected(t *testing.T) {
	fa := &fakeAPI{seatMap: openSeatMap()}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	_, err := f.RequestSeatMap(context.Background())
	require.NoError(t, err)

	err = f.AssignSeat(0, "12B") // occupied
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Empty(t, f.Selection().Seats, "rejected assignment leaves the map untouched")

	err = f.AssignSeat(0, "99Z") // not in the map
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestFlow_AssignSeat_RequiresSeatMap(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	assert.ErrorIs(t, f.AssignSeat(0, "12A"), ErrNoSeatMap)
}

func TestFlow_AssignSeat_OverwritesSegment(t *testing.T) {
	fa := &fakeAPI{seatMap: openSeatMap()}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	_, err := f.RequestSeatMap(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.AssignSeat(0, "12A"))
	require.NoError(t, f.AssignSeat(0, "12C"))
	assert.Equal(t, map[int]string{0: "12C"}, f.Selection().Seats)
}

func TestFlow_ConfirmSeats_RequiresEverySegment(t *testing.T) {
	fa := &fakeAPI{seatMap: openSeatMap()}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	_, err := f.RequestSeatMap(context.Background())
	require.NoError(t, err)

	// Only segment 0 assigned: confirmation must not advance.
	require.NoError(t, f.AssignSeat(0, "12A"))
	assert.ErrorIs(t, f.ConfirmSeats(), ErrSeatsIncomplete)
	assert.Equal(t, StateSeatPending, f.State())

	require.NoError(t, f.AssignSeat(1, "12C"))
	require.NoError(t, f.ConfirmSeats())
	assert.Equal(t, StateConfirming, f.State())
}

func TestFlow_SubmitBooking_FlightSuccess(t *testing.T) {
	fa := &fakeAPI{seatMap: openSeatMap(), bookedID: "FL-900"}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	_, err := f.RequestSeatMap(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.AssignSeat(0, "12A"))
	require.NoError(t, f.AssignSeat(1, "12C"))
	require.NoError(t, f.ConfirmSeats())

	id, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FL-900", id)
	assert.Equal(t, StateConfirmed, f.State())
	assert.Equal(t, "FL-900", f.Selection().ConfirmedBookingID)
	assert.Equal(t, map[int]string{0: "12A", 1: "12C"}, fa.gotSeats)
}

func TestFlow_SubmitBooking_HotelRoundTrip(t *testing.T) {
	fa := &fakeAPI{bookedID: "HT-17"}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))

	id, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HT-17", id)
	assert.Equal(t, StateConfirmed, f.State())

	// Best-effort stay: today to tomorrow, one guest.
	today := time.Now().Format("2006-01-02")
	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	assert.Equal(t, today, fa.gotCheckIn)
	assert.Equal(t, tomorrow, fa.gotCheckOut)
	assert.Equal(t, 1, fa.gotGuests)
}

func TestFlow_SubmitBooking_HotelExplicitStay(t *testing.T) {
	fa := &fakeAPI{bookedID: "HT-18"}
	f := NewFlow(fa, nil, "u")
	hotel := results.HotelOption{Name: "Leela", CheckIn: "2026-09-10", CheckOut: "2026-09-14", Guests: 3}
	require.NoError(t, f.SelectHotel(hotel, ""))

	_, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-09-10", fa.gotCheckIn)
	assert.Equal(t, "2026-09-14", fa.gotCheckOut)
	assert.Equal(t, 3, fa.gotGuests)
}

func TestFlow_SubmitBooking_FailureAllowsRetry(t *testing.T) {
	fa := &fakeAPI{bookErr: errors.New("500")}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))

	_, err := f.SubmitBooking(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateSelected, f.State())
	assert.NotNil(t, f.Selection(), "selection kept for retry")

	fa.bookErr = nil
	fa.bookedID = "HT-19"
	id, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "HT-19", id)
	assert.Equal(t, StateConfirmed, f.State())
	assert.Equal(t, 2, fa.hotelCalls)
}

func TestFlow_SubmitBooking_InvalidState(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	_, err := f.SubmitBooking(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFlow_Feedback_DefaultsAndSubmits(t *testing.T) {
	fa := &fakeAPI{bookedID: "HT-20"}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))
	_, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.OpenFeedback())
	assert.Equal(t, StateFeedbackOpen, f.State())

	require.NoError(t, f.SubmitFeedback(context.Background(), 0, "great trip"))
	assert.Equal(t, StateFeedbackSubmitted, f.State())
	assert.Equal(t, 5, fa.gotRating, "unset rating defaults to 5")
	assert.Equal(t, "great trip", fa.gotComments)
	assert.Equal(t, "HT-20", fa.gotBookingRef)
	assert.Equal(t, TypeHotel, fa.gotBookingType)
}

func TestFlow_Feedback_FailureStaysOpen(t *testing.T) {
	fa := &fakeAPI{bookedID: "HT-21", feedbackErr: errors.New("timeout")}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))
	_, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)

	require.Error(t, f.SubmitFeedback(context.Background(), 4, ""))
	assert.Equal(t, StateFeedbackOpen, f.State())

	fa.feedbackErr = nil
	require.NoError(t, f.SubmitFeedback(context.Background(), 4, "ok"))
	assert.Equal(t, StateFeedbackSubmitted, f.State())
}

func TestFlow_Feedback_ClampsRating(t *testing.T) {
	fa := &fakeAPI{bookedID: "HT-22"}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))
	_, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.SubmitFeedback(context.Background(), 11, ""))
	assert.Equal(t, 5, fa.gotRating)
}

// blockingAPI parks collaborator calls at a gate so a test can interleave
// Cancel with an in-flight request.
type blockingAPI struct {
	fakeAPI
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAPI) arm() {
	b.mu.Lock()
	b.entered = make(chan struct{})
	b.release = make(chan struct{})
	b.mu.Unlock()
}

func (b *blockingAPI) gate() {
	b.mu.Lock()
	entered, release := b.entered, b.release
	b.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
}

func (b *blockingAPI) BookHotel(ctx context.Context, hotel results.HotelOption, checkIn, checkOut string, guests int, itineraryID string) (*api.Booking, error) {
	b.gate()
	return b.fakeAPI.BookHotel(ctx, hotel, checkIn, checkOut, guests, itineraryID)
}

func (b *blockingAPI) SubmitFeedback(ctx context.Context, bookingRef, bookingType string, rating int, comments string) error {
	b.gate()
	return b.fakeAPI.SubmitFeedback(ctx, bookingRef, bookingType, rating, comments)
}

func TestFlow_CancelDuringSubmit(t *testing.T) {
	ba := &blockingAPI{fakeAPI: fakeAPI{bookedID: "HT-30"}}
	ba.arm()
	f := NewFlow(ba, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))

	done := make(chan error, 1)
	go func() {
		_, err := f.SubmitBooking(context.Background())
		done <- err
	}()

	<-ba.entered
	f.Cancel()
	close(ba.release)

	// The request runs to completion; the flow stays cancelled.
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, f.State())
	assert.Nil(t, f.Selection())
}

func TestFlow_CancelDuringFeedback(t *testing.T) {
	ba := &blockingAPI{fakeAPI: fakeAPI{bookedID: "HT-31"}}
	f := NewFlow(ba, nil, "u")
	require.NoError(t, f.SelectHotel(results.HotelOption{Name: "Taj"}, ""))
	_, err := f.SubmitBooking(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.OpenFeedback())

	ba.arm()
	done := make(chan error, 1)
	go func() {
		done <- f.SubmitFeedback(context.Background(), 4, "fine")
	}()

	<-ba.entered
	f.Cancel()
	close(ba.release)

	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, f.State(), "cancel is not clobbered by a late feedback reply")
}

func TestFlow_Cancel_IdempotentFromIdle(t *testing.T) {
	f := NewFlow(&fakeAPI{}, nil, "u")
	f.Cancel()
	assert.Equal(t, StateIdle, f.State())
	f.Cancel() // second cancel from Idle is also a no-op
	assert.Equal(t, StateIdle, f.State())
	assert.Nil(t, f.Selection())
}

func TestFlow_Cancel_DiscardsSelection(t *testing.T) {
	fa := &fakeAPI{seatMap: openSeatMap()}
	f := NewFlow(fa, nil, "u")
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	_, err := f.RequestSeatMap(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.AssignSeat(0, "12A"))

	f.Cancel()
	assert.Equal(t, StateIdle, f.State())
	assert.Nil(t, f.Selection())
	assert.Nil(t, f.SeatMap())

	// A fresh selection starts clean.
	require.NoError(t, f.SelectFlight(twoSegmentFlight(), ""))
	assert.Empty(t, f.Selection().Seats)
}
