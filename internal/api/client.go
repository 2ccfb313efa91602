// Package api is the REST client for the travel backend. It covers the
// request/response chat fallback, chat history, bookings, seat maps, and
// feedback. All methods attach the bearer token when one is configured.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flymate/flymate-go/internal/results"
)

// ErrUnauthorized is returned for 401-class responses. The caller owns
// credential invalidation and re-authentication.
var ErrUnauthorized = errors.New("api: unauthorized")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Code, e.Body)
}

// Client talks to the travel backend over HTTP.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a Client for the given base URL (e.g.
// http://localhost:5000/api) and bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// SendMessage sends a chat message over the request/response channel and
// returns the raw assistant reply for classification.
func (c *Client) SendMessage(ctx context.Context, message string, chatContext map[string]any) (json.RawMessage, error) {
	body := map[string]any{"message": message}
	if chatContext != nil {
		body["context"] = chatContext
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/chat/message", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// HistoryEntry is one stored transcript message as the backend returns it.
type HistoryEntry struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// History fetches up to limit most recent chat messages, oldest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	var out struct {
		History []HistoryEntry `json:"history"`
	}
	path := "/chat/history?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

// ClearHistory discards the server-side chat history for the session.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/chat/clear", nil, nil)
}

// Booking is a confirmed booking record.
type Booking struct {
	BookingID string          `json:"booking_id"`
	Status    string          `json:"status,omitempty"`
	Segments  json.RawMessage `json:"segments,omitempty"`
	Hotel     json.RawMessage `json:"hotel,omitempty"`
}

// BookFlight books a flight with the chosen per-segment seats. Seats are
// keyed "segment_<index>" on the wire.
func (c *Client) BookFlight(ctx context.Context, flight results.FlightOption, seats map[int]string, itineraryID string) (*Booking, error) {
	wireSeats := make(map[string]string, len(seats))
	for idx, code := range seats {
		wireSeats[fmt.Sprintf("segment_%d", idx)] = code
	}
	body := map[string]any{
		"flight_data":    flight,
		"selected_seats": wireSeats,
	}
	if itineraryID != "" {
		body["itinerary_id"] = itineraryID
	}
	var out struct {
		Booking *Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/booking/flight", body, &out); err != nil {
		return nil, err
	}
	if out.Booking == nil {
		return nil, &StatusError{Code: http.StatusOK, Body: "missing booking in response"}
	}
	return out.Booking, nil
}

// BookHotel books a hotel stay for the given dates and guest count.
func (c *Client) BookHotel(ctx context.Context, hotel results.HotelOption, checkIn, checkOut string, guests int, itineraryID string) (*Booking, error) {
	body := map[string]any{
		"hotel_data": hotel,
		"check_in":   checkIn,
		"check_out":  checkOut,
		"guests":     guests,
	}
	if itineraryID != "" {
		body["itinerary_id"] = itineraryID
	}
	var out struct {
		Booking *Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/booking/hotel", body, &out); err != nil {
		return nil, err
	}
	if out.Booking == nil {
		return nil, &StatusError{Code: http.StatusOK, Body: "missing booking in response"}
	}
	return out.Booking, nil
}

// Seat is one selectable seat in a seat map row.
type Seat struct {
	Seat      string `json:"seat"`
	Type      string `json:"type"`
	Available bool   `json:"available"`
}

// SeatRow is one row of the cabin layout.
type SeatRow struct {
	RowNumber int    `json:"row_number"`
	Seats     []Seat `json:"seats"`
}

// SeatMap is the cabin layout for a travel class.
type SeatMap struct {
	Rows []SeatRow `json:"rows"`
}

// Find returns the seat with the given code, or nil.
func (m *SeatMap) Find(code string) *Seat {
	for i := range m.Rows {
		for j := range m.Rows[i].Seats {
			if m.Rows[i].Seats[j].Seat == code {
				return &m.Rows[i].Seats[j]
			}
		}
	}
	return nil
}

// GetSeatMap retrieves the seat layout for a travel class.
func (c *Client) GetSeatMap(ctx context.Context, travelClass string) (*SeatMap, error) {
	var out SeatMap
	path := "/booking/seat-map?class=" + url.QueryEscape(travelClass)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBooking fetches a booking by type ("flight" or "hotel") and id.
func (c *Client) GetBooking(ctx context.Context, bookingType, id string) (*Booking, error) {
	var out struct {
		Booking *Booking `json:"booking"`
	}
	path := "/booking/" + url.PathEscape(bookingType) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Booking, nil
}

// LookupBooking probes flight then hotel records for the id, mirroring the
// confirmation page that only knows the booking reference.
func (c *Client) LookupBooking(ctx context.Context, id string) (*Booking, string, error) {
	if b, err := c.GetBooking(ctx, "flight", id); err == nil && b != nil {
		return b, "flight", nil
	}
	b, err := c.GetBooking(ctx, "hotel", id)
	if err != nil {
		return nil, "", err
	}
	if b == nil {
		return nil, "", &StatusError{Code: http.StatusNotFound, Body: "booking not found"}
	}
	return b, "hotel", nil
}

// SubmitFeedback records a rating and comments for a confirmed booking.
func (c *Client) SubmitFeedback(ctx context.Context, bookingRef, bookingType string, rating int, comments string) error {
	body := map[string]any{
		"booking_ref":  bookingRef,
		"booking_type": bookingType,
		"rating":       rating,
		"comments":     comments,
	}
	return c.do(ctx, http.MethodPost, "/booking/feedback", body, nil)
}

// FeedbackInsights is the aggregate view over submitted feedback.
type FeedbackInsights struct {
	AverageRating   float64           `json:"average_rating"`
	TotalFeedbacks  int               `json:"total_feedbacks"`
	Insights        []string          `json:"insights"`
	RecentFeedbacks []json.RawMessage `json:"recent_feedbacks,omitempty"`
}

// GetFeedbackInsights fetches the feedback summary for the user.
func (c *Client) GetFeedbackInsights(ctx context.Context) (*FeedbackInsights, error) {
	var out FeedbackInsights
	if err := c.do(ctx, http.MethodGet, "/booking/feedback/insights", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
