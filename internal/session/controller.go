package session

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/cache"
	"github.com/flymate/flymate-go/internal/results"
)

// ApologyMessage is appended as an assistant entry when the fallback
// channel fails to deliver a send. The transcript still advances.
const ApologyMessage = "Sorry, I encountered an error. Please try again."

// DefaultHistoryLimit is how many stored messages LoadHistory fetches
// when the caller passes no limit.
const DefaultHistoryLimit = 20

// Transport is the send/receive surface the controller drives.
// Satisfied by transport.Manager.
type Transport interface {
	Send(ctx context.Context, message string, chatContext map[string]any) (json.RawMessage, error)
	Subscribe(func(raw json.RawMessage)) int
	Unsubscribe(id int)
	Pending() bool
}

// HistoryStore is the server-side transcript collaborator.
// Satisfied by api.Client.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]api.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// Controller turns user intent into transcript entries and classifies
// inbound responses. One Controller per conversation.
type Controller struct {
	Session *Session

	transport Transport
	history   HistoryStore
	cache     *cache.Cache
	userID    string

	mu      sync.Mutex
	pending int
	subID   int
}

// NewController wires a transcript to its transport and history
// collaborators. The cache may be nil.
func NewController(sess *Session, t Transport, h HistoryStore, c *cache.Cache, userID string) *Controller {
	return &Controller{
		Session:   sess,
		transport: t,
		history:   h,
		cache:     c,
		userID:    userID,
	}
}

// Attach subscribes the controller to persistent-channel responses.
func (c *Controller) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subID == 0 {
		c.subID = c.transport.Subscribe(c.HandleResponse)
	}
}

// Detach removes the transport subscription.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subID != 0 {
		c.transport.Unsubscribe(c.subID)
		c.subID = 0
	}
}

// Pending reports whether a send still awaits its response.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// LoadHistory replaces the transcript with up to limit stored messages in
// their original order. When the server is unreachable it falls back to
// the cached copy, if any.
func (c *Controller) LoadHistory(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	entries, err := c.history.History(ctx, limit)
	if err != nil {
		var cached []Message
		if c.cache.GetJSON(ctx, cache.TranscriptKey(c.userID), &cached) {
			log.Printf("[Session] history fetch failed, using cached transcript: %v", err)
			c.Session.Replace(cached)
			return nil
		}
		return err
	}

	msgs := make([]Message, 0, len(entries))
	for _, e := range entries {
		msg := Message{Role: e.Role, Content: e.Content}
		if ts, perr := time.Parse(time.RFC3339, e.Timestamp); perr == nil {
			msg.Timestamp = ts
		} else {
			msg.Timestamp = time.Now()
		}
		if len(e.Data) > 0 {
			msg.Payload, _ = results.Classify(e.Data)
		}
		msgs = append(msgs, msg)
	}
	c.Session.Replace(msgs)
	c.cache.SetJSON(ctx, cache.TranscriptKey(c.userID), msgs)
	return nil
}

// SendUserMessage appends the user's message and delivers it. Empty
// input (after trimming) is a no-op. On the persistent channel the
// assistant reply arrives later through HandleResponse; on the fallback
// channel it is appended before returning. A fallback delivery failure
// appends the scripted apology and is returned to the caller.
func (c *Controller) SendUserMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.Session.Append(RoleUser, text, nil)

	c.mu.Lock()
	c.pending++
	c.mu.Unlock()

	raw, err := c.transport.Send(ctx, text, nil)
	if err != nil {
		log.Printf("[Session] send failed: %v", err)
		c.Session.Append(RoleAssistant, ApologyMessage, nil)
		c.settle()
		return err
	}
	if raw != nil {
		payload, content := results.Classify(raw)
		c.Session.Append(RoleAssistant, content, payload)
		c.settle()
	}
	return nil
}

// HandleResponse classifies an inbound persistent-channel response and
// appends it to the transcript. Wired via Attach.
func (c *Controller) HandleResponse(raw json.RawMessage) {
	payload, content := results.Classify(raw)
	c.Session.Append(RoleAssistant, content, payload)
	c.settle()
}

// Clear empties the transcript and discards server-side history.
func (c *Controller) Clear(ctx context.Context) error {
	c.Session.Clear()
	c.cache.Del(ctx, cache.TranscriptKey(c.userID))
	return c.history.ClearHistory(ctx)
}

func (c *Controller) settle() {
	c.mu.Lock()
	if c.pending > 0 {
		c.pending--
	}
	c.mu.Unlock()
}
