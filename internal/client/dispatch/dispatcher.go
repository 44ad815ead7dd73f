package dispatch

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
)

// ChannelPort is the outbound side of the transport the dispatcher emits on.
type ChannelPort interface {
	Send(msg chat.Message) error
}

// Dispatcher turns user intents into wire messages, appends an optimistic
// local echo before transport confirmation, and normalizes inbound
// messages into the same append-only log.
//
// The log keeps arrival order per source. A sender's own optimistic entry
// and the server's rebroadcast of the same logical action are not
// unified; consumers must tolerate the apparent duplicate.
type Dispatcher struct {
	identity       chat.Identity
	conversationID string
	channel        ChannelPort
	logger         *slog.Logger

	mu  sync.Mutex
	log []chat.Message

	now   func() time.Time
	newID func(time.Time) string
}

// New builds a dispatcher for one conversation with an explicit caller
// identity (no ambient profile state).
func New(identity chat.Identity, conversationID string, channel ChannelPort, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		identity:       identity,
		conversationID: conversationID,
		channel:        channel,
		logger:         logger,
		now:            time.Now,
		newID:          localMessageID,
	}
}

// localMessageID derives the client-side id for an optimistic entry.
// Server-assigned ids for the confirmed copy are unrelated values.
func localMessageID(ts time.Time) string {
	return fmt.Sprintf("local-%d", ts.UnixNano())
}

// Seed installs the initial message history fetched by the page-level
// collaborator. It replaces any existing log contents.
func (d *Dispatcher) Seed(history []chat.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log[:0], history...)
}

// ComposeText builds and sends a TEXT message. A body that trims to
// nothing is rejected without appending or sending anything.
func (d *Dispatcher) ComposeText(body string) (chat.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return chat.Message{}, chat.ErrEmptyBody
	}
	msg := d.newMessage(chat.KindText)
	msg.Body = body
	return d.append(msg)
}

// ComposeMedia builds and sends a MEDIA message from a completed upload.
// The caption is optional.
func (d *Dispatcher) ComposeMedia(att chat.Attachment, caption string) (chat.Message, error) {
	msg := d.newMessage(chat.KindMedia)
	msg.MediaURL = att.URL
	msg.MediaMIMEType = att.MIMEType
	msg.Body = strings.TrimSpace(caption)
	return d.append(msg)
}

// ComposeOffer wraps a confirmed offer record into an OFFER message. A
// revision arrives as a new message referencing the same offer id.
func (d *Dispatcher) ComposeOffer(offer offers.Offer) (chat.Message, error) {
	msg := d.newMessage(chat.KindOffer)
	msg.OfferID = offer.ID
	snapshot := offer
	msg.Offer = &snapshot
	return d.append(msg)
}

// Receive appends an inbound wire message verbatim, in arrival order.
// No dedup against optimistic entries is performed.
func (d *Dispatcher) Receive(msg chat.Message) {
	d.mu.Lock()
	d.log = append(d.log, msg)
	d.mu.Unlock()
}

// Messages returns a copy of the log in append order. Channel teardown
// never clears it.
func (d *Dispatcher) Messages() []chat.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]chat.Message, len(d.log))
	copy(out, d.log)
	return out
}

func (d *Dispatcher) newMessage(kind chat.MessageKind) chat.Message {
	ts := d.now()
	return chat.Message{
		ID:             d.newID(ts),
		ConversationID: d.conversationID,
		SenderID:       d.identity.UserID,
		SenderRole:     d.identity.Role,
		Kind:           kind,
		Timestamp:      ts,
	}
}

// append records the optimistic echo, then hands the message to the
// channel. On delivery failure the echo stays in the log unmarked and
// the error is surfaced to the caller.
func (d *Dispatcher) append(msg chat.Message) (chat.Message, error) {
	d.mu.Lock()
	d.log = append(d.log, msg)
	d.mu.Unlock()

	if err := d.channel.Send(msg); err != nil {
		if d.logger != nil {
			d.logger.Warn("message delivery failed", "conversation_id", d.conversationID, "kind", msg.Kind, "error", err)
		}
		return msg, err
	}
	return msg, nil
}
