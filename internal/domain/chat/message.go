package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gigchat/internal/domain/offers"
)

var (
	// ErrEmptyBody is returned when a text message has nothing to say.
	ErrEmptyBody = errors.New("chat: message body is empty")
	// ErrUnknownKind is returned for a message kind outside the closed set.
	ErrUnknownKind = errors.New("chat: unknown message kind")
	// ErrPayloadMismatch is returned when payload fields do not match the kind.
	ErrPayloadMismatch = errors.New("chat: payload does not match message kind")
	// ErrConversationNotFound is returned when a conversation id does not resolve.
	ErrConversationNotFound = errors.New("chat: conversation not found")
)

// Role identifies which side of the marketplace a sender belongs to.
// It only drives bubble placement on clients, never authorization.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"
)

// Identity names the acting user. It is passed explicitly into the
// components that compose messages so tests can inject distinct users.
type Identity struct {
	UserID string
	Role   Role
}

// MessageKind is the closed tag deciding which payload fields are set.
type MessageKind string

const (
	KindText  MessageKind = "TEXT"
	KindMedia MessageKind = "MEDIA"
	KindOffer MessageKind = "OFFER"
)

// Message is a single entry of a conversation log. Exactly one payload
// shape is active, selected by Kind. Entries are append-only within a
// session: an offer status change arrives as a new message referencing
// the same OfferID, never as a mutation of an earlier entry.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	SenderRole     Role
	Kind           MessageKind
	Body           string
	MediaURL       string
	MediaMIMEType  string
	OfferID        string
	Offer          *offers.Offer
	Timestamp      time.Time
}

// Validate enforces the one-payload-per-kind invariant.
func (m Message) Validate() error {
	switch m.Kind {
	case KindText:
		if strings.TrimSpace(m.Body) == "" {
			return ErrEmptyBody
		}
		if m.MediaURL != "" || m.OfferID != "" || m.Offer != nil {
			return fmt.Errorf("%w: text message carries media or offer fields", ErrPayloadMismatch)
		}
	case KindMedia:
		if m.MediaURL == "" {
			return fmt.Errorf("%w: media message without media url", ErrPayloadMismatch)
		}
		if m.OfferID != "" || m.Offer != nil {
			return fmt.Errorf("%w: media message carries offer fields", ErrPayloadMismatch)
		}
	case KindOffer:
		if m.OfferID == "" || m.Offer == nil {
			return fmt.Errorf("%w: offer message without offer snapshot", ErrPayloadMismatch)
		}
		if m.MediaURL != "" || m.MediaMIMEType != "" {
			return fmt.Errorf("%w: offer message carries media fields", ErrPayloadMismatch)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// MaxAttachmentSize is the fixed per-file ceiling for attachments,
// enforced on both sides of the upload exchange.
const MaxAttachmentSize = 5 << 20

// Attachment is the durable result of a completed upload, consumed when
// composing a MEDIA message.
type Attachment struct {
	URL      string
	MIMEType string
}

// MediaClass tells clients whether an attachment gets an inline preview.
type MediaClass string

const (
	MediaImage MediaClass = "image"
	MediaVideo MediaClass = "video"
	MediaNone  MediaClass = "none"
)

// ClassifyMIME buckets a MIME type by prefix for rendering. Anything that
// is neither image/* nor video/* renders with no inline preview.
func ClassifyMIME(mimeType string) MediaClass {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaImage
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo
	default:
		return MediaNone
	}
}
