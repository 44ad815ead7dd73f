package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/domain/offers"
)

func TestMessageValidateKinds(t *testing.T) {
	base := Message{
		ID:             "m1",
		ConversationID: "42",
		SenderID:       "u1",
		SenderRole:     RoleFreelancer,
		Timestamp:      time.Now(),
	}

	text := base
	text.Kind = KindText
	text.Body = "hello"
	require.NoError(t, text.Validate())

	media := base
	media.Kind = KindMedia
	media.MediaURL = "https://cdn.example.com/a.png"
	media.MediaMIMEType = "image/png"
	require.NoError(t, media.Validate())

	offer := base
	offer.Kind = KindOffer
	offer.OfferID = "7"
	offer.Offer = &offers.Offer{ID: "7", Name: "Setup", Timeline: offers.TimelineOneWeek, Budget: 500, Status: "pending"}
	require.NoError(t, offer.Validate())
}

func TestMessageValidateRejectsMixedPayloads(t *testing.T) {
	msg := Message{Kind: KindText, Body: "hi", MediaURL: "https://cdn.example.com/a.png"}
	assert.ErrorIs(t, msg.Validate(), ErrPayloadMismatch)

	msg = Message{Kind: KindMedia, MediaURL: "https://cdn.example.com/a.png", OfferID: "7"}
	assert.ErrorIs(t, msg.Validate(), ErrPayloadMismatch)

	msg = Message{Kind: KindOffer, OfferID: "7"}
	assert.ErrorIs(t, msg.Validate(), ErrPayloadMismatch)

	msg = Message{Kind: KindText, Body: "   "}
	assert.ErrorIs(t, msg.Validate(), ErrEmptyBody)

	msg = Message{Kind: "VOICE", Body: "x"}
	assert.ErrorIs(t, msg.Validate(), ErrUnknownKind)
}

func TestClassifyMIME(t *testing.T) {
	assert.Equal(t, MediaImage, ClassifyMIME("image/png"))
	assert.Equal(t, MediaImage, ClassifyMIME("image/jpeg"))
	assert.Equal(t, MediaVideo, ClassifyMIME("video/mp4"))
	assert.Equal(t, MediaNone, ClassifyMIME("application/pdf"))
	assert.Equal(t, MediaNone, ClassifyMIME(""))
}

func TestConversationParticipants(t *testing.T) {
	conv := Conversation{ID: "c1", ClientID: "client-1", FreelancerID: "fl-9"}
	assert.Equal(t, []string{"client-1", "fl-9"}, conv.Participants())
	assert.True(t, conv.HasParticipant("fl-9"))
	assert.False(t, conv.HasParticipant("stranger"))
}
