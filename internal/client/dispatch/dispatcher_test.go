package dispatch

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
)

type fakeChannel struct {
	sent []chat.Message
	err  error
}

func (f *fakeChannel) Send(msg chat.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestDispatcher(ch ChannelPort) *Dispatcher {
	d := New(chat.Identity{UserID: "u1", Role: chat.RoleFreelancer}, "42", ch, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	d.now = func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Second)
	}
	return d
}

func TestComposeTextAppendsOptimistically(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)

	msg, err := d.ComposeText("Hello")
	require.NoError(t, err)

	log := d.Messages()
	require.Len(t, log, 1)
	assert.Equal(t, chat.KindText, log[0].Kind)
	assert.Equal(t, "Hello", log[0].Body)
	assert.Equal(t, chat.RoleFreelancer, log[0].SenderRole)
	assert.Equal(t, "u1", log[0].SenderID)
	assert.Equal(t, "42", log[0].ConversationID)
	assert.NotEmpty(t, log[0].ID)

	require.Len(t, ch.sent, 1)
	assert.Equal(t, msg, ch.sent[0])
}

func TestComposeTextRejectsEmptyBody(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := d.ComposeText(body)
		assert.ErrorIs(t, err, chat.ErrEmptyBody)
	}
	assert.Empty(t, d.Messages())
	assert.Empty(t, ch.sent)
}

func TestComposeTextKeepsEchoOnDeliveryFailure(t *testing.T) {
	ch := &fakeChannel{err: errors.New("boom")}
	d := newTestDispatcher(ch)

	_, err := d.ComposeText("Hello")
	require.Error(t, err)
	// The optimistic echo stays in the log with no failed marker.
	require.Len(t, d.Messages(), 1)
}

func TestComposeMediaClassification(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)

	msg, err := d.ComposeMedia(chat.Attachment{URL: "https://cdn.example.com/pic.png", MIMEType: "image/png"}, "")
	require.NoError(t, err)
	assert.Equal(t, chat.KindMedia, msg.Kind)
	assert.Equal(t, chat.MediaImage, chat.ClassifyMIME(msg.MediaMIMEType))
}

func TestComposeOfferRoundTrip(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)

	offer := offers.Offer{
		ID:       "7",
		Name:     "Setup",
		Timeline: offers.TimelineOneWeek,
		Budget:   500,
		Status:   "pending",
	}
	msg, err := d.ComposeOffer(offer)
	require.NoError(t, err)

	require.NotNil(t, msg.Offer)
	assert.Equal(t, "7", msg.OfferID)
	assert.Equal(t, "Setup", msg.Offer.Name)
	assert.Equal(t, offers.TimelineOneWeek, msg.Offer.Timeline)
	assert.Equal(t, float64(500), msg.Offer.Budget)
	assert.Equal(t, "pending", msg.Offer.Status)

	// The snapshot is detached from the caller's record.
	offer.Status = "accepted"
	assert.Equal(t, "pending", d.Messages()[0].Offer.Status)
}

func TestReceivePreservesArrivalOrder(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)
	d.Seed([]chat.Message{{ID: "seed", Kind: chat.KindText, Body: "earlier"}})

	var inbound []chat.Message
	for i := 1; i <= 5; i++ {
		msg := chat.Message{ID: fmt.Sprintf("m%d", i), Kind: chat.KindText, Body: fmt.Sprintf("msg %d", i)}
		inbound = append(inbound, msg)
		d.Receive(msg)
	}

	log := d.Messages()
	require.Len(t, log, 6)
	assert.Equal(t, "seed", log[0].ID)
	for i, msg := range inbound {
		assert.Equal(t, msg.ID, log[i+1].ID)
	}
}

func TestReceiveDoesNotDeduplicateOptimisticEcho(t *testing.T) {
	ch := &fakeChannel{}
	d := newTestDispatcher(ch)

	local, err := d.ComposeText("Hello")
	require.NoError(t, err)

	// Server rebroadcast of the same logical action under its own id.
	echo := local
	echo.ID = "server-1"
	d.Receive(echo)

	require.Len(t, d.Messages(), 2)
}
