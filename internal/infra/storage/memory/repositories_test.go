package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
)

func TestGetOrCreateIsIdempotentPerJobAndParties(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, "job-1", "client-1", "freelancer-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	again, err := repo.GetOrCreate(ctx, "job-1", "client-1", "freelancer-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "same job and parties reuse the thread")

	other, err := repo.GetOrCreate(ctx, "job-2", "client-1", "freelancer-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "another job opens a separate thread")
}

func TestConversationByID(t *testing.T) {
	repo := NewConversationRepository()
	ctx := context.Background()

	created, err := repo.GetOrCreate(ctx, "job-1", "client-1", "freelancer-1")
	require.NoError(t, err)

	got, err := repo.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.JobID, got.JobID)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestMessageLogKeepsAppendOrder(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		err := repo.Append(ctx, &chat.Message{
			ID:             "id-" + body,
			ConversationID: "42",
			SenderID:       "u1",
			SenderRole:     chat.RoleClient,
			Kind:           chat.KindText,
			Body:           body,
		})
		require.NoError(t, err)
	}

	log, err := repo.ListByConversation(ctx, "42")
	require.NoError(t, err)
	require.Len(t, log, 3)
	assert.Equal(t, "first", log[0].Body)
	assert.Equal(t, "second", log[1].Body)
	assert.Equal(t, "third", log[2].Body)
}

func TestUnknownConversationYieldsEmptyLog(t *testing.T) {
	repo := NewMessageRepository()

	log, err := repo.ListByConversation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestStoredOfferSnapshotIsDetached(t *testing.T) {
	repo := NewMessageRepository()
	ctx := context.Background()

	offer := &offers.Offer{
		ID:       "7",
		Name:     "Setup",
		Timeline: offers.TimelineOneWeek,
		Budget:   500,
		Status:   offers.StatusPending,
	}
	require.NoError(t, repo.Append(ctx, &chat.Message{
		ID:             "m1",
		ConversationID: "42",
		SenderID:       "u1",
		SenderRole:     chat.RoleFreelancer,
		Kind:           chat.KindOffer,
		OfferID:        offer.ID,
		Offer:          offer,
	}))

	offer.Budget = 900

	log, err := repo.ListByConversation(ctx, "42")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, float64(500), log[0].Offer.Budget, "log keeps the state at send time")

	log[0].Offer.Budget = 1
	relisted, err := repo.ListByConversation(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, float64(500), relisted[0].Offer.Budget, "callers cannot mutate the log")
}

func TestOfferRepositorySaveAndLookup(t *testing.T) {
	repo := NewOfferRepository()
	ctx := context.Background()

	_, err := repo.ByID(ctx, "7")
	assert.ErrorIs(t, err, offers.ErrOfferNotFound)

	offer := &offers.Offer{
		ID:          "7",
		JobID:       "job-1",
		Name:        "Landing page",
		Description: "Five sections, responsive",
		Timeline:    offers.TimelineTwoWeeks,
		Budget:      1200,
		Status:      offers.StatusPending,
	}
	require.NoError(t, repo.Save(ctx, offer))

	got, err := repo.ByID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, offer.Name, got.Name)

	// Revision replaces the record in place.
	offer.Budget = 1500
	require.NoError(t, repo.Save(ctx, offer))
	got, err = repo.ByID(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, float64(1500), got.Budget)
}
