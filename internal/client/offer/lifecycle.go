package offer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/offers"
)

// ErrRequestFailed wraps a server-side rejection of a create or revise
// call. No partial state is committed; the user retries the action.
var ErrRequestFailed = errors.New("offer: request failed")

// Lifecycle creates or revises offers through the REST collaborator and
// returns the canonical record for the dispatcher to wrap into an OFFER
// message. It owns no status state machine: status is opaque backend text.
type Lifecycle struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// New builds a lifecycle client against the collaborator base URL,
// e.g. "http://host:8080/api/v1".
func New(baseURL string, client *http.Client, logger *slog.Logger) *Lifecycle {
	if client == nil {
		client = http.DefaultClient
	}
	return &Lifecycle{baseURL: baseURL, client: client, logger: logger}
}

// Create validates the draft and submits it for the given job. Drafts
// that fail validation never reach the wire.
func (l *Lifecycle) Create(ctx context.Context, jobID string, draft offers.Draft) (offers.Offer, error) {
	if err := draft.Validate(); err != nil {
		return offers.Offer{}, err
	}
	return l.post(ctx, l.baseURL+"/offers", dto.OfferRequest{
		JobID:       jobID,
		Name:        draft.Name,
		Description: draft.Description,
		Timeline:    string(draft.Timeline),
		Budget:      draft.Budget,
	})
}

// Revise validates the draft and submits it against an existing offer.
// The create/revise distinction is purely the presence of the offer id.
func (l *Lifecycle) Revise(ctx context.Context, offerID string, draft offers.Draft) (offers.Offer, error) {
	if err := draft.Validate(); err != nil {
		return offers.Offer{}, err
	}
	return l.post(ctx, l.baseURL+"/offers/"+offerID+"/update", dto.OfferRequest{
		Name:        draft.Name,
		Description: draft.Description,
		Timeline:    string(draft.Timeline),
		Budget:      draft.Budget,
	})
}

func (l *Lifecycle) post(ctx context.Context, url string, payload dto.OfferRequest) (offers.Offer, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return offers.Offer{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return offers.Offer{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := l.client.Do(req)
	if err != nil {
		return offers.Offer{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return offers.Offer{}, fmt.Errorf("%w: status %d", ErrRequestFailed, res.StatusCode)
	}

	var wire dto.Offer
	if err := json.NewDecoder(res.Body).Decode(&wire); err != nil {
		return offers.Offer{}, fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	result := wire.ToDomain()
	if l.logger != nil {
		l.logger.Info("offer submitted", "offer_id", result.ID, "status", result.Status)
	}
	return result, nil
}
