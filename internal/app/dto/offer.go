package dto

import "gigchat/internal/domain/offers"

// OfferRequest is the body of offer create and update calls.
type OfferRequest struct {
	JobID       string  `json:"jobId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Timeline    string  `json:"timeline"`
	Budget      float64 `json:"budget"`
}

// Draft converts the request into a domain draft for validation.
func (r OfferRequest) Draft() offers.Draft {
	return offers.Draft{
		Name:        r.Name,
		Description: r.Description,
		Timeline:    offers.Timeline(r.Timeline),
		Budget:      r.Budget,
	}
}

// Offer is the canonical REST shape of an offer record.
type Offer struct {
	ID          string  `json:"id"`
	JobID       string  `json:"jobId,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Timeline    string  `json:"timeline"`
	Budget      float64 `json:"budget"`
	Status      string  `json:"status"`
}

// OfferFromDomain converts a domain offer for the wire.
func OfferFromDomain(o offers.Offer) Offer {
	return Offer{
		ID:          o.ID,
		JobID:       o.JobID,
		Name:        o.Name,
		Description: o.Description,
		Timeline:    string(o.Timeline),
		Budget:      o.Budget,
		Status:      o.Status,
	}
}

// ToDomain converts a wire offer back into the domain model.
func (o Offer) ToDomain() offers.Offer {
	return offers.Offer{
		ID:          o.ID,
		JobID:       o.JobID,
		Name:        o.Name,
		Description: o.Description,
		Timeline:    offers.Timeline(o.Timeline),
		Budget:      o.Budget,
		Status:      o.Status,
	}
}

// Attachment is returned by the attachment upload endpoint.
type Attachment struct {
	URL      string `json:"url"`
	MIMEType string `json:"mimeType"`
}

// CreateConversationRequest starts (or resumes) a thread for a job.
type CreateConversationRequest struct {
	JobID        string `json:"jobId"`
	ClientID     string `json:"clientId"`
	FreelancerID string `json:"freelancerId"`
}
