package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/offers"
)

// OfferHandler owns the create/update collaborator endpoints the offer
// lifecycle client talks to.
type OfferHandler struct {
	Offers offers.Repository
	Logger *slog.Logger
}

// Create validates a draft and persists a new offer with the default
// pending status.
func (h OfferHandler) Create(c *gin.Context) {
	var req dto.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	draft := req.Draft()
	if err := draft.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	offer := offers.Offer{
		ID:          uuid.NewString(),
		JobID:       req.JobID,
		Name:        draft.Name,
		Description: draft.Description,
		Timeline:    draft.Timeline,
		Budget:      draft.Budget,
		Status:      offers.StatusPending,
	}
	if err := h.Offers.Save(c.Request.Context(), &offer); err != nil {
		h.logError("save offer failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save offer"})
		return
	}
	c.JSON(http.StatusCreated, dto.OfferFromDomain(offer))
}

// Update revises an existing offer in place. The revision keeps the
// current status; status transitions belong to the backend workflows.
func (h OfferHandler) Update(c *gin.Context) {
	offerID := c.Param("id")
	if offerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer id is required"})
		return
	}
	var req dto.OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	draft := req.Draft()
	if err := draft.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	existing, err := h.Offers.ByID(c.Request.Context(), offerID)
	if err != nil {
		if errors.Is(err, offers.ErrOfferNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "offer not found"})
			return
		}
		h.logError("load offer failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load offer"})
		return
	}

	existing.Name = draft.Name
	existing.Description = draft.Description
	existing.Timeline = draft.Timeline
	existing.Budget = draft.Budget
	if err := h.Offers.Save(c.Request.Context(), existing); err != nil {
		h.logError("save offer failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save offer"})
		return
	}
	c.JSON(http.StatusOK, dto.OfferFromDomain(*existing))
}

func respondValidation(c *gin.Context, err error) {
	var validation *offers.ValidationError
	if errors.As(err, &validation) {
		fields := make([]gin.H, 0, len(validation.Fields))
		for _, f := range validation.Fields {
			fields = append(fields, gin.H{"field": f.Field, "reason": f.Reason})
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid offer", "fields": fields})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
}

func (h OfferHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}
