package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"gigchat/internal/app/dto"
	"gigchat/internal/domain/chat"
)

// ChatHandler serves conversation descriptors and the history seed the
// messaging core consumes on mount.
type ChatHandler struct {
	Conversations chat.ConversationRepository
	Messages      chat.MessageRepository
	Logger        *slog.Logger
}

// CreateConversation gets or creates the thread for a job/party pair.
func (h ChatHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.JobID = strings.TrimSpace(req.JobID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.FreelancerID = strings.TrimSpace(req.FreelancerID)
	if req.JobID == "" || req.ClientID == "" || req.FreelancerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "jobId, clientId and freelancerId are required"})
		return
	}
	if req.ClientID == req.FreelancerID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
		return
	}

	conversation, err := h.Conversations.GetOrCreate(c.Request.Context(), req.JobID, req.ClientID, req.FreelancerID)
	if err != nil {
		h.logError("create conversation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create conversation"})
		return
	}
	c.JSON(http.StatusOK, dto.ConversationFromDomain(*conversation))
}

// ListMessages returns the ordered log for a conversation.
func (h ChatHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	if _, err := h.Conversations.ByID(c.Request.Context(), conversationID); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		h.logError("load conversation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load conversation"})
		return
	}

	messages, err := h.Messages.ListByConversation(c.Request.Context(), conversationID)
	if err != nil {
		h.logError("list messages failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load messages"})
		return
	}
	list := dto.ChatMessageList{Items: make([]dto.ChatMessage, 0, len(messages))}
	for _, msg := range messages {
		list.Items = append(list.Items, dto.ChatMessageFromDomain(*msg))
	}
	c.JSON(http.StatusOK, list)
}

func (h ChatHandler) logError(msg string, err error) {
	if h.Logger != nil {
		h.Logger.Error(msg, "error", err)
	}
}
