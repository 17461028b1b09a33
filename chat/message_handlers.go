package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	CreateMessageRequest struct {
		Content        string `json:"content" binding:"required"`
		Receiver       string `json:"receiver" binding:"required"`
		ChatConnection string `json:"chat_connection" binding:"required"`
	}

	UpdateMessageRequest struct {
		Content *string `json:"content,omitempty"`
	}
)

// GetMessagesHandler lists messages the caller sent or received, newest
// first
func (cm *ChatManager) GetMessagesHandler(c *gin.Context) {
	query := cm.db.Scopes(Participant(core.GetUserID(c)), core.NewestFirst)
	if connection := c.Query("chat_connection"); connection != "" {
		query = query.Where("chat_connection_id = ?", connection)
	}
	paginate, err := core.Paginate(c)
	if err != nil {
		core.WriteError(c, err, "message")
		return
	}

	var messages []Message
	if err := query.Scopes(paginate).Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (cm *ChatManager) GetMessageHandler(c *gin.Context) {
	var message Message
	err := cm.db.Scopes(Participant(core.GetUserID(c))).
		First(&message, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// CreateMessageHandler sends a message over a connection between the caller
// and the receiver
func (cm *ChatManager) CreateMessageHandler(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := &Message{
		Content:          req.Content,
		ChatConnectionID: req.ChatConnection,
		SenderID:         core.GetUserID(c),
		ReceiverID:       req.Receiver,
	}
	if err := cm.db.Create(message).Error; err != nil {
		core.WriteError(c, err, "message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// UpdateMessageHandler edits the content of a message the caller sent
func (cm *ChatManager) UpdateMessageHandler(c *gin.Context) {
	var req UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, ok := cm.loadSentMessage(c)
	if !ok {
		return
	}
	if req.Content != nil {
		message.Content = *req.Content
	}

	if err := cm.db.Save(message).Error; err != nil {
		core.WriteError(c, err, "message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (cm *ChatManager) DeleteMessageHandler(c *gin.Context) {
	message, ok := cm.loadSentMessage(c)
	if !ok {
		return
	}
	if err := cm.db.Delete(message).Error; err != nil {
		core.WriteError(c, err, "message")
		return
	}
	c.Status(http.StatusNoContent)
}

func (cm *ChatManager) loadSentMessage(c *gin.Context) (*Message, bool) {
	var message Message
	err := cm.db.Scopes(core.OwnedBy("sender_id", core.GetUserID(c))).
		First(&message, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "message")
		return nil, false
	}
	return &message, true
}
