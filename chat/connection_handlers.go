package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	CreateConnectionRequest struct {
		Item     string `json:"item" binding:"required"`
		Receiver string `json:"receiver" binding:"required"`
	}

	UpdateConnectionRequest struct {
		Item     *string `json:"item,omitempty"`
		Receiver *string `json:"receiver,omitempty"`
	}
)

// GetConnectionsHandler lists connections the caller opened or received,
// newest first
func (cm *ChatManager) GetConnectionsHandler(c *gin.Context) {
	query := cm.db.Scopes(Participant(core.GetUserID(c)), core.NewestFirst)
	if item := c.Query("item"); item != "" {
		query = query.Where("item_id = ?", item)
	}

	var connections []ChatConnection
	if err := query.Find(&connections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chat connections"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_connections": connections})
}

func (cm *ChatManager) GetConnectionHandler(c *gin.Context) {
	var connection ChatConnection
	err := cm.db.Scopes(Participant(core.GetUserID(c))).
		First(&connection, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "chat connection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_connection": connection})
}

// CreateConnectionHandler opens a chat from the caller to the owner of an
// item
func (cm *ChatManager) CreateConnectionHandler(c *gin.Context) {
	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	connection := &ChatConnection{
		ItemID:     req.Item,
		SenderID:   core.GetUserID(c),
		ReceiverID: req.Receiver,
	}
	if err := cm.db.Create(connection).Error; err != nil {
		core.WriteError(c, err, "chat connection")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat_connection": connection})
}

func (cm *ChatManager) UpdateConnectionHandler(c *gin.Context) {
	var req UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	connection, ok := cm.loadSentConnection(c)
	if !ok {
		return
	}
	if req.Item != nil {
		connection.ItemID = *req.Item
	}
	if req.Receiver != nil {
		connection.ReceiverID = *req.Receiver
	}

	if err := cm.db.Save(connection).Error; err != nil {
		core.WriteError(c, err, "chat connection")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_connection": connection})
}

// DeleteConnectionHandler removes a connection the caller opened, with its
// messages
func (cm *ChatManager) DeleteConnectionHandler(c *gin.Context) {
	connection, ok := cm.loadSentConnection(c)
	if !ok {
		return
	}
	if err := cm.db.Delete(connection).Error; err != nil {
		core.WriteError(c, err, "chat connection")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetConversationHandler returns the messages of a connection in the order
// they were sent
func (cm *ChatManager) GetConversationHandler(c *gin.Context) {
	var connection ChatConnection
	err := cm.db.Scopes(Participant(core.GetUserID(c))).
		First(&connection, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "chat connection")
		return
	}

	paginate, err := core.Paginate(c)
	if err != nil {
		core.WriteError(c, err, "message")
		return
	}

	var messages []Message
	if err := cm.db.Scopes(paginate).
		Where("chat_connection_id = ?", connection.ID).
		Order("created_at asc").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// loadSentConnection fetches the :id connection if the caller opened it.
// Receivers can read a connection but not change it.
func (cm *ChatManager) loadSentConnection(c *gin.Context) (*ChatConnection, bool) {
	var connection ChatConnection
	err := cm.db.Scopes(core.OwnedBy("sender_id", core.GetUserID(c))).
		First(&connection, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "chat connection")
		return nil, false
	}
	return &connection, true
}
