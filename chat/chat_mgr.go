package chat

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

// ChatManager serves chat connections and the messages exchanged over them
type ChatManager struct {
	ctx  context.Context
	db   *gorm.DB
	auth gin.HandlerFunc
}

var _ core.Plugin = (*ChatManager)(nil)

func NewChatManager(ctx context.Context, db *gorm.DB, auth gin.HandlerFunc) *ChatManager {
	return &ChatManager{ctx: ctx, db: db, auth: auth}
}

func (cm *ChatManager) RegisterModels(db *gorm.DB) error {
	return db.AutoMigrate(&ChatConnection{}, &Message{})
}

func (cm *ChatManager) RegisterRoutes(api *gin.RouterGroup) {
	connections := api.Group("/chat_connection", cm.auth)
	connections.GET("", cm.GetConnectionsHandler)
	connections.GET("/:id", cm.GetConnectionHandler)
	connections.GET("/:id/messages", cm.GetConversationHandler)
	connections.POST("", cm.CreateConnectionHandler)
	connections.PUT("/:id", cm.UpdateConnectionHandler)
	connections.PATCH("/:id", cm.UpdateConnectionHandler)
	connections.DELETE("/:id", cm.DeleteConnectionHandler)

	messages := api.Group("/message", cm.auth)
	messages.GET("", cm.GetMessagesHandler)
	messages.GET("/:id", cm.GetMessageHandler)
	messages.POST("", cm.CreateMessageHandler)
	messages.PUT("/:id", cm.UpdateMessageHandler)
	messages.PATCH("/:id", cm.UpdateMessageHandler)
	messages.DELETE("/:id", cm.DeleteMessageHandler)
}
