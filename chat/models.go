package chat

import (
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/items"
)

const maxContentLength = 4096

type (
	// ChatConnection opens a conversation between a sender and the owner of
	// an item
	ChatConnection struct {
		core.BaseModel

		ItemID     string               `json:"item" gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_connection_pair"`
		Item       *items.Item          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		SenderID   string               `json:"sender" gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_connection_pair;index"`
		Sender     *authentication.User `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
		ReceiverID string               `json:"receiver" gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_connection_pair;index"`
		Receiver   *authentication.User `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	}

	Message struct {
		core.BaseModel

		Content          string               `json:"content" gorm:"type:text;not null"`
		ChatConnectionID string               `json:"chat_connection" gorm:"type:varchar(36);not null;index"`
		ChatConnection   *ChatConnection      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		SenderID         string               `json:"sender" gorm:"type:varchar(36);not null;index"`
		Sender           *authentication.User `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
		ReceiverID       string               `json:"receiver" gorm:"type:varchar(36);not null;index"`
		Receiver         *authentication.User `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE"`
	}
)

// Participant restricts chat rows to those the user sent or received
func Participant(userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(sender_id = ? OR receiver_id = ?)", userID, userID)
	}
}

// BeforeSave requires the item to belong to the receiver and rejects a
// second connection for the same item and pair
func (cc *ChatConnection) BeforeSave(tx *gorm.DB) error {
	if cc.ItemID == "" {
		return core.ErrInvalidField{Field: "item", Message: "is required"}
	}
	if cc.ReceiverID == "" {
		return core.ErrInvalidField{Field: "receiver", Message: "is required"}
	}
	if cc.ReceiverID == cc.SenderID {
		return core.ErrInvalidField{Field: "receiver", Message: "cannot open a chat with yourself"}
	}

	lookup := tx.Session(&gorm.Session{NewDB: true})

	var count int64
	if err := lookup.Model(&items.Item{}).
		Where("id = ? AND user_id = ?", cc.ItemID, cc.ReceiverID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "item", Message: "item does not belong to the receiver"}
	}

	if err := lookup.Model(&ChatConnection{}).
		Where("item_id = ? AND sender_id = ? AND receiver_id = ? AND id <> ?", cc.ItemID, cc.SenderID, cc.ReceiverID, cc.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return core.ErrConflict{Message: "chat connection already exists"}
	}
	return nil
}

// BeforeSave requires the connection to link the sender and the receiver
func (m *Message) BeforeSave(tx *gorm.DB) error {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return core.ErrInvalidField{Field: "content", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(m.Content) > maxContentLength {
		return core.ErrInvalidField{Field: "content", Message: "must be at most 4096 characters"}
	}
	if m.ReceiverID == "" {
		return core.ErrInvalidField{Field: "receiver", Message: "is required"}
	}
	if m.ReceiverID == m.SenderID {
		return core.ErrInvalidField{Field: "receiver", Message: "cannot message yourself"}
	}

	var count int64
	if err := tx.Session(&gorm.Session{NewDB: true}).Model(&ChatConnection{}).
		Where("id = ?", m.ChatConnectionID).
		Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			m.SenderID, m.ReceiverID, m.ReceiverID, m.SenderID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "chat_connection", Message: "chat connection does not link sender and receiver"}
	}
	return nil
}
