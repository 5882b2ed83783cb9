package models

import (
	"encoding/json"
	"time"
)

/************************************************
/**** MARK: MESSAGE STATUS ****/
/************************************************/
const MESSAGE_STATUS_PENDING = "pending"
const MESSAGE_STATUS_SENT = "sent"
const MESSAGE_STATUS_DELIVERED = "delivered"
const MESSAGE_STATUS_READ = "read"
const MESSAGE_STATUS_FAILED = "failed"
const MESSAGE_STATUS_RECEIVED = "received"

/************************************************
/**** MARK: MESSAGE TYPES ****/
/************************************************/
const MESSAGE_TYPE_TEXT = "text"
const MESSAGE_TYPE_MEDIA = "media"
const MESSAGE_TYPE_LOCATION = "location"
const MESSAGE_TYPE_AUDIO = "audio"

// Message representa uma mensagem WhatsApp inbound ou outbound.
// ExternalID é o id atribuído pelo provider (único). Content é o documento
// opaco da mensagem (text/media/location); erros de entrega entram nele
// sob a chave "error".
type Message struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID    int64      `gorm:"not null;index" json:"tenant_id"`
	SessionID   int64      `gorm:"not null;index" json:"session_id"`
	ExternalID  string     `gorm:"column:external_id;not null;unique_index" json:"external_id"`
	FromNumber  string     `gorm:"column:from_number;not null" json:"from_number"`
	ToNumber    string     `gorm:"column:to_number;not null" json:"to_number"`
	MessageType string     `gorm:"column:message_type;not null;default:'text'" json:"message_type"`
	Content     string     `gorm:"type:text" json:"content"`
	Status      string     `gorm:"not null;default:'pending';index" json:"status"`
	AIProcessed bool       `gorm:"column:ai_processed;not null;default:false;index" json:"ai_processed"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func ValidMessageStatus(s string) bool {
	switch s {
	case MESSAGE_STATUS_PENDING, MESSAGE_STATUS_SENT, MESSAGE_STATUS_DELIVERED,
		MESSAGE_STATUS_READ, MESSAGE_STATUS_FAILED, MESSAGE_STATUS_RECEIVED:
		return true
	}
	return false
}

// DecodeContent devolve o documento de conteúdo como mapa (vazio se inválido).
func (m Message) DecodeContent() map[string]interface{} {
	out := map[string]interface{}{}
	if m.Content == "" {
		return out
	}
	_ = json.Unmarshal([]byte(m.Content), &out)
	return out
}

// ContentWithError devolve o Content com a chave "error" sobrescrita.
func (m Message) ContentWithError(errText string) string {
	doc := m.DecodeContent()
	doc["error"] = errText
	b, _ := json.Marshal(doc)
	return string(b)
}
