package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"maritaca/config"
	"maritaca/models"

	"github.com/jinzhu/gorm"
)

// StartAgentProcessor starts a loop that forwards received messages to the
// configured agent and marks them ai_processed. Só roda quando agent.url
// está configurada; o caminho de request não depende dele.
func StartAgentProcessor(db *gorm.DB, cfg config.Configuration) {
	url := strings.TrimSpace(cfg.Agent.URL)
	if url == "" {
		return
	}

	timeout := time.Duration(cfg.Agent.TimeoutSeconds) * time.Second

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			processPendingMessages(db, url, timeout)
		}
	}()
}

func processPendingMessages(db *gorm.DB, agentURL string, timeout time.Duration) {
	var messages []models.Message
	if err := db.
		Where("status = ? AND ai_processed = ?", models.MESSAGE_STATUS_RECEIVED, false).
		Order("id asc").
		Limit(20).
		Find(&messages).Error; err != nil {
		log.Printf("agent worker: query error: %v", err)
		return
	}

	for _, msg := range messages {
		// lock otimista: só processa quem conseguir virar o flag
		res := db.Model(&models.Message{}).
			Where("id = ? AND ai_processed = ?", msg.ID, false).
			Update("ai_processed", true)
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		go forwardToAgent(db, msg, agentURL, timeout)
	}
}

type agentPayload struct {
	MessageID   string                 `json:"message_id"`
	TenantID    int64                  `json:"tenant_id"`
	SessionID   int64                  `json:"session_id"`
	From        string                 `json:"from"`
	To          string                 `json:"to"`
	MessageType string                 `json:"message_type"`
	Content     map[string]interface{} `json:"content"`
}

func forwardToAgent(db *gorm.DB, msg models.Message, agentURL string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, _ := json.Marshal(agentPayload{
		MessageID:   msg.ExternalID,
		TenantID:    msg.TenantID,
		SessionID:   msg.SessionID,
		From:        msg.FromNumber,
		To:          msg.ToNumber,
		MessageType: msg.MessageType,
		Content:     msg.DecodeContent(),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		releaseMessage(db, msg.ID)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("agent worker: agent call error: %v", err)
		releaseMessage(db, msg.ID)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("agent worker: agent returned status=%d (message=%s)", resp.StatusCode, msg.ExternalID)
		releaseMessage(db, msg.ID)
		return
	}
}

// releaseMessage devolve a mensagem pra fila do próximo tick.
func releaseMessage(db *gorm.DB, id int64) {
	_ = db.Model(&models.Message{}).
		Where("id = ?", id).
		Update("ai_processed", false).Error
}
