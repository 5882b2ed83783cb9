package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	dbpkg "maritaca/db"
	"maritaca/services"

	"github.com/gin-gonic/gin"
)

// GET /api/webhooks/verify
// Handshake token/challenge no padrão do Meta:
// ?hub.mode=subscribe&hub.verify_token=...&hub.challenge=...
// Token por tenant (settings.verify_token) quando o header vem preenchido;
// senão cai no token global da config.
func WebhookVerify(c *gin.Context) {
	verifyToken := strings.TrimSpace(conf.Webhook.VerifyToken)

	if clientID := strings.TrimSpace(c.GetHeader(tenantHeader)); clientID != "" {
		if db := dbpkg.DBInstance(c); db != nil {
			if tenant, ok := loadTenant(c); ok {
				if t := strings.TrimSpace(tenant.DecodeSettings().VerifyToken); t != "" {
					verifyToken = t
				}
			} else {
				return // loadTenant já respondeu
			}
		}
	}

	if verifyToken == "" {
		RespondError(c, "verify token não configurado", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && challenge != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) == 1 {
		c.String(http.StatusOK, "%s", challenge)
		return
	}

	RespondError(c, "forbidden", http.StatusForbidden)
}

type incomingMessageReq struct {
	To        string  `json:"to"` // telefone da sessão (destinatário local)
	From      string  `json:"from"`
	MessageID string  `json:"message_id"`
	Type      string  `json:"type"`
	Text      string  `json:"text"`
	MediaURL  string  `json:"media_url"`
	MimeType  string  `json:"mime_type"`
	Caption   string  `json:"caption"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// POST /api/webhooks/incoming-message
// Registra uma mensagem recebida pelo conector. Sem sessão para o
// destinatário a mensagem é rejeitada (nada é persistido). Dedupe por
// message_id é idempotente: duplicata devolve a linha existente.
func WebhookIncomingMessage(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req incomingMessageReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.To) == "" {
		RespondError(c, "to é obrigatório", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.From) == "" {
		RespondError(c, "from é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	message, created, err := messageService(db).IngestIncoming(c.Request.Context(), tenant, services.IncomingMessage{
		To:         req.To,
		From:       strings.TrimSpace(req.From),
		ExternalID: strings.TrimSpace(req.MessageID),
		Type:       strings.TrimSpace(req.Type),
		Text:       req.Text,
		MediaURL:   req.MediaURL,
		MimeType:   req.MimeType,
		Caption:    req.Caption,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, gin.H{"message": message, "created": created})
}

type statusUpdateReq struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"` // sent | delivered | read | failed
	Error     string `json:"error"`
}

// POST /api/webhooks/status-update
// Atualiza o status de uma mensagem pelo id externo. Mensagem de outro
// tenant é rejeitada como unauthorized e a linha fica intocada.
func WebhookStatusUpdate(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req statusUpdateReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.MessageID) == "" {
		RespondError(c, "message_id é obrigatório", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		RespondError(c, "status é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	message, err := messageService(db).ApplyStatusUpdate(c.Request.Context(), tenant,
		strings.TrimSpace(req.MessageID), strings.TrimSpace(req.Status), strings.TrimSpace(req.Error))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, message)
}
