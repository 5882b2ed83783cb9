package controllers

import (
	"net/http"
	"strings"

	dbpkg "maritaca/db"
	"maritaca/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type sendMessageReq struct {
	PhoneNumber string `json:"phone_number"` // telefone da sessão (origem)
	To          string `json:"to"`

	// text
	Text string `json:"text"`

	// media / audio
	MediaURL string `json:"media_url"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	AudioURL string `json:"audio_url"`

	// location
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
}

func bindSendReq(c *gin.Context) (sendMessageReq, *gorm.DB, models.Tenant, bool) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return sendMessageReq{}, nil, models.Tenant{}, false
	}

	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return sendMessageReq{}, nil, models.Tenant{}, false
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		RespondError(c, "phone_number é obrigatório", http.StatusBadRequest)
		return sendMessageReq{}, nil, models.Tenant{}, false
	}
	if strings.TrimSpace(req.To) == "" {
		RespondError(c, "to é obrigatório", http.StatusBadRequest)
		return sendMessageReq{}, nil, models.Tenant{}, false
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return sendMessageReq{}, nil, models.Tenant{}, false
	}

	return req, db, tenant, true
}

func respondSent(c *gin.Context, message models.Message, err error) {
	if err != nil {
		// linha failed ficou persistida; o erro do provider sobe como 502
		if message.ID > 0 {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "message": message})
			return
		}
		respondServiceError(c, err)
		return
	}
	RespondSuccess(c, message)
}

// POST /api/messages/text
func SendTextMessage(c *gin.Context) {
	req, db, tenant, ok := bindSendReq(c)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		RespondError(c, "text é obrigatório", http.StatusBadRequest)
		return
	}

	message, err := messageService(db).SendText(c.Request.Context(), tenant, req.PhoneNumber, req.To, req.Text)
	respondSent(c, message, err)
}

// POST /api/messages/media
func SendMediaMessage(c *gin.Context) {
	req, db, tenant, ok := bindSendReq(c)
	if !ok {
		return
	}
	if strings.TrimSpace(req.MediaURL) == "" {
		RespondError(c, "media_url é obrigatório", http.StatusBadRequest)
		return
	}

	message, err := messageService(db).SendMedia(c.Request.Context(), tenant, req.PhoneNumber, req.To, req.MediaURL, req.MimeType, req.Caption)
	respondSent(c, message, err)
}

// POST /api/messages/location
func SendLocationMessage(c *gin.Context) {
	req, db, tenant, ok := bindSendReq(c)
	if !ok {
		return
	}

	message, err := messageService(db).SendLocation(c.Request.Context(), tenant, req.PhoneNumber, req.To, req.Latitude, req.Longitude, req.Name, req.Address)
	respondSent(c, message, err)
}

// POST /api/messages/audio
func SendAudioMessage(c *gin.Context) {
	req, db, tenant, ok := bindSendReq(c)
	if !ok {
		return
	}
	if strings.TrimSpace(req.AudioURL) == "" {
		RespondError(c, "audio_url é obrigatório", http.StatusBadRequest)
		return
	}

	message, err := messageService(db).SendAudio(c.Request.Context(), tenant, req.PhoneNumber, req.To, req.AudioURL)
	respondSent(c, message, err)
}

// GET /api/messages?session_id=&limit=&offset=
func GetMessages(c *gin.Context) {
	tenant, ok := GetTenant(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	sessionID := int64(QueryInt(c, "session_id", 0))
	limit := QueryInt(c, "limit", 50)
	offset := QueryInt(c, "offset", 0)

	messages, err := messageService(db).ListMessages(tenant, sessionID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	RespondSuccess(c, messages)
}
