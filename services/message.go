package services

import (
	"context"
	"encoding/json"
	"errors"

	"maritaca/cache"
	"maritaca/models"
	"maritaca/tools"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

var ErrMessageNotFound = errors.New("message not found")
var ErrTenantMismatch = errors.New("message does not belong to tenant")
var ErrInvalidStatus = errors.New("invalid message status")

// MessageService cuida do envio outbound e da ingestão via webhook.
type MessageService struct {
	DB        *gorm.DB
	Providers ProviderFactory
	Seen      *cache.SeenStore // opcional (nil = sem guarda redis)
}

func (s MessageService) session(tenant models.Tenant, rawPhone string) (models.Session, error) {
	phone, err := tools.NormalizePhone(rawPhone)
	if err != nil {
		return models.Session{}, err
	}
	var session models.Session
	err = s.DB.Where("tenant_id = ? AND phone_number = ?", tenant.ID, phone).First(&session).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, err
}

func (s MessageService) send(ctx context.Context, tenant models.Tenant, fromPhone string, to string, msgType string,
	content map[string]interface{}, call func(p tools.Provider, to string) (tools.SendResult, error)) (models.Message, error) {

	session, err := s.session(tenant, fromPhone)
	if err != nil {
		return models.Message{}, err
	}

	toNorm, err := tools.NormalizePhone(to)
	if err != nil {
		return models.Message{}, err
	}

	provider, err := s.Providers(tenant, session.Provider, session.PhoneNumber)
	if err != nil {
		return models.Message{}, err
	}

	result, sendErr := call(provider, toNorm)

	status := models.MESSAGE_STATUS_SENT
	if sendErr != nil {
		status = models.MESSAGE_STATUS_FAILED
		content["error"] = sendErr.Error()
	}

	externalID := result.MessageID
	if externalID == "" {
		// provider não devolveu id (ou falhou): gera um pra manter o unique
		externalID = uuid.NewString()
	}

	doc, _ := json.Marshal(content)
	message := models.Message{
		TenantID:    tenant.ID,
		SessionID:   session.ID,
		ExternalID:  externalID,
		FromNumber:  session.PhoneNumber,
		ToNumber:    toNorm,
		MessageType: msgType,
		Content:     string(doc),
		Status:      status,
	}
	if err := s.DB.Create(&message).Error; err != nil {
		return models.Message{}, err
	}

	// sendErr volta junto da linha persistida: o caller decide o código HTTP.
	return message, sendErr
}

func (s MessageService) SendText(ctx context.Context, tenant models.Tenant, fromPhone string, to string, text string) (models.Message, error) {
	return s.send(ctx, tenant, fromPhone, to, models.MESSAGE_TYPE_TEXT,
		map[string]interface{}{"text": text},
		func(p tools.Provider, to string) (tools.SendResult, error) {
			return p.SendText(ctx, to, text)
		})
}

func (s MessageService) SendMedia(ctx context.Context, tenant models.Tenant, fromPhone string, to string, mediaURL string, mimeType string, caption string) (models.Message, error) {
	return s.send(ctx, tenant, fromPhone, to, models.MESSAGE_TYPE_MEDIA,
		map[string]interface{}{"media_url": mediaURL, "mime_type": mimeType, "caption": caption},
		func(p tools.Provider, to string) (tools.SendResult, error) {
			return p.SendMedia(ctx, to, mediaURL, mimeType, caption)
		})
}

func (s MessageService) SendLocation(ctx context.Context, tenant models.Tenant, fromPhone string, to string, latitude float64, longitude float64, name string, address string) (models.Message, error) {
	return s.send(ctx, tenant, fromPhone, to, models.MESSAGE_TYPE_LOCATION,
		map[string]interface{}{"latitude": latitude, "longitude": longitude, "name": name, "address": address},
		func(p tools.Provider, to string) (tools.SendResult, error) {
			return p.SendLocation(ctx, to, latitude, longitude, name, address)
		})
}

func (s MessageService) SendAudio(ctx context.Context, tenant models.Tenant, fromPhone string, to string, audioURL string) (models.Message, error) {
	return s.send(ctx, tenant, fromPhone, to, models.MESSAGE_TYPE_AUDIO,
		map[string]interface{}{"audio_url": audioURL},
		func(p tools.Provider, to string) (tools.SendResult, error) {
			return p.SendAudio(ctx, to, audioURL)
		})
}

// IncomingMessage é o payload já extraído do webhook de entrada.
// To é o número da sessão (destinatário local), From o remetente externo.
type IncomingMessage struct {
	To         string
	From       string
	ExternalID string
	Type       string
	Text       string
	MediaURL   string
	MimeType   string
	Caption    string
	Latitude   float64
	Longitude  float64
}

// IngestIncoming persiste uma mensagem recebida com status "received".
// Dedupe idempotente por external id: se já existe, devolve a linha
// existente intocada (created=false). Guarda redis, quando configurada,
// corta o caminho antes do banco.
func (s MessageService) IngestIncoming(ctx context.Context, tenant models.Tenant, in IncomingMessage) (models.Message, bool, error) {
	session, err := s.session(tenant, in.To)
	if err != nil {
		return models.Message{}, false, err
	}

	externalID := in.ExternalID
	if externalID == "" {
		externalID = uuid.NewString()
	} else {
		first, serr := s.Seen.MarkSeen(ctx, tenant.ID, externalID)
		_ = serr // redis fora do ar não bloqueia ingestão
		if !first {
			existing, ferr := s.findByExternalID(tenant, externalID)
			if ferr == nil {
				return existing, false, nil
			}
			if !errors.Is(ferr, ErrMessageNotFound) {
				return models.Message{}, false, ferr
			}
			// visto no redis mas sem linha no banco: segue pro insert
		}
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MESSAGE_TYPE_TEXT
	}

	content := map[string]interface{}{}
	switch msgType {
	case models.MESSAGE_TYPE_MEDIA:
		content["media_url"] = in.MediaURL
		content["mime_type"] = in.MimeType
		if in.Caption != "" {
			content["caption"] = in.Caption
		}
	case models.MESSAGE_TYPE_LOCATION:
		content["latitude"] = in.Latitude
		content["longitude"] = in.Longitude
	case models.MESSAGE_TYPE_AUDIO:
		content["audio_url"] = in.MediaURL
	default:
		content["text"] = in.Text
	}
	doc, _ := json.Marshal(content)

	message := models.Message{
		TenantID:    tenant.ID,
		SessionID:   session.ID,
		ExternalID:  externalID,
		FromNumber:  in.From,
		ToNumber:    session.PhoneNumber,
		MessageType: msgType,
		Content:     string(doc),
		Status:      models.MESSAGE_STATUS_RECEIVED,
	}
	if err := s.DB.Create(&message).Error; err != nil {
		// corrida no unique de external_id: outro request inseriu primeiro
		if existing, ferr := s.findByExternalID(tenant, externalID); ferr == nil {
			return existing, false, nil
		}
		return models.Message{}, false, err
	}

	return message, true, nil
}

func (s MessageService) findByExternalID(tenant models.Tenant, externalID string) (models.Message, error) {
	var existing models.Message
	err := s.DB.Where("external_id = ?", externalID).First(&existing).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if existing.TenantID != tenant.ID {
		return models.Message{}, ErrTenantMismatch
	}
	return existing, nil
}

// ApplyStatusUpdate aplica um status vindo do provider a uma mensagem.
// Tenant errado é rejeitado sem tocar na linha. errText, quando presente,
// é mesclado no documento de conteúdo (sobrescreve a chave "error").
func (s MessageService) ApplyStatusUpdate(ctx context.Context, tenant models.Tenant, externalID string, status string, errText string) (models.Message, error) {
	if !models.ValidMessageStatus(status) {
		return models.Message{}, ErrInvalidStatus
	}

	var message models.Message
	err := s.DB.Where("external_id = ?", externalID).First(&message).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	if message.TenantID != tenant.ID {
		return models.Message{}, ErrTenantMismatch
	}

	updates := map[string]interface{}{"status": status}
	if errText != "" {
		updates["content"] = message.ContentWithError(errText)
	}

	// update condicional no status lido: corrida concorrente vira no-op
	res := s.DB.Model(&models.Message{}).
		Where("id = ? AND status = ?", message.ID, message.Status).
		Updates(updates)
	if res.Error != nil {
		return models.Message{}, res.Error
	}
	if res.RowsAffected == 0 {
		// outro update chegou antes; devolve o estado atual
		if err := s.DB.Where("id = ?", message.ID).First(&message).Error; err != nil {
			return models.Message{}, err
		}
		return message, nil
	}

	message.Status = status
	if errText != "" {
		message.Content = updates["content"].(string)
	}
	return message, nil
}

// ListMessages lista mensagens do tenant, opcionalmente por sessão.
func (s MessageService) ListMessages(tenant models.Tenant, sessionID int64, limit int, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.DB.Where("tenant_id = ?", tenant.ID)
	if sessionID > 0 {
		q = q.Where("session_id = ?", sessionID)
	}
	var messages []models.Message
	err := q.Order("id desc").Limit(limit).Offset(offset).Find(&messages).Error
	return messages, err
}
