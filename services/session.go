package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"maritaca/models"
	"maritaca/tools"

	"github.com/jinzhu/gorm"
)

var ErrSessionNotFound = errors.New("session not found")
var ErrInvalidProvider = errors.New("invalid session provider")

// SessionService cuida do ciclo de vida das sessões: initialize com
// find-or-replace, reconciliação de status e disconnect.
type SessionService struct {
	DB        *gorm.DB
	Providers ProviderFactory
}

// Initialize normaliza o telefone e cria a sessão no provider.
// Se já existe sessão para (tenant, telefone), tenta um disconnect
// best-effort (falha é logada, não fatal), apaga a linha antiga e insere a
// nova com Active espelhando o connected reportado pelo provider.
func (s SessionService) Initialize(ctx context.Context, tenant models.Tenant, rawPhone string, providerType string) (models.Session, tools.ProviderStatus, error) {
	phone, err := tools.NormalizePhone(rawPhone)
	if err != nil {
		return models.Session{}, tools.ProviderStatus{}, err
	}

	if providerType == "" {
		providerType = models.SESSION_PROVIDER_BAILEYS
	}
	if !models.ValidSessionProvider(providerType) {
		return models.Session{}, tools.ProviderStatus{}, ErrInvalidProvider
	}

	var existing models.Session
	err = s.DB.Where("tenant_id = ? AND phone_number = ?", tenant.ID, phone).First(&existing).Error
	if err == nil {
		// replace: derruba a antiga antes de criar a nova. Se o disconnect
		// falhar seguimos mesmo assim - a sessão nova vale mais que o
		// teardown limpo da velha.
		if old, perr := s.Providers(tenant, existing.Provider, existing.PhoneNumber); perr == nil {
			if derr := old.Disconnect(ctx); derr != nil {
				log.Printf("session service: disconnect da sessão antiga falhou (tenant=%s phone=%s): %v",
					tenant.ClientID, existing.PhoneNumber, derr)
			}
		} else {
			log.Printf("session service: provider da sessão antiga indisponível (tenant=%s): %v", tenant.ClientID, perr)
		}
		if derr := s.DB.Delete(&models.Session{}, "id = ?", existing.ID).Error; derr != nil {
			return models.Session{}, tools.ProviderStatus{}, derr
		}
	} else if !gorm.IsRecordNotFoundError(err) {
		return models.Session{}, tools.ProviderStatus{}, err
	}

	provider, err := s.Providers(tenant, providerType, phone)
	if err != nil {
		return models.Session{}, tools.ProviderStatus{}, err
	}

	status, err := provider.Initialize(ctx, tools.ProviderConfig{TenantClientID: tenant.ClientID})
	if err != nil {
		return models.Session{}, tools.ProviderStatus{}, err
	}

	metadata := ""
	if len(status.Metadata) > 0 {
		if b, merr := json.Marshal(status.Metadata); merr == nil {
			metadata = string(b)
		}
	}

	session := models.Session{
		TenantID:    tenant.ID,
		PhoneNumber: phone,
		Provider:    providerType,
		Active:      status.Connected,
		Metadata:    metadata,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return models.Session{}, tools.ProviderStatus{}, err
	}

	return session, status, nil
}

// GetStatus consulta o provider e reconcilia o flag Active com o estado
// vivo. Sessão inexistente devolve um status sintético "not_found" sem
// tocar no provider.
func (s SessionService) GetStatus(ctx context.Context, tenant models.Tenant, rawPhone string) (tools.ProviderStatus, *models.Session, error) {
	phone, err := tools.NormalizePhone(rawPhone)
	if err != nil {
		return tools.ProviderStatus{}, nil, err
	}

	var session models.Session
	err = s.DB.Where("tenant_id = ? AND phone_number = ?", tenant.ID, phone).First(&session).Error
	if gorm.IsRecordNotFoundError(err) {
		return tools.ProviderStatus{Connected: false, State: "not_found"}, nil, nil
	}
	if err != nil {
		return tools.ProviderStatus{}, nil, err
	}

	provider, err := s.Providers(tenant, session.Provider, session.PhoneNumber)
	if err != nil {
		return tools.ProviderStatus{}, nil, err
	}

	status, err := provider.GetStatus(ctx)
	if err != nil {
		return tools.ProviderStatus{}, nil, err
	}

	if status.Connected != session.Active {
		// update condicional: se outra request reconciliou antes, vira no-op
		// em vez de lost update.
		s.DB.Model(&models.Session{}).
			Where("id = ? AND active = ?", session.ID, session.Active).
			Update("active", status.Connected)
		session.Active = status.Connected
	}

	return status, &session, nil
}

// Disconnect derruba a sessão no provider e marca inactive. Erros do
// provider aqui são propagados (diferente do replace no Initialize).
func (s SessionService) Disconnect(ctx context.Context, tenant models.Tenant, rawPhone string) error {
	phone, err := tools.NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	var session models.Session
	err = s.DB.Where("tenant_id = ? AND phone_number = ?", tenant.ID, phone).First(&session).Error
	if gorm.IsRecordNotFoundError(err) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	provider, err := s.Providers(tenant, session.Provider, session.PhoneNumber)
	if err != nil {
		return err
	}
	if err := provider.Disconnect(ctx); err != nil {
		return err
	}

	return s.DB.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("active", false).Error
}

// CleanupTenant derruba e apaga todas as sessões do tenant. Disconnects
// são best-effort, igual no replace do Initialize.
func (s SessionService) CleanupTenant(ctx context.Context, tenant models.Tenant) error {
	var sessions []models.Session
	if err := s.DB.Where("tenant_id = ?", tenant.ID).Find(&sessions).Error; err != nil {
		return err
	}

	for _, session := range sessions {
		if !session.Active {
			continue
		}
		provider, err := s.Providers(tenant, session.Provider, session.PhoneNumber)
		if err != nil {
			log.Printf("session service: cleanup sem provider (tenant=%s phone=%s): %v", tenant.ClientID, session.PhoneNumber, err)
			continue
		}
		if err := provider.Disconnect(ctx); err != nil {
			log.Printf("session service: cleanup disconnect falhou (tenant=%s phone=%s): %v", tenant.ClientID, session.PhoneNumber, err)
		}
	}

	return s.DB.Delete(&models.Session{}, "tenant_id = ?", tenant.ID).Error
}

// ListActiveSessions lista as sessões ativas do tenant, sem round-trip no
// provider.
func (s SessionService) ListActiveSessions(tenant models.Tenant) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("id asc").
		Find(&sessions).Error
	return sessions, err
}
