package services

import (
	"fmt"
	"time"

	"maritaca/config"
	"maritaca/models"
	"maritaca/tools"
)

// ProviderFactory constrói um handle de provider para uma sessão
// (tenant + telefone). Handles são valores por chamada, nunca estado
// ambiente compartilhado.
type ProviderFactory func(tenant models.Tenant, providerType string, phone string) (tools.Provider, error)

// DefaultProviderFactory resolve baileys via config do servidor e meta_api
// via credenciais nas settings do tenant.
func DefaultProviderFactory(cfg config.Configuration) ProviderFactory {
	return func(tenant models.Tenant, providerType string, phone string) (tools.Provider, error) {
		switch providerType {
		case models.SESSION_PROVIDER_BAILEYS:
			return tools.BaileysClient{
				BaseURL:   cfg.Baileys.BaseURL,
				ApiKey:    cfg.Baileys.ApiKey,
				SessionID: tenant.ClientID + ":" + phone,
				Timeout:   time.Duration(cfg.Baileys.TimeoutSeconds) * time.Second,
			}, nil

		case models.SESSION_PROVIDER_META:
			s := tenant.DecodeSettings()
			if s.Meta.AccessToken == "" || s.Meta.PhoneNumberID == "" {
				return nil, fmt.Errorf("meta_api: credenciais ausentes nas settings do tenant %s", tenant.ClientID)
			}
			return tools.MetaClient{
				AccessToken:   s.Meta.AccessToken,
				ApiVersion:    s.Meta.ApiVersion,
				PhoneNumberID: s.Meta.PhoneNumberID,
			}, nil
		}
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}
}
