package tools

import (
	"context"
	"fmt"
)

// ProviderStatus é o estado que o provider reporta para uma sessão.
type ProviderStatus struct {
	Connected bool                   `json:"connected"`
	State     string                 `json:"state"` // ex: connected, disconnected, qr_pending, not_found
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ProviderConfig é o que passamos ao provider no initialize.
type ProviderConfig struct {
	TenantClientID string `json:"tenant_client_id"`
	WebhookURL     string `json:"webhook_url,omitempty"`
}

// SendResult é o retorno de um envio. MessageID é o id externo da mensagem.
type SendResult struct {
	MessageID string `json:"message_id"`
}

// Provider é o contrato do conector WhatsApp. Cada valor é um handle por
// sessão (tenant + telefone), construído por chamada - nada de estado global.
type Provider interface {
	Initialize(ctx context.Context, cfg ProviderConfig) (ProviderStatus, error)
	GetStatus(ctx context.Context) (ProviderStatus, error)
	Disconnect(ctx context.Context) error

	SendText(ctx context.Context, to string, text string) (SendResult, error)
	SendMedia(ctx context.Context, to string, mediaURL string, mimeType string, caption string) (SendResult, error)
	SendLocation(ctx context.Context, to string, latitude float64, longitude float64, name string, address string) (SendResult, error)
	SendAudio(ctx context.Context, to string, audioURL string) (SendResult, error)
}

// ProviderAPIError é uma falha HTTP vinda do provider (status >= 300).
type ProviderAPIError struct {
	StatusCode int
	Body       string
}

func (e ProviderAPIError) Error() string {
	return fmt.Sprintf("provider api error: status=%d body=%s", e.StatusCode, e.Body)
}
