package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Tenant é a fronteira de identidade do sistema: todo session e message
// pertence a exatamente um tenant. ClientID é o valor do header X-Tenant-ID
// e APIToken é a credencial bearer das rotas autenticadas.
type Tenant struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ClientID  string     `gorm:"column:client_id;not null;unique_index" json:"client_id"`
	Name      string     `gorm:"not null" json:"name" form:"name"`
	APIToken  string     `gorm:"column:api_token;not null" json:"-"`
	Settings  string     `gorm:"type:text" json:"settings"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// TenantSettings é o documento opaco guardado em Tenant.Settings.
// Campos desconhecidos são preservados só no JSON bruto.
type TenantSettings struct {
	VerifyToken string `json:"verify_token,omitempty"`

	// Credenciais do Cloud API (provider meta_api)
	Meta struct {
		AccessToken   string `json:"access_token,omitempty"`
		ApiVersion    string `json:"api_version,omitempty"`
		PhoneNumberID string `json:"phone_number_id,omitempty"`
	} `json:"meta,omitempty"`
}

// DecodeSettings nunca falha: settings inválidas contam como vazias.
func (t Tenant) DecodeSettings() TenantSettings {
	var s TenantSettings
	raw := strings.TrimSpace(t.Settings)
	if raw == "" {
		return s
	}
	_ = json.Unmarshal([]byte(raw), &s)
	return s
}
