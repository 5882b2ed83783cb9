package models

import "time"

/************************************************
/**** MARK: SESSION PROVIDERS ****/
/************************************************/
const SESSION_PROVIDER_BAILEYS = "baileys"
const SESSION_PROVIDER_META = "meta_api"

// Session representa uma conexão WhatsApp de um tenant.
// Uma por (tenant, telefone normalizado) - o unique_index composto garante.
// Active espelha o último estado reportado pelo provider; a reconciliação
// fica em services.SessionService.
type Session struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID    int64      `gorm:"not null;unique_index:idx_sessions_tenant_phone" json:"tenant_id"`
	PhoneNumber string     `gorm:"column:phone_number;not null;unique_index:idx_sessions_tenant_phone" json:"phone_number"`
	Provider    string     `gorm:"not null;default:'baileys'" json:"provider"`
	Active      bool       `gorm:"not null;default:false;index" json:"active"`
	Metadata    string     `gorm:"type:text" json:"metadata"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func ValidSessionProvider(p string) bool {
	return p == SESSION_PROVIDER_BAILEYS || p == SESSION_PROVIDER_META
}
