package services_test

import (
	"context"
	"errors"
	"testing"

	dbpkg "maritaca/db"
	"maritaca/models"
	"maritaca/services"
	"maritaca/tools"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	gdb.LogMode(false)
	dbpkg.Migrate(gdb)
	t.Cleanup(func() { _ = gdb.Close() })
	return gdb
}

func seedTenant(t *testing.T, gdb *gorm.DB, clientID string) models.Tenant {
	t.Helper()
	tenant := models.Tenant{ClientID: clientID, Name: clientID, APIToken: "token-" + clientID}
	if err := gdb.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
	return tenant
}

func seedSession(t *testing.T, gdb *gorm.DB, tenant models.Tenant, phone string, active bool) models.Session {
	t.Helper()
	session := models.Session{
		TenantID:    tenant.ID,
		PhoneNumber: phone,
		Provider:    models.SESSION_PROVIDER_BAILEYS,
		Active:      active,
	}
	if err := gdb.Create(&session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

// fakeProvider implementa tools.Provider com respostas programáveis.
type fakeProvider struct {
	initStatus    tools.ProviderStatus
	initErr       error
	status        tools.ProviderStatus
	statusErr     error
	disconnectErr error
	sendResult    tools.SendResult
	sendErr       error

	initCalls       int
	statusCalls     int
	disconnectCalls int
	sendCalls       int
}

func (f *fakeProvider) Initialize(ctx context.Context, cfg tools.ProviderConfig) (tools.ProviderStatus, error) {
	f.initCalls++
	return f.initStatus, f.initErr
}

func (f *fakeProvider) GetStatus(ctx context.Context) (tools.ProviderStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeProvider) Disconnect(ctx context.Context) error {
	f.disconnectCalls++
	return f.disconnectErr
}

func (f *fakeProvider) SendText(ctx context.Context, to string, text string) (tools.SendResult, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeProvider) SendMedia(ctx context.Context, to string, mediaURL string, mimeType string, caption string) (tools.SendResult, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeProvider) SendLocation(ctx context.Context, to string, latitude float64, longitude float64, name string, address string) (tools.SendResult, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func (f *fakeProvider) SendAudio(ctx context.Context, to string, audioURL string) (tools.SendResult, error) {
	f.sendCalls++
	return f.sendResult, f.sendErr
}

func fixedFactory(p tools.Provider) services.ProviderFactory {
	return func(tenant models.Tenant, providerType string, phone string) (tools.Provider, error) {
		return p, nil
	}
}

func countRows(t *testing.T, gdb *gorm.DB, model interface{}, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := gdb.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	return n
}

var errProviderDown = errors.New("provider unreachable")
