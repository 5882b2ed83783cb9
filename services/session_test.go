package services_test

import (
	"context"
	"errors"
	"testing"

	"maritaca/models"
	"maritaca/services"
	"maritaca/tools"
)

func TestInitialize_CreatesSessionMirroringProviderState(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	provider := &fakeProvider{initStatus: tools.ProviderStatus{Connected: true, State: "connected"}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	session, status, err := svc.Initialize(context.Background(), tenant, "+55 11 99999-0000", models.SESSION_PROVIDER_BAILEYS)
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	if session.PhoneNumber != "5511999990000" {
		t.Fatalf("expected normalized phone 5511999990000, got %q", session.PhoneNumber)
	}
	if !session.Active || !status.Connected {
		t.Fatalf("expected active session mirroring connected=true, got active=%v status=%+v", session.Active, status)
	}
	if n := countRows(t, gdb, &models.Session{}, "tenant_id = ?", tenant.ID); n != 1 {
		t.Fatalf("expected exactly 1 session row, got %d", n)
	}
}

func TestInitialize_MirrorsDisconnectedProviderState(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	provider := &fakeProvider{initStatus: tools.ProviderStatus{Connected: false, State: "qr_pending"}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	session, _, err := svc.Initialize(context.Background(), tenant, "5511999990000", "")
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if session.Active {
		t.Fatal("expected inactive session when provider reports connected=false")
	}
	if session.Provider != models.SESSION_PROVIDER_BAILEYS {
		t.Fatalf("expected default provider baileys, got %q", session.Provider)
	}
}

func TestInitialize_ReplacesExistingSession(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	old := seedSession(t, gdb, tenant, "5511999990000", true)

	provider := &fakeProvider{initStatus: tools.ProviderStatus{Connected: true, State: "connected"}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	session, _, err := svc.Initialize(context.Background(), tenant, "+55 11 99999-0000", models.SESSION_PROVIDER_BAILEYS)
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	if session.ID == old.ID {
		t.Fatal("expected a new session row, got the old one")
	}
	if provider.disconnectCalls != 1 {
		t.Fatalf("expected 1 disconnect attempt on old session, got %d", provider.disconnectCalls)
	}
	if n := countRows(t, gdb, &models.Session{}, "tenant_id = ? AND phone_number = ?", tenant.ID, "5511999990000"); n != 1 {
		t.Fatalf("expected exactly 1 session row after replace, got %d", n)
	}
}

func TestInitialize_ReplaceProceedsWhenDisconnectFails(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	old := seedSession(t, gdb, tenant, "5511999990000", true)

	provider := &fakeProvider{
		initStatus:    tools.ProviderStatus{Connected: true, State: "connected"},
		disconnectErr: errProviderDown,
	}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	session, _, err := svc.Initialize(context.Background(), tenant, "5511999990000", models.SESSION_PROVIDER_BAILEYS)
	if err != nil {
		t.Fatalf("Initialize should swallow disconnect failure, got: %v", err)
	}
	if session.ID == old.ID {
		t.Fatal("expected a new session row")
	}
	if n := countRows(t, gdb, &models.Session{}, "tenant_id = ?", tenant.ID); n != 1 {
		t.Fatalf("expected exactly 1 session row, got %d", n)
	}
}

func TestGetStatus_NotFoundSkipsProvider(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	provider := &fakeProvider{status: tools.ProviderStatus{Connected: true}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	status, session, err := svc.GetStatus(context.Background(), tenant, "5511999990000")
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if status.State != "not_found" || status.Connected {
		t.Fatalf("expected synthetic not_found status, got %+v", status)
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
	if provider.statusCalls != 0 {
		t.Fatalf("provider must not be called for missing session, got %d calls", provider.statusCalls)
	}
}

func TestGetStatus_ReconcilesActiveFlag(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	seedSession(t, gdb, tenant, "5511999990000", false)

	provider := &fakeProvider{status: tools.ProviderStatus{Connected: true, State: "connected"}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	status, session, err := svc.GetStatus(context.Background(), tenant, "+55 11 99999-0000")
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if !status.Connected || session == nil || !session.Active {
		t.Fatalf("expected reconciled active flag, got status=%+v session=%+v", status, session)
	}

	var stored models.Session
	if err := gdb.Where("tenant_id = ?", tenant.ID).First(&stored).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.Active {
		t.Fatal("expected stored active flag updated to true")
	}
}

func TestGetStatus_NoWriteWhenStateMatches(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	seeded := seedSession(t, gdb, tenant, "5511999990000", true)

	provider := &fakeProvider{status: tools.ProviderStatus{Connected: true, State: "connected"}}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	if _, _, err := svc.GetStatus(context.Background(), tenant, "5511999990000"); err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}

	var stored models.Session
	if err := gdb.First(&stored, seeded.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.Active {
		t.Fatal("active flag must stay true")
	}
	if provider.statusCalls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.statusCalls)
	}
}

func TestDisconnect_MarksInactive(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	seeded := seedSession(t, gdb, tenant, "5511999990000", true)

	provider := &fakeProvider{}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	if err := svc.Disconnect(context.Background(), tenant, "5511999990000"); err != nil {
		t.Fatalf("Disconnect error: %v", err)
	}
	if provider.disconnectCalls != 1 {
		t.Fatalf("expected 1 disconnect call, got %d", provider.disconnectCalls)
	}

	var stored models.Session
	if err := gdb.First(&stored, seeded.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Active {
		t.Fatal("expected session marked inactive")
	}
}

func TestDisconnect_MissingSession(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(&fakeProvider{})}

	err := svc.Disconnect(context.Background(), tenant, "5511999990000")
	if !errors.Is(err, services.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDisconnect_ProviderErrorPropagatesAndKeepsFlag(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	seeded := seedSession(t, gdb, tenant, "5511999990000", true)

	provider := &fakeProvider{disconnectErr: errProviderDown}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	if err := svc.Disconnect(context.Background(), tenant, "5511999990000"); !errors.Is(err, errProviderDown) {
		t.Fatalf("expected provider error, got %v", err)
	}

	var stored models.Session
	if err := gdb.First(&stored, seeded.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !stored.Active {
		t.Fatal("active flag must stay true when provider disconnect fails")
	}
}

func TestListActiveSessions(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	other := seedTenant(t, gdb, "zebra")
	seedSession(t, gdb, tenant, "5511999990000", true)
	seedSession(t, gdb, tenant, "5511999990001", false)
	seedSession(t, gdb, other, "5511999990002", true)

	provider := &fakeProvider{}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	sessions, err := svc.ListActiveSessions(tenant)
	if err != nil {
		t.Fatalf("ListActiveSessions error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(sessions))
	}
	if sessions[0].PhoneNumber != "5511999990000" {
		t.Fatalf("unexpected session: %+v", sessions[0])
	}
	if provider.statusCalls != 0 {
		t.Fatal("listing must not hit the provider")
	}
}

func TestNormalizedPhonesRouteToSameSession(t *testing.T) {
	t.Parallel()

	gdb := openTestDB(t)
	tenant := seedTenant(t, gdb, "acme")
	provider := &fakeProvider{
		initStatus: tools.ProviderStatus{Connected: true, State: "connected"},
		status:     tools.ProviderStatus{Connected: true, State: "connected"},
	}
	svc := services.SessionService{DB: gdb, Providers: fixedFactory(provider)}

	created, _, err := svc.Initialize(context.Background(), tenant, "+55 11999999999", models.SESSION_PROVIDER_BAILEYS)
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	_, found, err := svc.GetStatus(context.Background(), tenant, "5511999999999")
	if err != nil {
		t.Fatalf("GetStatus error: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected both phone spellings to resolve to session %d, got %+v", created.ID, found)
	}
}
