package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"maritaca/tools"
)

func TestBaileysClient_Initialize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/sessions/acme:5511999990000/initialize" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Fatalf("expected api key header, got %q", got)
		}

		var cfg tools.ProviderConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if cfg.TenantClientID != "acme" {
			t.Fatalf("unexpected tenant in config: %q", cfg.TenantClientID)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tools.ProviderStatus{
			Connected: true,
			State:     "connected",
			Metadata:  map[string]interface{}{"device": "web"},
		})
	}))
	t.Cleanup(srv.Close)

	c := tools.BaileysClient{BaseURL: srv.URL, ApiKey: "secret", SessionID: "acme:5511999990000"}

	st, err := c.Initialize(context.Background(), tools.ProviderConfig{TenantClientID: "acme"})
	if err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if !st.Connected || st.State != "connected" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestBaileysClient_SendText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/acme:5511999990000/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if payload["to"] != "5511888880000" || payload["type"] != "text" {
			t.Fatalf("unexpected payload: %+v", payload)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message_id": "wamid.123"})
	}))
	t.Cleanup(srv.Close)

	c := tools.BaileysClient{BaseURL: srv.URL, SessionID: "acme:5511999990000"}

	res, err := c.SendText(context.Background(), "5511888880000", "olá")
	if err != nil {
		t.Fatalf("SendText error: %v", err)
	}
	if res.MessageID != "wamid.123" {
		t.Fatalf("expected message id, got %q", res.MessageID)
	}
}

func TestBaileysClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"session not ready"}`, http.StatusConflict)
	}))
	t.Cleanup(srv.Close)

	c := tools.BaileysClient{BaseURL: srv.URL, SessionID: "acme:5511999990000"}

	_, err := c.GetStatus(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(tools.ProviderAPIError)
	if !ok {
		t.Fatalf("expected ProviderAPIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", apiErr.StatusCode)
	}
}

func TestBaileysClient_Disconnect(t *testing.T) {
	t.Parallel()

	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/acme:5511999990000/disconnect" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		called = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := tools.BaileysClient{BaseURL: srv.URL, SessionID: "acme:5511999990000"}
	if err := c.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect error: %v", err)
	}
	if !called {
		t.Fatal("expected disconnect call")
	}
}
