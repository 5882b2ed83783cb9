package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// BaileysClient is a thin client for the external Baileys connector process
// (Node.js). Cada sessão vive no conector sob o id "<clientId>:<phone>".
type BaileysClient struct {
	BaseURL   string
	ApiKey    string
	SessionID string // ex: "acme:5511999990000"
	Timeout   time.Duration
}

func (c BaileysClient) do(ctx context.Context, method string, path string, body any, out any) error {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	u := fmt.Sprintf("%s/sessions/%s/%s", base, url.PathEscape(c.SessionID), strings.TrimPrefix(path, "/"))

	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(c.ApiKey) != "" {
		req.Header.Set("X-Api-Key", strings.TrimSpace(c.ApiKey))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return ProviderAPIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("baileys: failed to decode response: %w", err)
		}
	}
	return nil
}

// Initialize cria (ou recria) a sessão no conector e devolve o estado
// reportado. O conector pode voltar connected=false com state=qr_pending
// quando ainda falta escanear o QR.
func (c BaileysClient) Initialize(ctx context.Context, cfg ProviderConfig) (ProviderStatus, error) {
	var st ProviderStatus
	err := c.do(ctx, http.MethodPost, "initialize", cfg, &st)
	return st, err
}

func (c BaileysClient) GetStatus(ctx context.Context) (ProviderStatus, error) {
	var st ProviderStatus
	err := c.do(ctx, http.MethodGet, "status", nil, &st)
	return st, err
}

func (c BaileysClient) Disconnect(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "disconnect", nil, nil)
}

type baileysSendPayload struct {
	To       string         `json:"to"`
	Type     string         `json:"type"`
	Text     map[string]any `json:"text,omitempty"`
	Media    map[string]any `json:"media,omitempty"`
	Location map[string]any `json:"location,omitempty"`
	Audio    map[string]any `json:"audio,omitempty"`
}

func (c BaileysClient) send(ctx context.Context, payload baileysSendPayload) (SendResult, error) {
	var res SendResult
	err := c.do(ctx, http.MethodPost, "messages", payload, &res)
	return res, err
}

func (c BaileysClient) SendText(ctx context.Context, to string, text string) (SendResult, error) {
	return c.send(ctx, baileysSendPayload{
		To:   to,
		Type: "text",
		Text: map[string]any{"body": text},
	})
}

func (c BaileysClient) SendMedia(ctx context.Context, to string, mediaURL string, mimeType string, caption string) (SendResult, error) {
	return c.send(ctx, baileysSendPayload{
		To:   to,
		Type: "media",
		Media: map[string]any{
			"url":       mediaURL,
			"mime_type": mimeType,
			"caption":   caption,
		},
	})
}

func (c BaileysClient) SendLocation(ctx context.Context, to string, latitude float64, longitude float64, name string, address string) (SendResult, error) {
	return c.send(ctx, baileysSendPayload{
		To:   to,
		Type: "location",
		Location: map[string]any{
			"latitude":  latitude,
			"longitude": longitude,
			"name":      name,
			"address":   address,
		},
	})
}

func (c BaileysClient) SendAudio(ctx context.Context, to string, audioURL string) (SendResult, error) {
	return c.send(ctx, baileysSendPayload{
		To:    to,
		Type:  "audio",
		Audio: map[string]any{"url": audioURL},
	})
}
