package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MetaClient is a thin client for WhatsApp Cloud API calls that are
// tenant-specific. Diferente do Baileys, o Cloud API não tem socket de
// sessão: com credenciais válidas a "sessão" está sempre conectada.
type MetaClient struct {
	AccessToken   string
	ApiVersion    string // e.g. v24.0
	PhoneNumberID string
}

func (c MetaClient) post(ctx context.Context, path string, body any, out any) error {
	apiVersion := strings.TrimSpace(c.ApiVersion)
	if apiVersion == "" {
		apiVersion = "v24.0"
	}
	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/%s", apiVersion, strings.TrimSpace(c.PhoneNumberID), path)

	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.AccessToken))
	req.Header.Set("Content-Type", "application/json")

	httpClient := &http.Client{Timeout: 30 * time.Second}
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
			return fmt.Errorf("meta: failed to decode response: %w", err)
		}
	}
	return nil
}

func (c MetaClient) status() ProviderStatus {
	ok := strings.TrimSpace(c.AccessToken) != "" && strings.TrimSpace(c.PhoneNumberID) != ""
	state := "connected"
	if !ok {
		state = "disconnected"
	}
	return ProviderStatus{
		Connected: ok,
		State:     state,
		Metadata:  map[string]interface{}{"phone_number_id": c.PhoneNumberID},
	}
}

func (c MetaClient) Initialize(ctx context.Context, cfg ProviderConfig) (ProviderStatus, error) {
	_ = cfg // Cloud API não precisa de setup por sessão
	return c.status(), nil
}

func (c MetaClient) GetStatus(ctx context.Context) (ProviderStatus, error) {
	return c.status(), nil
}

// Disconnect é no-op: não existe teardown de sessão no Cloud API.
func (c MetaClient) Disconnect(ctx context.Context) error {
	return nil
}

type metaSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (c MetaClient) send(ctx context.Context, body map[string]any) (SendResult, error) {
	var parsed metaSendResponse
	if err := c.post(ctx, "messages", body, &parsed); err != nil {
		return SendResult{}, err
	}
	var res SendResult
	if len(parsed.Messages) > 0 {
		res.MessageID = parsed.Messages[0].ID
	}
	return res, nil
}

func (c MetaClient) SendText(ctx context.Context, to string, text string) (SendResult, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"body": text,
		},
	})
}

func (c MetaClient) SendMedia(ctx context.Context, to string, mediaURL string, mimeType string, caption string) (SendResult, error) {
	kind := "document"
	if strings.HasPrefix(mimeType, "image/") {
		kind = "image"
	} else if strings.HasPrefix(mimeType, "video/") {
		kind = "video"
	}
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              kind,
		kind: map[string]any{
			"link":    mediaURL,
			"caption": caption,
		},
	})
}

func (c MetaClient) SendLocation(ctx context.Context, to string, latitude float64, longitude float64, name string, address string) (SendResult, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "location",
		"location": map[string]any{
			"latitude":  latitude,
			"longitude": longitude,
			"name":      name,
			"address":   address,
		},
	})
}

func (c MetaClient) SendAudio(ctx context.Context, to string, audioURL string) (SendResult, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "audio",
		"audio": map[string]any{
			"link": audioURL,
		},
	})
}
