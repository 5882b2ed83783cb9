package config

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

type Configuration struct {
	ApiPort string `json:"api_port"`
	LogPath string `json:"log_path"`

	Database string `json:"database"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	// Conector Baileys (processo Node externo)
	Baileys struct {
		BaseURL        string `json:"base_url"`
		ApiKey         string `json:"api_key"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"baileys"`

	Webhook struct {
		VerifyToken string `json:"verify_token"`
	} `json:"webhook"`

	// Agente de IA (opcional). Se URL vazia, o worker nem sobe.
	Agent struct {
		URL            string `json:"url"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"agent"`

	// Redis (opcional). Usado só como guarda de dedupe do webhook.
	Redis struct {
		Addr           string `json:"addr"`
		SeenTTLSeconds int    `json:"seen_ttl_seconds"`
	} `json:"redis"`

	Security struct {
		AdminToken  string `json:"admin_token"`
		APITokenLen int    `json:"api_token_len"`
	} `json:"security"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogPath == "" {
		c.LogPath = "logs/server.log"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Baileys.BaseURL == "" {
		c.Baileys.BaseURL = "http://localhost:3000"
	}
	if c.Baileys.TimeoutSeconds <= 0 {
		c.Baileys.TimeoutSeconds = 30
	}
	if c.Agent.TimeoutSeconds <= 0 {
		c.Agent.TimeoutSeconds = 60
	}
	if c.Redis.SeenTTLSeconds <= 0 {
		c.Redis.SeenTTLSeconds = 300
	}
	if c.Security.APITokenLen <= 0 {
		c.Security.APITokenLen = 48
	}

	// Segredos podem vir por env (deploy sem segredo no arquivo).
	if v := strings.TrimSpace(os.Getenv("BAILEYS_API_KEY")); v != "" {
		c.Baileys.ApiKey = v
	}
	if v := strings.TrimSpace(os.Getenv("WEBHOOK_VERIFY_TOKEN")); v != "" {
		c.Webhook.VerifyToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ADMIN_TOKEN")); v != "" {
		c.Security.AdminToken = v
	}

	return c
}
