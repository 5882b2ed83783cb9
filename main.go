package main

import (
	"log"
	"os"
	"strings"
	"time"

	"maritaca/cache"
	"maritaca/config"
	"maritaca/controllers"
	"maritaca/db"
	"maritaca/router"
	"maritaca/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// .env é opcional (deploys reais usam env de verdade)
	_ = godotenv.Load()

	configPath := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if configPath == "" {
		configPath = "config.json"
	}
	cfg := config.Get(configPath)

	db.SetConfigurations(cfg)
	controllers.SetConfigurations(cfg)

	database, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		ttl := time.Duration(cfg.Redis.SeenTTLSeconds) * time.Second
		controllers.SetSeenStore(cache.NewSeenStore(rdb, ttl))
		log.Printf("Redis seen guard habilitado (%s)", addr)
	}

	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r)

	workers.StartAgentProcessor(database, cfg)

	log.Printf("Maritaca listening on :%s", cfg.ApiPort)
	if err := r.Run(":" + cfg.ApiPort); err != nil {
		log.Fatal(err)
	}
}
