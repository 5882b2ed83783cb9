package controllers

import (
	"errors"
	"net/http"

	"maritaca/cache"
	"maritaca/config"
	"maritaca/services"
	"maritaca/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

var conf config.Configuration
var seenStore *cache.SeenStore

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// SetSeenStore injeta a guarda redis opcional usada pelo webhook de entrada.
func SetSeenStore(store *cache.SeenStore) {
	seenStore = store
}

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

func sessionService(db *gorm.DB) services.SessionService {
	return services.SessionService{DB: db, Providers: services.DefaultProviderFactory(conf)}
}

func messageService(db *gorm.DB) services.MessageService {
	return services.MessageService{DB: db, Providers: services.DefaultProviderFactory(conf), Seen: seenStore}
}

// respondServiceError mapeia os erros sentinela dos services pra HTTP.
func respondServiceError(c *gin.Context, err error) {
	var apiErr tools.ProviderAPIError
	switch {
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrMessageNotFound):
		RespondError(c, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrTenantMismatch):
		RespondError(c, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidProvider),
		errors.Is(err, tools.ErrInvalidPhone):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.As(err, &apiErr):
		RespondError(c, err.Error(), http.StatusBadGateway)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}
