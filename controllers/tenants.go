package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	dbpkg "maritaca/db"
	"maritaca/models"
	"maritaca/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createTenantReq struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

// POST /api/tenants (admin)
// Cria um tenant com client_id e api_token gerados. O token só aparece
// nesta resposta.
func CreateTenant(c *gin.Context) {
	var req createTenantReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		RespondError(c, "name é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	tenant := models.Tenant{
		ClientID: uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		APIToken: tools.RandomString(conf.Security.APITokenLen),
		Settings: string(req.Settings),
	}
	if err := db.Create(&tenant).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"tenant": tenant, "api_token": tenant.APIToken})
}

// GET /api/tenants/:id (admin)
func GetTenantByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var tenant models.Tenant
	if err := db.First(&tenant, id).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	RespondSuccess(c, tenant)
}

type updateTenantReq struct {
	Name     string          `json:"name"`
	Settings json.RawMessage `json:"settings"`
}

// PUT /api/tenants/:id (admin)
func UpdateTenant(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	var req updateTenantReq
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var tenant models.Tenant
	if err := db.First(&tenant, id).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	updates := map[string]any{}
	if strings.TrimSpace(req.Name) != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if len(req.Settings) > 0 {
		updates["settings"] = string(req.Settings)
	}
	if len(updates) == 0 {
		RespondSuccess(c, tenant)
		return
	}

	if err := db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if err := db.First(&tenant, id).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, tenant)
}

// DELETE /api/tenants/:id (admin)
// Cleanup completo: disconnect best-effort de cada sessão ativa, depois
// apaga mensagens, sessões e o tenant.
func DeleteTenant(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var tenant models.Tenant
	if err := db.First(&tenant, id).Error; err != nil {
		RespondError(c, "tenant não encontrado", http.StatusNotFound)
		return
	}

	if err := sessionService(db).CleanupTenant(c.Request.Context(), tenant); err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := db.Delete(&models.Message{}, "tenant_id = ?", tenant.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := db.Delete(&models.Tenant{}, "id = ?", tenant.ID).Error; err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, true)
}
